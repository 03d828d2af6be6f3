package ml

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Cache holds the current artifact bundle for the serving process.
// Bundles are immutable; a reload builds a fresh bundle and swaps the
// pointer, so readers never see a half-loaded state.
type Cache struct {
	dir    string
	logger *zap.Logger

	mu     sync.RWMutex
	bundle *Bundle
	loaded time.Time
}

// NewCache loads the artifact set once. A missing artifact is fatal to
// the caller; the cache never starts empty.
func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	bundle, err := LoadBundle(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		dir:    dir,
		logger: logger,
		bundle: bundle,
		loaded: time.Now(),
	}, nil
}

// Bundle returns the current bundle.
func (c *Cache) Bundle() *Bundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bundle
}

// LoadedAt returns when the current bundle was installed.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Reload re-reads the artifact directory. On error the previous bundle
// stays installed.
func (c *Cache) Reload() error {
	bundle, err := LoadBundle(c.dir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.bundle = bundle
	c.loaded = time.Now()
	c.mu.Unlock()
	c.logger.Info("artifacts reloaded",
		zap.String("dir", c.dir),
		zap.Int("features", len(bundle.FeatureColumns)),
		zap.Time("trained_at", bundle.Manifest.TrainedAt))
	return nil
}

// Watch reloads the bundle when the artifact directory changes, until
// ctx is cancelled. Writes are debounced because training rewrites
// several files back to back.
func (c *Cache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		reload := func() {
			if err := c.Reload(); err != nil {
				c.logger.Warn("artifact reload failed, keeping previous bundle", zap.Error(err))
			}
		}

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("artifact watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
