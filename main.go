package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"homeprice/db"
	hphttp "homeprice/http"
	"homeprice/logging"
	"homeprice/ml"
)

type Config struct {
	Artifacts struct {
		Dir   string `yaml:"dir"`
		Watch bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log logging.Config `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	logger, err := logging.Init(config.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 3. Initialize database
	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database initialized", zap.String("path", config.Database.Path))

	// 4. Load the trained artifacts; no model means nothing to serve
	cache, err := ml.NewCache(config.Artifacts.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to load model artifacts", zap.Error(err),
			zap.String("dir", config.Artifacts.Dir))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Artifacts.Watch {
		if err := cache.Watch(ctx); err != nil {
			logger.Fatal("Failed to watch artifacts", zap.Error(err))
		}
	}

	// 5. Start the prediction feed hub
	hub := hphttp.NewPredictionHub(logger)
	go hub.Run(ctx)

	// 6. Start HTTP server
	svc, err := hphttp.NewService(cache, hub, logger)
	if err != nil {
		logger.Fatal("Failed to build service", zap.Error(err))
	}
	serverConfig := hphttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds != 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) != 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}
	server := hphttp.NewServer(serverConfig, svc, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 7. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	cancel()
	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
