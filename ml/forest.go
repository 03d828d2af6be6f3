package ml

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"sync"
)

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"` // 0 means all features
	Seed            int64 `json:"seed"`
	Bootstrap       bool  `json:"bootstrap"`
}

// DefaultForestConfig mirrors the hyperparameters the price model is
// trained with in production.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        120,
		MaxDepth:        16,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Seed:            42,
		Bootstrap:       true,
	}
}

// RandomForest is a bagged ensemble of regression trees averaged at
// predict time. Training is seeded per tree, so a fixed config and
// dataset always produce the same model.
type RandomForest struct {
	Config      ForestConfig      `json:"config"`
	NumFeatures int               `json:"num_features"`
	Trees       []*RegressionTree `json:"trees"`
}

// NewRandomForest applies defaults for unset config fields.
func NewRandomForest(cfg ForestConfig) *RandomForest {
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 120
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 16
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.MinSamplesLeaf < 1 {
		cfg.MinSamplesLeaf = 1
	}
	return &RandomForest{Config: cfg}
}

// Fit trains the forest. Each tree gets its own seeded source and a
// bootstrap sample of row indices; the rows themselves are shared.
func (rf *RandomForest) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("training matrix is empty")
	}
	if len(X) != len(y) {
		return errors.New("features and targets length mismatch")
	}
	n := len(X)
	rf.NumFeatures = len(X[0])
	rf.Trees = make([]*RegressionTree, rf.Config.NumTrees)

	cfg := treeConfig{
		maxDepth:        rf.Config.MaxDepth,
		minSamplesSplit: rf.Config.MinSamplesSplit,
		minSamplesLeaf:  rf.Config.MinSamplesLeaf,
		maxFeatures:     rf.Config.MaxFeatures,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, rf.Config.NumTrees)
	for i := 0; i < rf.Config.NumTrees; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			treeRand := rand.New(rand.NewSource(rf.Config.Seed + int64(idx)))

			indices := make([]int, n)
			for j := 0; j < n; j++ {
				if rf.Config.Bootstrap {
					indices[j] = treeRand.Intn(n)
				} else {
					indices[j] = j
				}
			}

			tree := &RegressionTree{}
			if err := tree.fit(X, y, indices, cfg, treeRand); err != nil {
				errCh <- err
				return
			}
			rf.Trees[idx] = tree
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict returns one prediction per row, averaged over all trees.
func (rf *RandomForest) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		pred, err := rf.PredictRow(row)
		if err != nil {
			return nil, err
		}
		out[i] = pred
	}
	return out, nil
}

// PredictRow averages the tree outputs for one feature vector. A wrong
// vector width is a caller error.
func (rf *RandomForest) PredictRow(features []float64) (float64, error) {
	if len(rf.Trees) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != rf.NumFeatures {
		return 0, errors.New("feature vector width mismatch")
	}
	var sum float64
	for _, tree := range rf.Trees {
		v, err := tree.Predict(features)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(len(rf.Trees)), nil
}

// Save writes the trained forest as JSON.
func (rf *RandomForest) Save(path string) error {
	if len(rf.Trees) == 0 {
		return errors.New("model not trained")
	}
	payload, err := json.Marshal(rf)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load reads a trained forest from path.
func (rf *RandomForest) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var loaded RandomForest
	if err := json.Unmarshal(payload, &loaded); err != nil {
		return err
	}
	if len(loaded.Trees) == 0 {
		return errors.New("model file contains no trees")
	}
	*rf = loaded
	return nil
}
