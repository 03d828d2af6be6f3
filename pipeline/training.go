package pipeline

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"homeprice/housing"
	"homeprice/ml"
)

// TrainConfig drives one training run.
type TrainConfig struct {
	DataPath     string
	ArtifactsDir string
	Smoothing    float64
	TestRatio    float64
	Seed         int64
	MaxTrain     int // cap on training rows after the split; 0 disables
	Forest       ml.ForestConfig
}

// DefaultTrainConfig mirrors the production training parameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Smoothing: 50,
		TestRatio: 0.2,
		Seed:      42,
		MaxTrain:  40000,
		Forest:    ml.DefaultForestConfig(),
	}
}

// TrainResult reports one completed run. Bundle is the artifact set
// reloaded from disk, so what the result serves is exactly what was
// persisted.
type TrainResult struct {
	Bundle    *ml.Bundle
	Metrics   ml.EvalReport
	Rows      int
	TrainRows int
	TrainUsed int
	TestRows  int
	Cleaning  CleaningStats
}

// Train runs the whole pipeline: ingest, clean, impute, encode, scale,
// split, fit, evaluate, persist.
func Train(cfg TrainConfig, logger *zap.Logger) (*TrainResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DataPath == "" {
		return nil, errors.New("data path is required")
	}
	if cfg.ArtifactsDir == "" {
		return nil, errors.New("artifacts dir is required")
	}

	listings, err := LoadListingsCSV(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	return TrainListings(listings, cfg, logger)
}

// TrainListings trains on already-loaded listings.
func TrainListings(listings []housing.Listing, cfg TrainConfig, logger *zap.Logger) (*TrainResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		cfg.TestRatio = 0.2
	}
	if cfg.Smoothing <= 0 {
		cfg.Smoothing = 50
	}

	cleaner := NewCleaner()
	cleaned := cleaner.Clean(listings)
	if len(cleaned) == 0 {
		return nil, errors.New("no usable rows after cleaning")
	}
	logger.Info("listings cleaned",
		zap.Int("total", len(listings)),
		zap.Int("kept", len(cleaned)),
		zap.Int("rejected", cleaner.Stats().Rejected))

	X, y, bundle, err := buildTrainingMatrix(cleaned, cfg)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx := splitIndices(len(X), cfg.TestRatio, cfg.Seed)
	usedIdx := trainIdx
	if cfg.MaxTrain > 0 && len(trainIdx) > cfg.MaxTrain {
		sub := rand.New(rand.NewSource(cfg.Seed)).Perm(len(trainIdx))[:cfg.MaxTrain]
		sort.Ints(sub)
		usedIdx = make([]int, len(sub))
		for i, j := range sub {
			usedIdx[i] = trainIdx[j]
		}
	}

	trainX, trainY := selectRows(X, y, usedIdx)
	testX, testY := selectRows(X, y, testIdx)

	model := ml.NewRandomForest(cfg.Forest)
	start := time.Now()
	if err := model.Fit(trainX, trainY); err != nil {
		return nil, err
	}
	logger.Info("model trained",
		zap.Int("rows", len(trainX)),
		zap.Int("trees", model.Config.NumTrees),
		zap.Duration("elapsed", time.Since(start)))

	var metrics ml.EvalReport
	if len(testX) > 0 {
		preds, err := model.Predict(testX)
		if err != nil {
			return nil, err
		}
		metrics, err = ml.Evaluate(preds, testY)
		if err != nil {
			return nil, err
		}
		logger.Info("model evaluated",
			zap.Int("test_rows", len(testX)),
			zap.Float64("mae", metrics.MAE),
			zap.Float64("rmse", metrics.RMSE),
			zap.Float64("r2", metrics.R2))
	}

	bundle.Model = model
	bundle.Manifest = ml.Manifest{
		SchemaVersion: ml.SchemaVersion,
		FeatureCount:  len(bundle.FeatureColumns),
		TrainedAt:     time.Now().UTC(),
		Metrics:       metrics,
		TrainRowsUsed: len(trainX),
		TrainRows:     len(trainIdx),
		TestRows:      len(testX),
	}
	if err := ml.SaveBundle(cfg.ArtifactsDir, bundle); err != nil {
		return nil, err
	}

	// Reload through the same path the service uses, so a broken
	// artifact set fails here instead of at serve time.
	loaded, err := ml.LoadBundle(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}

	return &TrainResult{
		Bundle:    loaded,
		Metrics:   metrics,
		Rows:      len(cleaned),
		TrainRows: len(trainIdx),
		TrainUsed: len(trainX),
		TestRows:  len(testX),
		Cleaning:  cleaner.Stats(),
	}, nil
}

// buildTrainingMatrix engineers the scaled feature matrix and the
// partially-filled bundle (everything except the model and manifest).
func buildTrainingMatrix(listings []housing.Listing, cfg TrainConfig) ([][]float64, []float64, *ml.Bundle, error) {
	n := len(listings)

	y := make([]float64, n)
	suburbs := make([]string, n)
	for i, l := range listings {
		y[i] = l.Price.Value
		suburbs[i] = l.Suburb
	}

	imputed := make(map[string]ml.ImputedColumn, len(housing.NumericColumns()))
	for _, c := range housing.NumericColumns() {
		col := make([]housing.NullFloat, n)
		for i, l := range listings {
			col[i] = l.Numeric(c)
		}
		ic, err := ml.ImputeMedian(col)
		if err != nil {
			return nil, nil, nil, err
		}
		imputed[c] = ic
	}

	te, err := ml.FitTargetEncoding(suburbs, y, cfg.Smoothing)
	if err != nil {
		return nil, nil, nil, err
	}

	columns := ml.FeatureColumns()
	assembler, err := ml.NewAssembler(columns)
	if err != nil {
		return nil, nil, nil, err
	}

	X := make([][]float64, n)
	for i, l := range listings {
		X[i] = assembler.Assemble(ml.TrainingFeatures(l, i, imputed, te))
	}

	scaler, err := ml.FitScaler(X, columns, housing.NumericColumns())
	if err != nil {
		return nil, nil, nil, err
	}
	if err := scaler.TransformMatrix(X, columns); err != nil {
		return nil, nil, nil, err
	}

	bundle := &ml.Bundle{
		Scaler:            scaler,
		FeatureColumns:    columns,
		NumericColsScaled: housing.NumericColumns(),
		SuburbEncoding:    te,
		AllSuburbs:        distinctSorted(suburbs),
	}
	return X, y, bundle, nil
}

func splitIndices(n int, testRatio float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	split := n - int(float64(n)*testRatio)
	train = append([]int(nil), perm[:split]...)
	test = append([]int(nil), perm[split:]...)
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func selectRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}

func distinctSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
