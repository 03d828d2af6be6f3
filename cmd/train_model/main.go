package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"homeprice/db"
	"homeprice/logging"
	"homeprice/ml"
	"homeprice/pipeline"
)

func main() {
	dataPath := flag.String("data", "melb_data.csv", "training CSV path")
	artifactsDir := flag.String("artifacts", "./artifacts", "artifact output directory")
	trees := flag.Int("trees", 0, "number of trees (0 = default)")
	maxDepth := flag.Int("max_depth", 0, "max tree depth (0 = default)")
	testRatio := flag.Float64("test_ratio", 0, "test split ratio (0 = default)")
	smoothing := flag.Float64("smoothing", 0, "target encoding smoothing (0 = default)")
	seed := flag.Int64("seed", 0, "random seed (0 = default)")
	maxTrain := flag.Int("max_train", -1, "training row cap, 0 disables (-1 = default)")
	dbPath := flag.String("db", "", "sqlite path for recording the run (empty = skip)")
	logLevel := flag.String("log_level", "info", "log level")
	flag.Parse()

	logger, err := logging.Init(logging.Config{Level: *logLevel})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := pipeline.DefaultTrainConfig()
	cfg.DataPath = *dataPath
	cfg.ArtifactsDir = *artifactsDir
	if *trees > 0 {
		cfg.Forest.NumTrees = *trees
	}
	if *maxDepth > 0 {
		cfg.Forest.MaxDepth = *maxDepth
	}
	if *testRatio > 0 {
		cfg.TestRatio = *testRatio
	}
	if *smoothing > 0 {
		cfg.Smoothing = *smoothing
	}
	if *seed != 0 {
		cfg.Seed = *seed
		cfg.Forest.Seed = *seed
	}
	if *maxTrain >= 0 {
		cfg.MaxTrain = *maxTrain
	}

	start := time.Now()
	result, err := pipeline.Train(cfg, logger)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	logger.Info("training complete",
		zap.Int("rows", result.Rows),
		zap.Int("train_rows", result.TrainRows),
		zap.Int("train_used", result.TrainUsed),
		zap.Int("test_rows", result.TestRows),
		zap.Float64("mae", result.Metrics.MAE),
		zap.Float64("rmse", result.Metrics.RMSE),
		zap.Float64("r2", result.Metrics.R2),
		zap.Duration("elapsed", time.Since(start)))

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()
		run := db.TrainingRun{
			SchemaVersion: ml.SchemaVersion,
			DataPoints:    result.Rows,
			TrainRows:     result.TrainUsed,
			TestRows:      result.TestRows,
			NumFeatures:   len(result.Bundle.FeatureColumns),
			MAE:           result.Metrics.MAE,
			RMSE:          result.Metrics.RMSE,
			R2:            result.Metrics.R2,
			ArtifactsDir:  *artifactsDir,
			TrainedAt:     result.Bundle.Manifest.TrainedAt,
		}
		if err := db.SaveTrainingRun(run); err != nil {
			logger.Warn("failed to record training run", zap.Error(err))
		}
	}

	fmt.Printf("artifacts saved to %s\n", *artifactsDir)
}
