package db

import (
	"path/filepath"
	"testing"
	"time"

	"homeprice/ml"
)

// The package holds one shared connection, so the whole lifecycle runs
// in a single test.
func TestSQLiteLifecycle(t *testing.T) {
	if err := SavePrediction(ml.PredictionInput{}, 0); err == nil {
		t.Error("expected error before InitDB")
	}
	if _, err := RecentPredictions(10); err == nil {
		t.Error("expected error before InitDB")
	}
	if err := SaveTrainingRun(TrainingRun{}); err == nil {
		t.Error("expected error before InitDB")
	}

	path := filepath.Join(t.TempDir(), "test.db")
	if err := InitDB(path); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer Close()

	inputs := []ml.PredictionInput{
		{Suburb: "Carlton", Type: "h", Rooms: 3, Bathroom: 1, Car: 1, Landsize: 300, BuildingArea: 120, SaleYear: 2017},
		{Suburb: "Richmond", Type: "u", Rooms: 2, Bathroom: 1, Car: 0, Landsize: 0, BuildingArea: 80, SaleYear: 2017},
		{Suburb: "Fitzroy", Type: "t", Rooms: 4, Bathroom: 2, Car: 2, Landsize: 450, BuildingArea: 200, SaleYear: 2018},
	}
	for i, in := range inputs {
		if err := SavePrediction(in, float64(500000+i*100000)); err != nil {
			t.Fatalf("save prediction %d: %v", i, err)
		}
	}

	records, err := RecentPredictions(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].PredictedPrice != 700000 {
		t.Errorf("expected newest first, got price %f", records[0].PredictedPrice)
	}
	if records[0].Input.Suburb != "Fitzroy" || records[0].Input.Type != "t" {
		t.Errorf("input fields not round-tripped: %+v", records[0].Input)
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}

	all, err := RecentPredictions(0)
	if err != nil {
		t.Fatalf("recent with default limit: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected all 3 records, got %d", len(all))
	}

	run := TrainingRun{
		SchemaVersion: ml.SchemaVersion,
		DataPoints:    13580,
		TrainRows:     10864,
		TestRows:      2716,
		NumFeatures:   19,
		MAE:           165000,
		RMSE:          260000,
		R2:            0.82,
		ArtifactsDir:  "./artifacts",
		TrainedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if err := SaveTrainingRun(run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := LoadTrainingRuns()
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.DataPoints != run.DataPoints || got.NumFeatures != run.NumFeatures || got.R2 != run.R2 {
		t.Errorf("run fields not round-tripped: %+v", got)
	}
	if !got.TrainedAt.Equal(run.TrainedAt) {
		t.Errorf("trained_at changed: %v vs %v", got.TrainedAt, run.TrainedAt)
	}

	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := SavePrediction(inputs[0], 1); err == nil {
		t.Error("expected error after Close")
	}
}
