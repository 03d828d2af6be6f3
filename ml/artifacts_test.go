package ml

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"homeprice/housing"
)

// trainedBundle fits a tiny but structurally complete bundle for
// persistence and serving tests.
func trainedBundle(t *testing.T) *Bundle {
	t.Helper()

	columns := FeatureColumns()
	numeric := housing.NumericColumns()

	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		row := make([]float64, len(columns))
		for j := range numeric {
			row[j] = float64((i+j)%10 + 1)
		}
		row[7] = float64(2016 + i%3) // Year
		row[8] = float64(i%12 + 1)   // Month
		if i%2 == 0 {
			row[17] = 1 // Type_t
		}
		row[16] = 600000 + float64(i%5)*50000 // Suburb_TE
		X = append(X, row)
		y = append(y, 400000+row[0]*50000+row[16]/10)
	}

	scaler, err := FitScaler(X, columns, numeric)
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	if err := scaler.TransformMatrix(X, columns); err != nil {
		t.Fatalf("transform: %v", err)
	}

	model := NewRandomForest(ForestConfig{NumTrees: 8, MaxDepth: 6, Seed: 42, Bootstrap: true})
	if err := model.Fit(X, y); err != nil {
		t.Fatalf("fit forest: %v", err)
	}

	return &Bundle{
		Model:             model,
		Scaler:            scaler,
		FeatureColumns:    columns,
		NumericColsScaled: numeric,
		SuburbEncoding: &TargetEncoding{
			Mapping:    map[string]float64{"Richmond": 900000, "Carlton": 750000},
			GlobalMean: 650000,
			Smoothing:  50,
		},
		AllSuburbs: []string{"Carlton", "Richmond"},
		Manifest: Manifest{
			SchemaVersion: SchemaVersion,
			FeatureCount:  len(columns),
			TrainedAt:     time.Now().UTC(),
		},
	}
}

func validInput() PredictionInput {
	return PredictionInput{
		Suburb: "Richmond", Type: "h", Rooms: 3, Bathroom: 1,
		Car: 1, Landsize: 300, BuildingArea: 120, SaleYear: 2017,
	}
}

func TestSaveLoadBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	b := trainedBundle(t)
	if err := SaveBundle(dir, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	for _, name := range []string{
		ModelFile, ScalerFile, ColumnsFile, NumericColsFile, SuburbTEFile, SuburbsFile, ManifestFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("artifact %s not written: %v", name, err)
		}
	}

	loaded, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	price, err := loaded.Predict(validInput())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		t.Errorf("expected a positive finite price, got %f", price)
	}

	// the loaded model is deterministic, same input same price
	again, err := loaded.Predict(validInput())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if price != again {
		t.Errorf("prediction is not stable: %f vs %f", price, again)
	}
}

func TestLoadBundleMissingFile(t *testing.T) {
	if _, err := LoadBundle(t.TempDir()); err == nil {
		t.Error("expected error loading from empty dir")
	}
}

func TestLoadBundleSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	b := trainedBundle(t)
	if err := SaveBundle(dir, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	tampered := b.Manifest
	tampered.SchemaVersion = SchemaVersion + 1
	writeArtifact(t, dir, ManifestFile, tampered)

	if _, err := LoadBundle(dir); err == nil {
		t.Error("expected error for schema version mismatch")
	}
}

func TestLoadBundleFeatureCountMismatch(t *testing.T) {
	dir := t.TempDir()
	b := trainedBundle(t)
	if err := SaveBundle(dir, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	writeArtifact(t, dir, ColumnsFile, b.FeatureColumns[:5])

	if _, err := LoadBundle(dir); err == nil {
		t.Error("expected error for truncated column list")
	}
}

func TestLoadBundleScalerColumnMismatch(t *testing.T) {
	dir := t.TempDir()
	b := trainedBundle(t)
	if err := SaveBundle(dir, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	renamed := append([]string(nil), b.NumericColsScaled...)
	renamed[0] = "Bedrooms"
	writeArtifact(t, dir, NumericColsFile, renamed)

	if _, err := LoadBundle(dir); err == nil {
		t.Error("expected error for scaler column rename")
	}
}

func TestBundlePredictRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	if err := SaveBundle(dir, trainedBundle(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadBundle(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	in := validInput()
	in.Type = "mansion"
	if _, err := loaded.Predict(in); err == nil {
		t.Error("expected validation error")
	}
}

func writeArtifact(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
