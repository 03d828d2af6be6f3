package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Artifact file names inside the artifacts directory. Each file is
// independently loadable; the manifest binds them together.
const (
	ModelFile       = "model.json"
	ScalerFile      = "scaler.json"
	ColumnsFile     = "feature_columns.json"
	NumericColsFile = "numeric_cols_scaled.json"
	SuburbTEFile    = "suburb_te.json"
	SuburbsFile     = "all_suburbs.json"
	ManifestFile    = "manifest.json"
)

// Manifest is the versioned schema object persisted alongside the
// model. LoadBundle checks it against the other artifacts so the two
// halves of the pipeline cannot silently disagree on the column layout.
type Manifest struct {
	SchemaVersion int        `json:"schema_version"`
	FeatureCount  int        `json:"feature_count"`
	TrainedAt     time.Time  `json:"trained_at"`
	Metrics       EvalReport `json:"metrics"`
	TrainRowsUsed int        `json:"n_train_used"`
	TrainRows     int        `json:"n_train_total"`
	TestRows      int        `json:"n_test"`
}

// Bundle is the full trained artifact set, immutable after load. One
// bundle is constructed at process start and shared by every request;
// hot reload swaps whole bundles, never mutates one.
type Bundle struct {
	Model             *RandomForest
	Scaler            *StandardScaler
	FeatureColumns    []string
	NumericColsScaled []string
	SuburbEncoding    *TargetEncoding
	AllSuburbs        []string
	Manifest          Manifest

	assembler *Assembler
}

// SaveBundle writes every artifact file into dir, creating it if
// needed.
func SaveBundle(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := b.Model.Save(filepath.Join(dir, ModelFile)); err != nil {
		return err
	}
	files := map[string]interface{}{
		ScalerFile:      b.Scaler,
		ColumnsFile:     b.FeatureColumns,
		NumericColsFile: b.NumericColsScaled,
		SuburbTEFile:    b.SuburbEncoding,
		SuburbsFile:     b.AllSuburbs,
		ManifestFile:    b.Manifest,
	}
	for name, payload := range files {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

// LoadBundle reads and cross-checks the artifact set. Any missing or
// inconsistent file is an error; callers treat that as fatal at
// startup.
func LoadBundle(dir string) (*Bundle, error) {
	b := &Bundle{Model: &RandomForest{}}
	if err := b.Model.Load(filepath.Join(dir, ModelFile)); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if err := readJSON(dir, ScalerFile, &b.Scaler); err != nil {
		return nil, err
	}
	if err := readJSON(dir, ColumnsFile, &b.FeatureColumns); err != nil {
		return nil, err
	}
	if err := readJSON(dir, NumericColsFile, &b.NumericColsScaled); err != nil {
		return nil, err
	}
	if err := readJSON(dir, SuburbTEFile, &b.SuburbEncoding); err != nil {
		return nil, err
	}
	if err := readJSON(dir, SuburbsFile, &b.AllSuburbs); err != nil {
		return nil, err
	}
	if err := readJSON(dir, ManifestFile, &b.Manifest); err != nil {
		return nil, err
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	assembler, err := NewAssembler(b.FeatureColumns)
	if err != nil {
		return nil, err
	}
	b.assembler = assembler
	return b, nil
}

func readJSON(dir, name string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (b *Bundle) validate() error {
	if b.Manifest.SchemaVersion != SchemaVersion {
		return fmt.Errorf("artifact schema version %d, want %d", b.Manifest.SchemaVersion, SchemaVersion)
	}
	if len(b.FeatureColumns) == 0 {
		return fmt.Errorf("%s is empty", ColumnsFile)
	}
	if b.Manifest.FeatureCount != len(b.FeatureColumns) {
		return fmt.Errorf("manifest feature count %d, columns file has %d", b.Manifest.FeatureCount, len(b.FeatureColumns))
	}
	if b.Model.NumFeatures != len(b.FeatureColumns) {
		return fmt.Errorf("model expects %d features, columns file has %d", b.Model.NumFeatures, len(b.FeatureColumns))
	}
	if b.Scaler.NumFeatures() != len(b.NumericColsScaled) {
		return fmt.Errorf("scaler expects %d columns, %s has %d", b.Scaler.NumFeatures(), NumericColsFile, len(b.NumericColsScaled))
	}
	for i, c := range b.NumericColsScaled {
		if b.Scaler.Columns[i] != c {
			return fmt.Errorf("scaler column %d is %q, %s has %q", i, b.Scaler.Columns[i], NumericColsFile, c)
		}
	}
	if b.SuburbEncoding == nil || len(b.SuburbEncoding.Mapping) == 0 {
		return fmt.Errorf("%s has an empty mapping", SuburbTEFile)
	}
	return nil
}

// Predict runs the full inference path for one validated input:
// assemble the trained column list, apply the persisted scaler, query
// the model.
func (b *Bundle) Predict(in PredictionInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	row := b.assembler.Assemble(InferenceFeatures(in, b.SuburbEncoding))
	if err := b.Scaler.Transform(row, b.FeatureColumns); err != nil {
		return 0, err
	}
	return b.Model.PredictRow(row)
}
