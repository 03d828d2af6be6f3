package ml

import (
	"errors"
	"fmt"

	"homeprice/housing"
)

// SchemaVersion identifies the engineered feature layout. Bump it
// whenever FeatureColumns changes; artifacts carry the version and the
// loader refuses a mismatch.
const SchemaVersion = 1

// TypeReference is the property type dropped from the one-hot encoding
// to avoid collinearity.
const TypeReference = "h"

// TypeCategories returns the closed set of property types.
func TypeCategories() []string {
	return []string{"h", "t", "u"}
}

// MissingSuffix is appended to a numeric column name to form its
// imputation indicator column.
const MissingSuffix = "_missing"

// FeatureColumns returns the canonical engineered column order. The
// model and the scaler are order-sensitive on raw vectors, so training
// output and every inference-time vector use exactly this order.
func FeatureColumns() []string {
	cols := make([]string, 0, 19)
	cols = append(cols, housing.NumericColumns()...)
	cols = append(cols, "Year", "Month")
	for _, c := range housing.NumericColumns() {
		cols = append(cols, c+MissingSuffix)
	}
	cols = append(cols, "Suburb_TE")
	for _, t := range TypeCategories() {
		if t != TypeReference {
			cols = append(cols, "Type_"+t)
		}
	}
	return cols
}

// Assembler builds fixed-order feature vectors from named values. Any
// column absent from the input map is zero-filled; any input key not in
// the column list is dropped.
type Assembler struct {
	columns []string
}

// NewAssembler validates the persisted column list and returns an
// assembler emitting vectors in that order.
func NewAssembler(columns []string) (*Assembler, error) {
	if len(columns) == 0 {
		return nil, errors.New("feature columns is empty")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate feature column %q", c)
		}
		seen[c] = struct{}{}
	}
	return &Assembler{columns: append([]string(nil), columns...)}, nil
}

// Columns returns the column order the assembler emits.
func (a *Assembler) Columns() []string {
	return append([]string(nil), a.columns...)
}

// Assemble maps named values onto the canonical column order.
func (a *Assembler) Assemble(values map[string]float64) []float64 {
	row := make([]float64, len(a.columns))
	for i, c := range a.columns {
		row[i] = values[c]
	}
	return row
}

// PredictionInput is one inference request as submitted from the form.
type PredictionInput struct {
	Suburb       string  `json:"suburb"`
	Type         string  `json:"type"`
	Rooms        int     `json:"rooms"`
	Bathroom     float64 `json:"bathroom"`
	Car          float64 `json:"car"`
	Landsize     float64 `json:"landsize"`
	BuildingArea float64 `json:"building_area"`
	SaleYear     int     `json:"sale_year"`
}

// Validate rejects inputs the model was never meant to see. Unknown
// suburbs are allowed; they encode to the global mean.
func (in PredictionInput) Validate() error {
	valid := false
	for _, t := range TypeCategories() {
		if in.Type == t {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("type must be one of h, t, u; got %q", in.Type)
	}
	if in.Rooms < 1 {
		return errors.New("rooms must be at least 1")
	}
	if in.Bathroom < 1 {
		return errors.New("bathroom must be at least 1")
	}
	if in.Car < 0 {
		return errors.New("car must not be negative")
	}
	if in.Landsize < 0 {
		return errors.New("landsize must not be negative")
	}
	if in.BuildingArea < 0 {
		return errors.New("building area must not be negative")
	}
	return nil
}

// InferenceFeatures builds the named feature values for one form
// submission. Fields the form does not collect (Distance, YearBuilt,
// Month) stay at zero. Landsize and BuildingArea use a zero sentinel
// for "missing"; the other indicator flags are always 0 at inference.
// Training rows derive their flags from actual parse failures instead,
// an intentional asymmetry inherited from the trained model.
func InferenceFeatures(in PredictionInput, te *TargetEncoding) map[string]float64 {
	values := map[string]float64{
		"Rooms":        float64(in.Rooms),
		"Bathroom":     in.Bathroom,
		"Car":          in.Car,
		"Landsize":     in.Landsize,
		"BuildingArea": in.BuildingArea,
		"Year":         float64(in.SaleYear),
		"Suburb_TE":    te.Apply(in.Suburb),
	}
	if in.Landsize == 0 {
		values["Landsize"+MissingSuffix] = 1
	}
	if in.BuildingArea == 0 {
		values["BuildingArea"+MissingSuffix] = 1
	}
	for _, t := range TypeCategories() {
		if t != TypeReference && in.Type == t {
			values["Type_"+t] = 1
		}
	}
	return values
}

// TrainingFeatures builds the named feature values for one cleaned
// listing, given the imputed numeric columns for the listing's row
// index.
func TrainingFeatures(l housing.Listing, row int, imputed map[string]ImputedColumn, te *TargetEncoding) map[string]float64 {
	values := map[string]float64{
		"Year":      float64(l.SaleYear()),
		"Month":     float64(l.SaleMonth()),
		"Suburb_TE": te.Apply(fillUnknown(l.Suburb)),
	}
	for _, c := range housing.NumericColumns() {
		col := imputed[c]
		values[c] = col.Values[row]
		values[c+MissingSuffix] = col.Missing[row]
	}
	for _, t := range TypeCategories() {
		if t != TypeReference && l.Type == t {
			values["Type_"+t] = 1
		}
	}
	return values
}

func fillUnknown(category string) string {
	if category == "" {
		return UnknownCategory
	}
	return category
}
