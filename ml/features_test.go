package ml

import (
	"reflect"
	"testing"
	"time"

	"homeprice/housing"
)

func TestFeatureColumnsOrder(t *testing.T) {
	want := []string{
		"Rooms", "Distance", "Bathroom", "Car", "Landsize", "BuildingArea", "YearBuilt",
		"Year", "Month",
		"Rooms_missing", "Distance_missing", "Bathroom_missing", "Car_missing",
		"Landsize_missing", "BuildingArea_missing", "YearBuilt_missing",
		"Suburb_TE", "Type_t", "Type_u",
	}
	got := FeatureColumns()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("feature column order changed:\n got %v\nwant %v", got, want)
	}
}

func TestAssemblerZeroFillsAndDrops(t *testing.T) {
	a, err := NewAssembler([]string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := a.Assemble(map[string]float64{"y": 2, "bogus": 99})
	want := []float64{0, 2, 0}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("expected %v, got %v", want, row)
	}
}

func TestNewAssemblerRejectsBadColumns(t *testing.T) {
	if _, err := NewAssembler(nil); err == nil {
		t.Error("expected error for empty columns")
	}
	if _, err := NewAssembler([]string{"x", "x"}); err == nil {
		t.Error("expected error for duplicate column")
	}
}

func TestPredictionInputValidate(t *testing.T) {
	valid := PredictionInput{
		Suburb: "Richmond", Type: "h", Rooms: 3, Bathroom: 1,
		Car: 1, Landsize: 300, BuildingArea: 120, SaleYear: 2017,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*PredictionInput)
	}{
		{"bad type", func(in *PredictionInput) { in.Type = "x" }},
		{"zero rooms", func(in *PredictionInput) { in.Rooms = 0 }},
		{"zero bathroom", func(in *PredictionInput) { in.Bathroom = 0 }},
		{"negative car", func(in *PredictionInput) { in.Car = -1 }},
		{"negative landsize", func(in *PredictionInput) { in.Landsize = -1 }},
		{"negative building area", func(in *PredictionInput) { in.BuildingArea = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if err := in.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInferenceFeatures(t *testing.T) {
	te := &TargetEncoding{
		Mapping:    map[string]float64{"Richmond": 900000},
		GlobalMean: 650000,
		Smoothing:  50,
	}
	in := PredictionInput{
		Suburb: "Richmond", Type: "u", Rooms: 2, Bathroom: 1,
		Car: 1, Landsize: 0, BuildingArea: 80, SaleYear: 2017,
	}

	values := InferenceFeatures(in, te)
	if values["Suburb_TE"] != 900000 {
		t.Errorf("expected encoded suburb 900000, got %f", values["Suburb_TE"])
	}
	if values["Type_u"] != 1 {
		t.Errorf("expected Type_u=1, got %f", values["Type_u"])
	}
	if values["Type_t"] != 0 {
		t.Errorf("expected Type_t=0, got %f", values["Type_t"])
	}
	// zero landsize is the form's missing sentinel
	if values["Landsize_missing"] != 1 {
		t.Errorf("expected Landsize_missing=1, got %f", values["Landsize_missing"])
	}
	if values["BuildingArea_missing"] != 0 {
		t.Errorf("expected BuildingArea_missing=0, got %f", values["BuildingArea_missing"])
	}
	if values["Year"] != 2017 {
		t.Errorf("expected Year=2017, got %f", values["Year"])
	}
	// fields the form does not collect stay zero
	if values["Distance"] != 0 || values["YearBuilt"] != 0 || values["Month"] != 0 {
		t.Error("uncollected fields must stay zero")
	}
}

func TestInferenceFeaturesUnknownSuburbAndReferenceType(t *testing.T) {
	te := &TargetEncoding{Mapping: map[string]float64{"A": 1}, GlobalMean: 500000}
	in := PredictionInput{
		Suburb: "Nowhere", Type: "h", Rooms: 3, Bathroom: 1,
		Car: 0, Landsize: 200, BuildingArea: 100, SaleYear: 2016,
	}
	values := InferenceFeatures(in, te)
	if values["Suburb_TE"] != 500000 {
		t.Errorf("unknown suburb should use global mean, got %f", values["Suburb_TE"])
	}
	// reference type "h" is the all-zeros one-hot row
	if values["Type_t"] != 0 || values["Type_u"] != 0 {
		t.Error("type h should not set any one-hot column")
	}
}

func TestTrainingFeatures(t *testing.T) {
	l := housing.Listing{
		Suburb: "Carlton",
		Type:   "t",
		Date:   time.Date(2017, 5, 6, 0, 0, 0, 0, time.UTC),
	}
	te := &TargetEncoding{Mapping: map[string]float64{"Carlton": 800000}, GlobalMean: 600000}

	imputed := make(map[string]ImputedColumn, len(housing.NumericColumns()))
	for i, c := range housing.NumericColumns() {
		imputed[c] = ImputedColumn{
			Values:  []float64{float64(i + 1)},
			Missing: []float64{0},
		}
	}
	imputed["BuildingArea"] = ImputedColumn{Values: []float64{150}, Missing: []float64{1}}

	values := TrainingFeatures(l, 0, imputed, te)
	if values["Year"] != 2017 || values["Month"] != 5 {
		t.Errorf("expected Year=2017 Month=5, got %f/%f", values["Year"], values["Month"])
	}
	if values["Suburb_TE"] != 800000 {
		t.Errorf("expected Suburb_TE=800000, got %f", values["Suburb_TE"])
	}
	if values["Type_t"] != 1 || values["Type_u"] != 0 {
		t.Errorf("expected Type_t=1 Type_u=0, got %f/%f", values["Type_t"], values["Type_u"])
	}
	if values["BuildingArea"] != 150 || values["BuildingArea_missing"] != 1 {
		t.Errorf("imputed column values not carried through: %f/%f",
			values["BuildingArea"], values["BuildingArea_missing"])
	}
	if values["Rooms_missing"] != 0 {
		t.Errorf("expected Rooms_missing=0, got %f", values["Rooms_missing"])
	}
}

func TestTrainingFeaturesEmptySuburb(t *testing.T) {
	te := &TargetEncoding{
		Mapping:    map[string]float64{UnknownCategory: 450000},
		GlobalMean: 600000,
	}
	imputed := make(map[string]ImputedColumn)
	for _, c := range housing.NumericColumns() {
		imputed[c] = ImputedColumn{Values: []float64{0}, Missing: []float64{1}}
	}
	values := TrainingFeatures(housing.Listing{Type: "h"}, 0, imputed, te)
	if values["Suburb_TE"] != 450000 {
		t.Errorf("empty suburb should hit the %q bucket, got %f", UnknownCategory, values["Suburb_TE"])
	}
}
