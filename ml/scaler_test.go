package ml

import (
	"math"
	"testing"
)

func TestFitScalerPopulationStats(t *testing.T) {
	rows := [][]float64{
		{2, 100},
		{4, 100},
		{6, 100},
	}
	columns := []string{"Rooms", "Landsize"}

	s, err := FitScaler(rows, columns, columns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(s.Means[0]-4) > 1e-9 {
		t.Errorf("expected mean 4, got %f", s.Means[0])
	}
	// population std of {2,4,6}
	want := math.Sqrt(8.0 / 3.0)
	if math.Abs(s.Scales[0]-want) > 1e-9 {
		t.Errorf("expected scale %f, got %f", want, s.Scales[0])
	}
	// zero variance column keeps scale 1
	if s.Scales[1] != 1 {
		t.Errorf("expected scale 1 for constant column, got %f", s.Scales[1])
	}
}

func TestScalerTransform(t *testing.T) {
	rows := [][]float64{{1, 10}, {3, 10}}
	columns := []string{"a", "b"}
	s, err := FitScaler(rows, columns, columns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := []float64{3, 10}
	if err := s.Transform(row, columns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(row[0]-1) > 1e-9 {
		t.Errorf("expected 1, got %f", row[0])
	}
	if row[1] != 0 {
		t.Errorf("constant column should transform to 0, got %f", row[1])
	}
}

func TestScalerTransformSubset(t *testing.T) {
	rows := [][]float64{
		{1, 100, 0},
		{3, 300, 1},
	}
	columns := []string{"Rooms", "Landsize", "Rooms_missing"}
	scaleCols := []string{"Rooms", "Landsize"}

	s, err := FitScaler(rows, columns, scaleCols)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row := []float64{1, 100, 1}
	if err := s.Transform(row, columns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// indicator column stays untouched
	if row[2] != 1 {
		t.Errorf("unscaled column was modified: %f", row[2])
	}
	if math.Abs(row[0]+1) > 1e-9 {
		t.Errorf("expected -1, got %f", row[0])
	}
}

func TestScalerTransformColumnMismatch(t *testing.T) {
	rows := [][]float64{{1}, {2}}
	s, err := FitScaler(rows, []string{"Rooms"}, []string{"Rooms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Transform([]float64{1}, []string{"Bedrooms"}); err == nil {
		t.Error("expected error for renamed column, got silent transform")
	}
}

func TestScalerTransformMatrix(t *testing.T) {
	rows := [][]float64{{2}, {4}, {6}}
	columns := []string{"x"}
	s, err := FitScaler(rows, columns, columns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.TransformMatrix(rows, columns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, row := range rows {
		sum += row[0]
	}
	if math.Abs(sum) > 1e-9 {
		t.Errorf("standardized column should sum to 0, got %f", sum)
	}
}

func TestFitScalerErrors(t *testing.T) {
	if _, err := FitScaler(nil, []string{"a"}, []string{"a"}); err == nil {
		t.Error("expected error for no rows")
	}
	if _, err := FitScaler([][]float64{{1}}, []string{"a"}, nil); err == nil {
		t.Error("expected error for no scale columns")
	}
	if _, err := FitScaler([][]float64{{1}}, []string{"a"}, []string{"b"}); err == nil {
		t.Error("expected error for unknown scale column")
	}
}
