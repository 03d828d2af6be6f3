package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler applies a zero-mean/unit-variance transform to a named
// subset of feature columns. It is fit once during training and applied
// read-only afterwards; Transform never refits.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
	Scales  []float64 `json:"scales"`
}

// FitScaler computes per-column mean and scale over rows. Rows are
// aligned to columns; scaleCols names the subset to standardize, in the
// order later Transform calls must use. Zero-variance columns get a
// scale of 1 so they transform to exactly zero.
func FitScaler(rows [][]float64, columns []string, scaleCols []string) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows to fit")
	}
	if len(scaleCols) == 0 {
		return nil, errors.New("no columns to scale")
	}
	idx, err := resolveColumns(columns, scaleCols)
	if err != nil {
		return nil, err
	}

	s := &StandardScaler{
		Columns: append([]string(nil), scaleCols...),
		Means:   make([]float64, len(scaleCols)),
		Scales:  make([]float64, len(scaleCols)),
	}
	n := float64(len(rows))
	for j, col := range idx {
		var sum float64
		for _, row := range rows {
			sum += row[col]
		}
		mean := sum / n

		var variance float64
		for _, row := range rows {
			d := row[col] - mean
			variance += d * d
		}
		variance /= n

		scale := math.Sqrt(variance)
		if scale == 0 {
			scale = 1
		}
		s.Means[j] = mean
		s.Scales[j] = scale
	}
	return s, nil
}

// Transform standardizes the scaled subset of row in place. The
// columns argument must contain every fit-time column under the same
// name; a mismatch is an error, never a silent reorder.
func (s *StandardScaler) Transform(row []float64, columns []string) error {
	idx, err := resolveColumns(columns, s.Columns)
	if err != nil {
		return err
	}
	for j, col := range idx {
		row[col] = (row[col] - s.Means[j]) / s.Scales[j]
	}
	return nil
}

// TransformMatrix standardizes every row in place.
func (s *StandardScaler) TransformMatrix(rows [][]float64, columns []string) error {
	idx, err := resolveColumns(columns, s.Columns)
	if err != nil {
		return err
	}
	for _, row := range rows {
		for j, col := range idx {
			row[col] = (row[col] - s.Means[j]) / s.Scales[j]
		}
	}
	return nil
}

// NumFeatures returns the scaler's expected input width.
func (s *StandardScaler) NumFeatures() int {
	return len(s.Columns)
}

func resolveColumns(columns []string, wanted []string) ([]int, error) {
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		pos[c] = i
	}
	idx := make([]int, len(wanted))
	for j, c := range wanted {
		i, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("column %q missing from input columns", c)
		}
		idx[j] = i
	}
	return idx, nil
}
