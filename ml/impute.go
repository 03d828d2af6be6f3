package ml

import (
	"errors"
	"sort"

	"homeprice/housing"
)

// ImputedColumn is the result of median imputation over one numeric
// column: the filled values, a paired 0/1 indicator marking which rows
// were filled, and the median used.
type ImputedColumn struct {
	Values  []float64
	Missing []float64
	Median  float64
	Filled  int
}

// ImputeMedian fills missing values in col with the median of the
// observed values. A fully-missing column falls back to a median of 0.
func ImputeMedian(col []housing.NullFloat) (ImputedColumn, error) {
	if len(col) == 0 {
		return ImputedColumn{}, errors.New("column is empty")
	}

	observed := make([]float64, 0, len(col))
	for _, v := range col {
		if v.Valid {
			observed = append(observed, v.Value)
		}
	}

	med := 0.0
	if len(observed) > 0 {
		med = Median(observed)
	}

	out := ImputedColumn{
		Values:  make([]float64, len(col)),
		Missing: make([]float64, len(col)),
		Median:  med,
	}
	for i, v := range col {
		if v.Valid {
			out.Values[i] = v.Value
			continue
		}
		out.Values[i] = med
		out.Missing[i] = 1
		out.Filled++
	}
	return out, nil
}

// Median returns the middle value of values, averaging the two middle
// values for even lengths. The input slice is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
