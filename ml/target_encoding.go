package ml

import "errors"

// UnknownCategory stands in for a missing category value at fit time.
const UnknownCategory = "Unknown"

// TargetEncoding maps a categorical value to a smoothed mean of the
// target variable. Categories never seen at fit time fall back to the
// global mean.
type TargetEncoding struct {
	Mapping    map[string]float64 `json:"mapping"`
	GlobalMean float64            `json:"global_mean"`
	Smoothing  float64            `json:"smoothing"`
}

// FitTargetEncoding groups targets by category and blends each
// category mean with the global mean:
//
//	encoded = (count*mean + smoothing*globalMean) / (count + smoothing)
//
// The result is independent of row order.
func FitTargetEncoding(categories []string, targets []float64, smoothing float64) (*TargetEncoding, error) {
	if len(categories) == 0 {
		return nil, errors.New("categories is empty")
	}
	if len(categories) != len(targets) {
		return nil, errors.New("categories and targets length mismatch")
	}
	if smoothing < 0 {
		return nil, errors.New("smoothing must be non-negative")
	}

	var total float64
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for i, cat := range categories {
		if cat == "" {
			cat = UnknownCategory
		}
		total += targets[i]
		sums[cat] += targets[i]
		counts[cat]++
	}
	globalMean := total / float64(len(targets))

	mapping := make(map[string]float64, len(sums))
	for cat, sum := range sums {
		count := counts[cat]
		mapping[cat] = (sum + smoothing*globalMean) / (count + smoothing)
	}

	return &TargetEncoding{
		Mapping:    mapping,
		GlobalMean: globalMean,
		Smoothing:  smoothing,
	}, nil
}

// Apply returns the encoded value for category, or the global mean for
// categories absent from the mapping.
func (te *TargetEncoding) Apply(category string) float64 {
	if v, ok := te.Mapping[category]; ok {
		return v
	}
	return te.GlobalMean
}
