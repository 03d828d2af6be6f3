// Package housing defines the raw listing data model shared by the
// training pipeline and the prediction service.
package housing

import "time"

// NullFloat is a numeric field that may be absent or unparseable in the
// raw data. Missing values are imputed during training, never dropped.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps a known-good value.
func Float(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// Listing is one raw real-estate sale record.
type Listing struct {
	Suburb string
	Type   string // h, t or u
	Price  NullFloat
	Date   time.Time

	Rooms        NullFloat
	Distance     NullFloat
	Bathroom     NullFloat
	Car          NullFloat
	Landsize     NullFloat
	BuildingArea NullFloat
	YearBuilt    NullFloat
}

// NumericColumns returns the nullable numeric column names in their
// canonical order. The imputer and the feature schema both depend on
// this order.
func NumericColumns() []string {
	return []string{
		"Rooms",
		"Distance",
		"Bathroom",
		"Car",
		"Landsize",
		"BuildingArea",
		"YearBuilt",
	}
}

// Numeric returns the named nullable numeric field.
func (l Listing) Numeric(name string) NullFloat {
	switch name {
	case "Rooms":
		return l.Rooms
	case "Distance":
		return l.Distance
	case "Bathroom":
		return l.Bathroom
	case "Car":
		return l.Car
	case "Landsize":
		return l.Landsize
	case "BuildingArea":
		return l.BuildingArea
	case "YearBuilt":
		return l.YearBuilt
	}
	return NullFloat{}
}

// SaleYear returns the calendar year of the sale, or 0 when the date is
// unknown.
func (l Listing) SaleYear() int {
	if l.Date.IsZero() {
		return 0
	}
	return l.Date.Year()
}

// SaleMonth returns the calendar month of the sale, or 0 when the date
// is unknown.
func (l Listing) SaleMonth() int {
	if l.Date.IsZero() {
		return 0
	}
	return int(l.Date.Month())
}
