// Package pipeline turns raw listing CSVs into trained, persisted
// artifacts.
package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"homeprice/housing"
)

// dateLayouts covers the formats seen in the listing exports.
var dateLayouts = []string{"2/01/2006", "2006-01-02", "02/01/2006"}

// LoadListingsCSV reads a raw listings CSV. Unknown columns are
// ignored; known numeric columns that fail to parse stay null and are
// imputed later, never dropped.
func LoadListingsCSV(path string) ([]housing.Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadListings(f)
}

// ReadListings parses CSV rows from r. The first row must be a header
// naming at least Suburb, Type and Price.
func ReadListings(r io.Reader) ([]housing.Listing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Suburb", "Type", "Price"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	var listings []housing.Listing
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		l := housing.Listing{
			Suburb: field(record, col, "Suburb"),
			Type:   field(record, col, "Type"),
			Price:  parseNullFloat(field(record, col, "Price")),
			Date:   parseDate(field(record, col, "Date")),
		}
		for _, c := range housing.NumericColumns() {
			v := parseNullFloat(field(record, col, c))
			switch c {
			case "Rooms":
				l.Rooms = v
			case "Distance":
				l.Distance = v
			case "Bathroom":
				l.Bathroom = v
			case "Car":
				l.Car = v
			case "Landsize":
				l.Landsize = v
			case "BuildingArea":
				l.BuildingArea = v
			case "YearBuilt":
				l.YearBuilt = v
			}
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseNullFloat(s string) housing.NullFloat {
	if s == "" || s == "NA" || s == "NaN" {
		return housing.NullFloat{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return housing.NullFloat{}
	}
	return housing.Float(v)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
