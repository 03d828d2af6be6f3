package pipeline

import (
	"fmt"

	"homeprice/housing"
)

// CleaningRule inspects one listing before it enters training. A rule
// may normalize the listing in place; an error rejects the row.
type CleaningRule interface {
	Apply(*housing.Listing) error
	Name() string
}

// CleaningStats counts what the cleaner did across one run.
type CleaningStats struct {
	TotalProcessed int            `json:"total_processed"`
	Passed         int            `json:"passed"`
	Rejected       int            `json:"rejected"`
	Issues         map[string]int `json:"issues"`
}

// Cleaner applies a rule chain to raw listings.
type Cleaner struct {
	rules []CleaningRule
	stats CleaningStats
}

// NewCleaner builds a cleaner with the default rule set: the target
// must be present and the categorical fields are normalized.
func NewCleaner() *Cleaner {
	c := &Cleaner{stats: CleaningStats{Issues: make(map[string]int)}}
	c.AddRule(&TargetRequiredRule{})
	c.AddRule(&CategoryNormalizeRule{})
	return c
}

// AddRule appends a rule to the chain.
func (c *Cleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
}

// Clean returns the listings that pass every rule. Rejection is
// row-local; missing numeric values are not a rejection reason, the
// imputer handles them.
func (c *Cleaner) Clean(listings []housing.Listing) []housing.Listing {
	cleaned := make([]housing.Listing, 0, len(listings))
	for _, l := range listings {
		c.stats.TotalProcessed++
		rejected := false
		for _, rule := range c.rules {
			if err := rule.Apply(&l); err != nil {
				c.stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			c.stats.Rejected++
			continue
		}
		c.stats.Passed++
		cleaned = append(cleaned, l)
	}
	return cleaned
}

// Stats returns the counters accumulated so far.
func (c *Cleaner) Stats() CleaningStats {
	return c.stats
}

// TargetRequiredRule rejects listings without a usable sale price.
type TargetRequiredRule struct{}

func (r *TargetRequiredRule) Name() string { return "target_required" }

func (r *TargetRequiredRule) Apply(l *housing.Listing) error {
	if !l.Price.Valid {
		return fmt.Errorf("price is missing")
	}
	if l.Price.Value <= 0 {
		return fmt.Errorf("price %.2f is not positive", l.Price.Value)
	}
	return nil
}

// CategoryNormalizeRule lowercases the property type so the one-hot
// columns match regardless of source casing.
type CategoryNormalizeRule struct{}

func (r *CategoryNormalizeRule) Name() string { return "category_normalize" }

func (r *CategoryNormalizeRule) Apply(l *housing.Listing) error {
	l.Type = normalizeType(l.Type)
	return nil
}

func normalizeType(t string) string {
	switch t {
	case "H", "h":
		return "h"
	case "T", "t":
		return "t"
	case "U", "u":
		return "u"
	}
	return t
}
