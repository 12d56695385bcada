// Package refdata defines the read-only reference data consumed by the pricing
// core (price lists, discounts, operation rules and coefficient tables) and the
// interface used to fetch it.
package refdata

import "context"

// CatalogEntry is one priced glass product of a provider's price list.
type CatalogEntry struct {
	ID            string  `json:"id"`
	Provider      string  `json:"provider"`
	Family        string  `json:"family"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	ThicknessSpec string  `json:"thickness_spec"`
	Color         string  `json:"color"`
	Finish        string  `json:"finish"`
	Interlayer    string  `json:"interlayer"`
	UnitPrice     float64 `json:"unit_price"`
	Active        bool    `json:"active"`
}

// DiscountRule grants Percentage off the list price for families containing
// FamilyPattern.
type DiscountRule struct {
	Provider      string  `json:"provider"`
	FamilyPattern string  `json:"family_pattern"`
	Percentage    float64 `json:"percentage"`
}

// OperationRule selects an extra operation for catalog entries matching its
// patterns. Empty patterns and nil bounds are wildcards.
type OperationRule struct {
	ID                string   `json:"id"`
	Provider          string   `json:"provider"`
	OperationCode     string   `json:"operation_code"`
	Qty               float64  `json:"qty"`
	CategoryPattern   string   `json:"category_pattern"`
	TypePattern       string   `json:"type_pattern"`
	ThicknessMin      *float64 `json:"thickness_min,omitempty"`
	ThicknessMax      *float64 `json:"thickness_max,omitempty"`
	FinishPattern     string   `json:"finish_pattern"`
	InterlayerPattern string   `json:"interlayer_pattern"`
	Active            bool     `json:"active"`
}

// Operation is a priced ancillary service.
type Operation struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Active      bool    `json:"active"`
}

// CoefficientEntry is one selectable value of a category option. Value is a
// price per unit, a multiplicative factor or a fraction depending on the
// option it belongs to.
type CoefficientEntry struct {
	ID    string  `json:"id" mapstructure:"id"`
	Label string  `json:"label" mapstructure:"label"`
	Value float64 `json:"value" mapstructure:"value"`
}

// CatalogFilter narrows CatalogEntries server-side. Implementations may ignore
// fields they cannot filter on; the resolver re-applies every filter.
type CatalogFilter struct {
	Family     string
	ActiveOnly bool
}

// Reader fetches reference data. Every call is side-effect free.
type Reader interface {
	CatalogEntries(ctx context.Context, provider string, filter CatalogFilter) ([]CatalogEntry, error)
	DiscountRules(ctx context.Context, provider string) ([]DiscountRule, error)
	OperationRules(ctx context.Context, provider string) ([]OperationRule, error)
	Operations(ctx context.Context, codes []string) ([]Operation, error)
	Coefficients(ctx context.Context, category, optionKey string) ([]CoefficientEntry, error)
}

// CoefficientTables maps category -> option key -> entries.
type CoefficientTables map[string]map[string][]CoefficientEntry

// Lookup returns the entries of one option table.
func (t CoefficientTables) Lookup(category, optionKey string) []CoefficientEntry {
	return t[category][optionKey]
}

// FindCoefficient returns the entry with the given id.
func FindCoefficient(entries []CoefficientEntry, id string) (CoefficientEntry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return CoefficientEntry{}, false
}
