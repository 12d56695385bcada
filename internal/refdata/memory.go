package refdata

import (
	"context"
	"strings"
)

// Memory is a Reader over in-process slices.
type Memory struct {
	Catalog        []CatalogEntry
	Discounts      []DiscountRule
	Rules          []OperationRule
	OperationsList []Operation
	Tables         CoefficientTables

	// Err, when set, is returned by every call.
	Err error
}

var _ Reader = (*Memory)(nil)

func (m *Memory) CatalogEntries(_ context.Context, provider string, filter CatalogFilter) ([]CatalogEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]CatalogEntry, 0)
	for _, e := range m.Catalog {
		if !strings.EqualFold(e.Provider, provider) {
			continue
		}
		if filter.ActiveOnly && !e.Active {
			continue
		}
		if filter.Family != "" && !strings.EqualFold(e.Family, filter.Family) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) DiscountRules(_ context.Context, provider string) ([]DiscountRule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]DiscountRule, 0)
	for _, d := range m.Discounts {
		if strings.EqualFold(d.Provider, provider) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) OperationRules(_ context.Context, provider string) ([]OperationRule, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]OperationRule, 0)
	for _, r := range m.Rules {
		if r.Provider == "" || strings.EqualFold(r.Provider, provider) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Memory) Operations(_ context.Context, codes []string) ([]Operation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[c] = struct{}{}
	}
	out := make([]Operation, 0, len(codes))
	for _, op := range m.OperationsList {
		if _, ok := wanted[op.Code]; ok {
			out = append(out, op)
		}
	}
	return out, nil
}

func (m *Memory) Coefficients(_ context.Context, category, optionKey string) ([]CoefficientEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tables.Lookup(category, optionKey), nil
}
