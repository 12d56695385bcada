package pricing

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/Simplici0/cotizador/internal/refdata"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func f64(v float64) *float64 { return &v }

func glassCatalog() []refdata.CatalogEntry {
	return []refdata.CatalogEntry{
		{ID: "c1", Provider: "Cristalería Norte", Family: "Templado", Name: "Templado incoloro 8mm", Type: "incoloro", ThicknessSpec: "8", Color: "Incoloro", Finish: "pulido", UnitPrice: 25.50, Active: true},
		{ID: "c2", Provider: "Cristalería Norte", Family: "Laminado", Name: "Laminado 4+4 butiral", Type: "incoloro", ThicknessSpec: "4+4", Color: "Incoloro", Interlayer: "PVB", UnitPrice: 41.00, Active: true},
		{ID: "c3", Provider: "Cristalería Norte", Family: "Monolítico", Name: "Float gris 6", Type: "float", ThicknessSpec: "6", Color: "Gris", UnitPrice: 18.20, Active: true},
		{ID: "c4", Provider: "Cristalería Norte", Family: "Templado", Name: "Templado extraclaro 8mm", Type: "extraclaro", ThicknessSpec: "8", Color: "Extraclaro incoloro", UnitPrice: 39.90, Active: true},
		{ID: "c5", Provider: "Cristalería Norte", Family: "Templado", Name: "Templado bronce 10", Type: "color", ThicknessSpec: "10", Color: "Bronce", UnitPrice: 33.00, Active: false},
		{ID: "c6", Provider: "Vidrios Sur", Family: "Templado", Name: "Templado incoloro 8", Type: "incoloro", ThicknessSpec: "8", Color: "Incoloro", UnitPrice: 27.00, Active: true},
	}
}

func glassOperations() []refdata.Operation {
	return []refdata.Operation{
		{Code: "CANTO_PULIDO", Description: "Canto pulido", Unit: "ml", UnitPrice: 4.50, Active: true},
		{Code: "ESQUINA_PULIDA", Description: "Esquina pulida", Unit: "ud", UnitPrice: 1.80, Active: true},
		{Code: "TALADRO_12", Description: "Taladro hasta 12mm", Unit: "ud", UnitPrice: 2.00, Active: true},
		{Code: "TALADRO_25", Description: "Taladro hasta 25mm", Unit: "ud", UnitPrice: 3.50, Active: true},
		{Code: "CORTE_FORMA", Description: "Corte en forma", Unit: "ud", UnitPrice: 12.00, Active: true},
		{Code: "SERIGRAFIA", Description: "Serigrafía", Unit: "m2", UnitPrice: 30.00, Active: false},
	}
}

func glassReader() *refdata.Memory {
	return &refdata.Memory{
		Catalog: glassCatalog(),
		Discounts: []refdata.DiscountRule{
			{Provider: "Cristalería Norte", FamilyPattern: "templ", Percentage: 10},
			{Provider: "Cristalería Norte", FamilyPattern: "lamin", Percentage: 5},
			{Provider: "Cristalería Norte", FamilyPattern: "", Percentage: 2},
		},
		Rules: []refdata.OperationRule{
			{ID: "r1", Provider: "Cristalería Norte", OperationCode: "CORTE_FORMA", Qty: 1, CategoryPattern: "templado", Active: true},
			{ID: "r2", Provider: "Cristalería Norte", OperationCode: "SERIGRAFIA", Qty: 1, Active: true},
		},
		OperationsList: glassOperations(),
	}
}

// countingReader counts reference reads to prove validation happens first.
type countingReader struct {
	refdata.Reader
	mu    sync.Mutex
	calls int
}

func (c *countingReader) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingReader) CatalogEntries(ctx context.Context, provider string, f refdata.CatalogFilter) ([]refdata.CatalogEntry, error) {
	c.hit()
	return c.Reader.CatalogEntries(ctx, provider, f)
}

func (c *countingReader) DiscountRules(ctx context.Context, provider string) ([]refdata.DiscountRule, error) {
	c.hit()
	return c.Reader.DiscountRules(ctx, provider)
}

func (c *countingReader) OperationRules(ctx context.Context, provider string) ([]refdata.OperationRule, error) {
	c.hit()
	return c.Reader.OperationRules(ctx, provider)
}

func (c *countingReader) Operations(ctx context.Context, codes []string) ([]refdata.Operation, error) {
	c.hit()
	return c.Reader.Operations(ctx, codes)
}

func (c *countingReader) Coefficients(ctx context.Context, category, key string) ([]refdata.CoefficientEntry, error) {
	c.hit()
	return c.Reader.Coefficients(ctx, category, key)
}

type recordingObserver struct {
	mu      sync.Mutex
	matches []int
}

func (r *recordingObserver) CatalogMultipleMatches(_ string, count int) {
	r.mu.Lock()
	r.matches = append(r.matches, count)
	r.mu.Unlock()
}
