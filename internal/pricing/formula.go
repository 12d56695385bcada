package pricing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/cotizador/internal/refdata"
)

// Reserved option tables every category may define.
const (
	TableFixed        = "fixed"
	TableSurcharge    = "surcharge"
	TableInstallation = "installation"

	defaultInstallation = "standard"
)

// DimensionSpec declares one numeric input of a category.
type DimensionSpec struct {
	Key      string
	Required bool
	Integer  bool
}

// Band is a step surcharge: Percent of the base component cost for every
// started Step above Baseline on Dimension.
type Band struct {
	Dimension string
	Label     string
	Baseline  float64
	Step      float64
	Percent   float64
}

// Steps returns how many started steps value exceeds the baseline by.
// Non-finite values have no steps.
func (b Band) Steps(value float64) int {
	if !isFinite(value) || value <= b.Baseline || b.Step <= 0 {
		return 0
	}
	n := math.Ceil((value - b.Baseline) / b.Step)
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// FixedItem is a counted extra priced per unit from the fixed table.
type FixedItem struct {
	Key   string
	Label string
	Unit  string
}

// SurchargeBase selects the cost subset a percentage surcharge applies to.
type SurchargeBase int

const (
	OverBase SurchargeBase = iota
	OverBaseAndFixed
)

// Surcharge is a conditional percentage read from the surcharge table.
type Surcharge struct {
	Key   string
	Label string
	Base  SurchargeBase
}

// Formula is the pricing definition of one product category.
type Formula struct {
	Category   string
	Label      string
	Unit       string
	Dimensions []DimensionSpec
	// Quantity derives the primary quantity driver from validated dimensions.
	Quantity func(dims map[string]float64) float64

	BaseOption     string
	FactorOptions  []string
	PerUnitOptions []string
	Bands          []Band
	FixedItems     []FixedItem
	Surcharges     []Surcharge

	InstallationOption  string
	InstallationDefault string
}

// Selection holds the inputs of a category quote.
type Selection struct {
	Dimensions   map[string]float64 `json:"dimensions"`
	Options      map[string]string  `json:"options"`
	Counts       map[string]int     `json:"counts"`
	Flags        map[string]bool    `json:"flags"`
	Installation bool               `json:"installation"`
}

// Formula returns the registered formula for category.
func (e *Engine) Formula(category string) (Formula, bool) {
	f, ok := e.formulas[category]
	return f, ok
}

// Categories lists the registered formula categories in name order.
func (e *Engine) Categories() []string {
	out := make([]string, 0, len(e.formulas))
	for c := range e.formulas {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// QuoteCategory prices sel with the formula registered for category.
func (e *Engine) QuoteCategory(ctx context.Context, category string, sel Selection) (QuoteBreakdown, error) {
	f, ok := e.formulas[category]
	if !ok {
		return QuoteBreakdown{}, invalid("category", fmt.Sprintf("%q no es una categoría válida", category))
	}
	return f.Price(ctx, e.ref, sel, e.taxRate)
}

// Validate checks dimensions, counts and option keys against the formula.
func (f Formula) Validate(sel Selection) error {
	for _, d := range f.Dimensions {
		v, ok := sel.Dimensions[d.Key]
		if ok && !isFinite(v) {
			return invalid(d.Key, "debe ser un número finito")
		}
		if d.Required && (!ok || v <= 0) {
			return invalid(d.Key, "debe ser mayor a 0")
		}
		if v < 0 {
			return invalid(d.Key, "debe ser mayor o igual a 0")
		}
		if d.Integer && v != math.Trunc(v) {
			return invalid(d.Key, "debe ser un número entero")
		}
	}
	if strings.TrimSpace(sel.Options[f.BaseOption]) == "" {
		return invalid(f.BaseOption, "es requerido")
	}

	options := make(map[string]bool, 2+len(f.FactorOptions)+len(f.PerUnitOptions))
	options[f.BaseOption] = true
	for _, k := range f.FactorOptions {
		options[k] = true
	}
	for _, k := range f.PerUnitOptions {
		options[k] = true
	}
	if f.InstallationOption != "" {
		options[f.InstallationOption] = true
	}
	for k := range sel.Options {
		if !options[k] {
			return invalid(k, "no aplica a esta categoría")
		}
	}

	fixed := make(map[string]bool, len(f.FixedItems))
	for _, it := range f.FixedItems {
		fixed[it.Key] = true
	}
	for k, n := range sel.Counts {
		if !fixed[k] {
			return invalid(k, "no aplica a esta categoría")
		}
		if n < 0 {
			return invalid(k, "debe ser mayor o igual a 0")
		}
	}

	surcharges := make(map[string]bool, len(f.Surcharges))
	for _, s := range f.Surcharges {
		surcharges[s.Key] = true
	}
	for k := range sel.Flags {
		if !surcharges[k] {
			return invalid(k, "no aplica a esta categoría")
		}
	}
	return nil
}

// tableKeys lists the coefficient tables a selection needs.
func (f Formula) tableKeys(sel Selection) []string {
	keys := []string{f.BaseOption}
	for _, k := range append(append([]string{}, f.FactorOptions...), f.PerUnitOptions...) {
		if sel.Options[k] != "" {
			keys = append(keys, k)
		}
	}
	for _, it := range f.FixedItems {
		if sel.Counts[it.Key] > 0 {
			keys = append(keys, TableFixed)
			break
		}
	}
	for _, s := range f.Surcharges {
		if sel.Flags[s.Key] {
			keys = append(keys, TableSurcharge)
			break
		}
	}
	if sel.Installation {
		keys = append(keys, TableInstallation)
	}
	return keys
}

func loadTables(ctx context.Context, ref refdata.Reader, category string, keys []string) (map[string][]refdata.CoefficientEntry, error) {
	var mu sync.Mutex
	tables := make(map[string][]refdata.CoefficientEntry, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error {
			entries, err := ref.Coefficients(gctx, category, key)
			if err != nil {
				return dependency("coefficients "+category+"/"+key, err)
			}
			mu.Lock()
			tables[key] = entries
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (f Formula) option(tables map[string][]refdata.CoefficientEntry, key, id string) (refdata.CoefficientEntry, error) {
	c, ok := refdata.FindCoefficient(tables[key], id)
	if !ok {
		return refdata.CoefficientEntry{}, &NotFoundError{
			Lookup: "coeficiente",
			Attributes: []Attr{
				{Name: "category", Value: f.Category},
				{Name: "option", Value: key},
				{Name: "id", Value: id},
			},
		}
	}
	return c, nil
}

// Price evaluates the formula. Line items follow the computation order: base
// component, per-unit options, band surcharges, fixed items, percentage
// surcharges and installation.
func (f Formula) Price(ctx context.Context, ref refdata.Reader, sel Selection, taxRate float64) (QuoteBreakdown, error) {
	if err := f.Validate(sel); err != nil {
		return QuoteBreakdown{}, err
	}

	tables, err := loadTables(ctx, ref, f.Category, uniqueStrings(f.tableKeys(sel)))
	if err != nil {
		return QuoteBreakdown{}, err
	}

	qty := f.Quantity(sel.Dimensions)
	if !isFinite(qty) {
		return QuoteBreakdown{}, invalid("dimensions", "producen un importe fuera de rango")
	}
	items := make([]LineItem, 0, 8)

	base, err := f.option(tables, f.BaseOption, sel.Options[f.BaseOption])
	if err != nil {
		return QuoteBreakdown{}, err
	}
	unitPrice := base.Value
	labels := []string{f.Label, base.Label}
	for _, key := range f.FactorOptions {
		id := sel.Options[key]
		if id == "" {
			continue
		}
		factor, err := f.option(tables, key, id)
		if err != nil {
			return QuoteBreakdown{}, err
		}
		unitPrice *= factor.Value
		labels = append(labels, factor.Label)
	}
	baseLine := NewLineItem(strings.Join(labels, " · "), qty, f.Unit, unitPrice)
	items = append(items, baseLine)
	baseCost := qty * unitPrice

	for _, key := range f.PerUnitOptions {
		id := sel.Options[key]
		if id == "" {
			continue
		}
		opt, err := f.option(tables, key, id)
		if err != nil {
			return QuoteBreakdown{}, err
		}
		if opt.Value == 0 {
			continue
		}
		items = append(items, NewLineItem(opt.Label, qty, f.Unit, opt.Value))
		baseCost += qty * opt.Value
	}

	for _, b := range f.Bands {
		steps := b.Steps(sel.Dimensions[b.Dimension])
		if steps == 0 {
			continue
		}
		amount := baseCost * b.Percent * float64(steps)
		label := fmt.Sprintf("%s (+%g%% x %d)", b.Label, b.Percent*100, steps)
		items = append(items, amountItem(label, "ud", amount))
	}

	var fixedCost float64
	for _, it := range f.FixedItems {
		n := sel.Counts[it.Key]
		if n == 0 {
			continue
		}
		price, ok := refdata.FindCoefficient(tables[TableFixed], it.Key)
		if !ok {
			return QuoteBreakdown{}, &PricingUnavailableError{Option: it.Key}
		}
		items = append(items, NewLineItem(it.Label, float64(n), it.Unit, price.Value))
		fixedCost += float64(n) * price.Value
	}

	for _, s := range f.Surcharges {
		if !sel.Flags[s.Key] {
			continue
		}
		pct, ok := refdata.FindCoefficient(tables[TableSurcharge], s.Key)
		if !ok {
			return QuoteBreakdown{}, &PricingUnavailableError{Option: s.Key}
		}
		over := baseCost
		if s.Base == OverBaseAndFixed {
			over += fixedCost
		}
		label := fmt.Sprintf("%s (%g%%)", s.Label, pct.Value*100)
		items = append(items, amountItem(label, "ud", over*pct.Value))
	}

	if sel.Installation {
		id := f.InstallationDefault
		if id == "" {
			id = defaultInstallation
		}
		if f.InstallationOption != "" && sel.Options[f.InstallationOption] != "" {
			id = sel.Options[f.InstallationOption]
		}
		rate, ok := refdata.FindCoefficient(tables[TableInstallation], id)
		if !ok {
			return QuoteBreakdown{}, &PricingUnavailableError{Option: "installation", Code: id}
		}
		items = append(items, NewLineItem(rate.Label, qty, f.Unit, rate.Value))
	}

	if err := checkAmounts(items); err != nil {
		return QuoteBreakdown{}, err
	}
	return BuildBreakdown(f.Category, items, taxRate), nil
}
