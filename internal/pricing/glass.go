package pricing

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/cotizador/internal/refdata"
)

const categoryGlass = "glass"

// HoleTier maps drill diameters up to MaxDiameterMM to an operation code.
type HoleTier struct {
	MaxDiameterMM float64 `json:"max_diameter_mm" mapstructure:"max_diameter_mm"`
	Code          string  `json:"code" mapstructure:"code"`
}

// ProcessCodes names the operations used to price user-selected glass
// processes.
type ProcessCodes struct {
	EdgeFinishing   string     `mapstructure:"edge_finishing"`
	PolishedCorner  string     `mapstructure:"polished_corner"`
	HoleTiers       []HoleTier `mapstructure:"hole_tiers"`
	TemperedMarkers []string   `mapstructure:"tempered_markers"`
}

// DefaultProcessCodes returns the built-in process operation codes.
func DefaultProcessCodes() ProcessCodes {
	return ProcessCodes{
		EdgeFinishing:  "CANTO_PULIDO",
		PolishedCorner: "ESQUINA_PULIDA",
		HoleTiers: []HoleTier{
			{MaxDiameterMM: 12, Code: "TALADRO_12"},
			{MaxDiameterMM: 25, Code: "TALADRO_25"},
			{MaxDiameterMM: 50, Code: "TALADRO_50"},
		},
		TemperedMarkers: []string{"templado", "tempered", "toughened", "securit"},
	}
}

// HoleCode returns the operation code of the first tier covering diameter.
func (p ProcessCodes) HoleCode(diameter float64) (string, bool) {
	for _, t := range p.HoleTiers {
		if diameter <= t.MaxDiameterMM {
			return t.Code, true
		}
	}
	return "", false
}

// IsTempered reports whether family names a tempered/toughened glass.
func (p ProcessCodes) IsTempered(family string) bool {
	for _, m := range p.TemperedMarkers {
		if m != "" && containsFold(family, m) {
			return true
		}
	}
	return false
}

type GlassDimensions struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	Quantity int     `json:"quantity"`
}

type CountOption struct {
	Enabled bool `json:"enabled"`
	Count   int  `json:"count"`
}

type HoleOption struct {
	Enabled    bool    `json:"enabled"`
	Count      int     `json:"count"`
	DiameterMM float64 `json:"diameter_mm"`
}

type GlassProcesses struct {
	EdgeFinishing   bool        `json:"edge_finishing"`
	PolishedCorners CountOption `json:"polished_corners"`
	Holes           HoleOption  `json:"holes"`
	// ApplyRuleOperations adds the operations selected by operation rules
	// for the resolved entry.
	ApplyRuleOperations bool `json:"apply_rule_operations"`
}

// GlassRequest describes one glass line: pane size and count, the requested
// specification and the optional processes.
type GlassRequest struct {
	Dimensions GlassDimensions `json:"dimensions"`
	Spec       CatalogQuery    `json:"spec"`
	Processes  GlassProcesses  `json:"processes"`
}

// GlassQuote is the priced glass line before tax.
type GlassQuote struct {
	Entry         refdata.CatalogEntry `json:"entry"`
	UnitArea      float64              `json:"unit_area_m2"`
	TotalArea     float64              `json:"total_area_m2"`
	UnitPerimeter float64              `json:"unit_perimeter_m"`
	ListPrice     float64              `json:"list_price"`
	DiscountPct   float64              `json:"discount_pct"`
	NetUnitPrice  float64              `json:"net_unit_price"`
	BaseCost      float64              `json:"base_cost"`
	Processes     []OperationLine      `json:"processes"`
	ProcessTotal  float64              `json:"process_total"`
	Total         float64              `json:"total"`
}

// GlassGeometry returns unit area (m²), total area (m²) and unit perimeter (m).
func GlassGeometry(d GlassDimensions) (unitArea, totalArea, unitPerimeter float64) {
	unitArea = (d.WidthMM * d.HeightMM) / 1_000_000
	totalArea = unitArea * float64(d.Quantity)
	unitPerimeter = 2 * (d.WidthMM + d.HeightMM) / 1000
	return unitArea, totalArea, unitPerimeter
}

// ValidateGlass checks a glass request without touching reference data.
func (p ProcessCodes) ValidateGlass(req GlassRequest) error {
	d := req.Dimensions
	if !isFinite(d.WidthMM) {
		return invalid("width_mm", "debe ser un número finito")
	}
	if !isFinite(d.HeightMM) {
		return invalid("height_mm", "debe ser un número finito")
	}
	if d.WidthMM <= 0 {
		return invalid("width_mm", "debe ser mayor a 0")
	}
	if d.HeightMM <= 0 {
		return invalid("height_mm", "debe ser mayor a 0")
	}
	if d.Quantity <= 0 {
		return invalid("quantity", "debe ser mayor a 0")
	}
	if _, total, perimeter := GlassGeometry(d); !isFinite(total) || !isFinite(perimeter*float64(d.Quantity)) {
		return invalid("dimensions", "producen un importe fuera de rango")
	}

	s := req.Spec
	for _, f := range []struct{ name, value string }{
		{"provider", s.Provider},
		{"family", s.Family},
		{"thickness", s.Thickness},
		{"color", s.Color},
	} {
		if strings.TrimSpace(f.value) == "" {
			return invalid(f.name, "es requerido")
		}
	}
	if _, ok := ParseThickness(s.Thickness); !ok {
		return invalid("thickness", "no es un espesor válido")
	}

	pr := req.Processes
	if pr.Holes.Enabled {
		if pr.Holes.Count <= 0 {
			return invalid("holes_count", "debe ser mayor a 0")
		}
		if !isFinite(pr.Holes.DiameterMM) || pr.Holes.DiameterMM <= 0 {
			return invalid("hole_diameter_mm", "es requerido")
		}
		if !p.IsTempered(s.Family) {
			return invalid("holes", "solo se permiten en vidrio templado")
		}
	}
	if pr.PolishedCorners.Enabled && pr.PolishedCorners.Count <= 0 {
		return invalid("polished_corners_count", "debe ser mayor a 0")
	}
	return nil
}

// QuoteGlass prices one glass line: catalog price less discount over the
// total area plus the requested processes. No tax is applied here.
func (e *Engine) QuoteGlass(ctx context.Context, req GlassRequest) (GlassQuote, error) {
	if err := e.procs.ValidateGlass(req); err != nil {
		return GlassQuote{}, err
	}

	unitArea, totalArea, perimeter := GlassGeometry(req.Dimensions)

	var (
		entries []refdata.CatalogEntry
		rules   []refdata.DiscountRule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = e.ref.CatalogEntries(gctx, req.Spec.Provider, refdata.CatalogFilter{ActiveOnly: true})
		if err != nil {
			return dependency("catalog entries", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		rules, err = e.ref.DiscountRules(gctx, req.Spec.Provider)
		if err != nil {
			return dependency("discount rules", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return GlassQuote{}, err
	}

	entry, err := e.selectCatalogEntry(entries, req.Spec)
	if err != nil {
		return GlassQuote{}, err
	}
	discount, err := SelectDiscount(rules, entry.Family)
	if err != nil {
		return GlassQuote{}, err
	}

	net := NetUnitPrice(entry.UnitPrice, discount)
	q := GlassQuote{
		Entry:         entry,
		UnitArea:      unitArea,
		TotalArea:     totalArea,
		UnitPerimeter: perimeter,
		ListPrice:     entry.UnitPrice,
		DiscountPct:   discount,
		NetUnitPrice:  net,
		BaseCost:      net * totalArea,
	}

	processes, err := e.priceProcesses(ctx, req, perimeter)
	if err != nil {
		return GlassQuote{}, err
	}
	if req.Processes.ApplyRuleOperations {
		ruled, err := e.MatchOperations(ctx, entry)
		if err != nil {
			return GlassQuote{}, err
		}
		processes = append(processes, ruled...)
	}

	q.Processes = processes
	for _, p := range processes {
		q.ProcessTotal += p.LineTotal
	}
	q.Total = q.BaseCost + q.ProcessTotal
	if !isFinite(q.Total) {
		return GlassQuote{}, invalid("dimensions", "producen un importe fuera de rango")
	}
	return q, nil
}

type processRequest struct {
	option string
	code   string
	qty    float64
}

func (e *Engine) priceProcesses(ctx context.Context, req GlassRequest, perimeter float64) ([]OperationLine, error) {
	pr := req.Processes
	qty := float64(req.Dimensions.Quantity)

	wanted := make([]processRequest, 0, 3)
	if pr.EdgeFinishing {
		wanted = append(wanted, processRequest{"edge_finishing", e.procs.EdgeFinishing, perimeter * qty})
	}
	if pr.PolishedCorners.Enabled {
		wanted = append(wanted, processRequest{"polished_corners", e.procs.PolishedCorner, float64(pr.PolishedCorners.Count) * qty})
	}
	if pr.Holes.Enabled {
		code, ok := e.procs.HoleCode(pr.Holes.DiameterMM)
		if !ok {
			return nil, &PricingUnavailableError{Option: fmt.Sprintf("holes Ø%gmm", pr.Holes.DiameterMM)}
		}
		wanted = append(wanted, processRequest{"holes", code, float64(pr.Holes.Count) * qty})
	}
	if len(wanted) == 0 {
		return []OperationLine{}, nil
	}

	codes := make([]string, 0, len(wanted))
	for _, w := range wanted {
		codes = append(codes, w.code)
	}
	prices, err := e.operationPrices(ctx, codes)
	if err != nil {
		return nil, err
	}

	lines := make([]OperationLine, 0, len(wanted))
	for _, w := range wanted {
		op, ok := prices[w.code]
		if !ok {
			return nil, &PricingUnavailableError{Option: w.option, Code: w.code}
		}
		lines = append(lines, newOperationLine(op, w.qty))
	}
	return lines, nil
}

// LineItems renders the glass line and its processes as breakdown rows.
func (q GlassQuote) LineItems() []LineItem {
	label := strings.TrimSpace(fmt.Sprintf("%s %s %s", q.Entry.Family, q.Entry.ThicknessSpec, q.Entry.Color))
	if q.Entry.Name != "" {
		label = q.Entry.Name
	}
	items := make([]LineItem, 0, 1+len(q.Processes))
	items = append(items, NewLineItem(label, q.TotalArea, "m2", q.NetUnitPrice))
	for _, p := range q.Processes {
		items = append(items, NewLineItem(p.Description, p.Qty, p.Unit, p.UnitPrice))
	}
	return items
}

// GlassBreakdown prices a glass request and applies tax at breakdown level.
func (e *Engine) GlassBreakdown(ctx context.Context, req GlassRequest) (QuoteBreakdown, GlassQuote, error) {
	q, err := e.QuoteGlass(ctx, req)
	if err != nil {
		return QuoteBreakdown{}, GlassQuote{}, err
	}
	items := q.LineItems()
	if err := checkAmounts(items); err != nil {
		return QuoteBreakdown{}, GlassQuote{}, err
	}
	return BuildBreakdown(categoryGlass, items, e.taxRate), q, nil
}
