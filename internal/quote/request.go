package quote

import (
	"math"
	"strconv"
	"strings"

	"github.com/Simplici0/cotizador/internal/pricing"
)

// CategoryGlass selects the glass pipeline. Every other category is priced by
// its registered formula.
const CategoryGlass = "glass"

// Request is a category plus the flat record submitted by the client.
type Request struct {
	Category string            `json:"category"`
	Title    string            `json:"title,omitempty"`
	Notes    string            `json:"notes,omitempty"`
	Values   map[string]string `json:"values"`
}

func (r Request) value(key string) string {
	return strings.TrimSpace(r.Values[key])
}

func parseNumber(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &pricing.ValidationError{Field: field, Reason: "debe ser numérico"}
	}
	return value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	if raw == "" {
		return 0, &pricing.ValidationError{Field: field, Reason: "es requerido"}
	}
	value, err := parseNumber(raw, field)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, &pricing.ValidationError{Field: field, Reason: "debe ser mayor a 0"}
	}
	return value, nil
}

// parseNonNegativeFloat treats a blank value as 0.
func parseNonNegativeFloat(raw, field string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := parseNumber(raw, field)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, &pricing.ValidationError{Field: field, Reason: "debe ser mayor o igual a 0"}
	}
	return value, nil
}

func parseCount(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &pricing.ValidationError{Field: field, Reason: "debe ser un número entero"}
	}
	if value < 0 {
		return 0, &pricing.ValidationError{Field: field, Reason: "debe ser mayor o igual a 0"}
	}
	return value, nil
}

func parseBool(raw, field string) (bool, error) {
	switch strings.ToLower(raw) {
	case "", "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes", "si", "sí":
		return true, nil
	default:
		return false, &pricing.ValidationError{Field: field, Reason: "debe ser verdadero o falso"}
	}
}

// GlassRequest maps the flat record onto the glass pipeline input.
func (r Request) GlassRequest() (pricing.GlassRequest, error) {
	var (
		req pricing.GlassRequest
		err error
	)

	if req.Dimensions.WidthMM, err = parsePositiveFloat(r.value("width_mm"), "width_mm"); err != nil {
		return req, err
	}
	if req.Dimensions.HeightMM, err = parsePositiveFloat(r.value("height_mm"), "height_mm"); err != nil {
		return req, err
	}
	if req.Dimensions.Quantity, err = parseCount(r.value("quantity"), "quantity"); err != nil {
		return req, err
	}
	if req.Dimensions.Quantity == 0 {
		return req, &pricing.ValidationError{Field: "quantity", Reason: "debe ser mayor a 0"}
	}

	req.Spec = pricing.CatalogQuery{
		Provider:  r.value("provider"),
		Family:    r.value("family"),
		Thickness: r.value("thickness"),
		Color:     r.value("color"),
		TypeHint:  r.value("type"),
	}

	p := &req.Processes
	if p.EdgeFinishing, err = parseBool(r.value("edge_finishing"), "edge_finishing"); err != nil {
		return req, err
	}
	if p.PolishedCorners.Enabled, err = parseBool(r.value("polished_corners"), "polished_corners"); err != nil {
		return req, err
	}
	if p.PolishedCorners.Count, err = parseCount(r.value("polished_corners_count"), "polished_corners_count"); err != nil {
		return req, err
	}
	if p.Holes.Enabled, err = parseBool(r.value("holes"), "holes"); err != nil {
		return req, err
	}
	if p.Holes.Count, err = parseCount(r.value("holes_count"), "holes_count"); err != nil {
		return req, err
	}
	if p.Holes.DiameterMM, err = parseNonNegativeFloat(r.value("hole_diameter_mm"), "hole_diameter_mm"); err != nil {
		return req, err
	}
	if p.ApplyRuleOperations, err = parseBool(r.value("apply_rules"), "apply_rules"); err != nil {
		return req, err
	}
	return req, nil
}

// Selection maps the flat record onto the inputs declared by formula f.
// Range checks beyond syntax are left to the formula.
func (r Request) Selection(f pricing.Formula) (pricing.Selection, error) {
	sel := pricing.Selection{
		Dimensions: make(map[string]float64, len(f.Dimensions)),
		Options:    make(map[string]string),
		Counts:     make(map[string]int, len(f.FixedItems)),
		Flags:      make(map[string]bool, len(f.Surcharges)),
	}

	for _, d := range f.Dimensions {
		raw := r.value(d.Key)
		if raw == "" {
			continue
		}
		v, err := parseNumber(raw, d.Key)
		if err != nil {
			return sel, err
		}
		sel.Dimensions[d.Key] = v
	}

	optionKeys := append([]string{f.BaseOption}, f.FactorOptions...)
	optionKeys = append(optionKeys, f.PerUnitOptions...)
	if f.InstallationOption != "" {
		optionKeys = append(optionKeys, f.InstallationOption)
	}
	for _, k := range optionKeys {
		if v := r.value(k); v != "" {
			sel.Options[k] = v
		}
	}

	for _, it := range f.FixedItems {
		n, err := parseCount(r.value(it.Key), it.Key)
		if err != nil {
			return sel, err
		}
		if n > 0 {
			sel.Counts[it.Key] = n
		}
	}

	for _, s := range f.Surcharges {
		on, err := parseBool(r.value(s.Key), s.Key)
		if err != nil {
			return sel, err
		}
		if on {
			sel.Flags[s.Key] = true
		}
	}

	var err error
	if sel.Installation, err = parseBool(r.value("installation"), "installation"); err != nil {
		return sel, err
	}
	return sel, nil
}
