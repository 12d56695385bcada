package pricing

const (
	CategoryRailing          = "railing"
	CategoryCanopy           = "canopy"
	CategoryStair            = "stair"
	CategoryRetractableStair = "retractable_stair"
)

// LandingAllowanceM is the development length added per stair flight.
const LandingAllowanceM = 1.0

// DevelopmentLength is the effective linear length of a stair in metres.
func DevelopmentLength(stepCount, treadDepthMM, flights float64) float64 {
	return stepCount*treadDepthMM/1000 + flights*LandingAllowanceM
}

// DefaultFormulas returns the built-in category formulas keyed by category.
func DefaultFormulas() map[string]Formula {
	return map[string]Formula{
		CategoryRailing:          railingFormula(),
		CategoryCanopy:           canopyFormula(),
		CategoryStair:            stairFormula(),
		CategoryRetractableStair: retractableStairFormula(),
	}
}

func railingFormula() Formula {
	return Formula{
		Category: CategoryRailing,
		Label:    "Barandilla",
		Unit:     "ml",
		Dimensions: []DimensionSpec{
			{Key: "linear_meters", Required: true},
			{Key: "height_mm"},
		},
		Quantity:       func(d map[string]float64) float64 { return d["linear_meters"] },
		BaseOption:     "anchor",
		FactorOptions:  []string{"finish"},
		PerUnitOptions: []string{"handrail"},
		Bands: []Band{
			{Dimension: "height_mm", Label: "Suplemento altura", Baseline: 1100, Step: 100, Percent: 0.15},
		},
		FixedItems: []FixedItem{
			{Key: "corners", Label: "Esquinas", Unit: "ud"},
			{Key: "posts", Label: "Postes intermedios", Unit: "ud"},
		},
		Surcharges: []Surcharge{
			{Key: "exterior", Label: "Recargo exterior", Base: OverBase},
			{Key: "difficult_access", Label: "Recargo acceso difícil", Base: OverBaseAndFixed},
		},
	}
}

func canopyFormula() Formula {
	return Formula{
		Category: CategoryCanopy,
		Label:    "Marquesina",
		Unit:     "ml",
		Dimensions: []DimensionSpec{
			{Key: "width_mm", Required: true},
			{Key: "projection_mm", Required: true},
		},
		Quantity:      func(d map[string]float64) float64 { return d["width_mm"] / 1000 },
		BaseOption:    "profile",
		FactorOptions: []string{"finish"},
		Bands: []Band{
			{Dimension: "projection_mm", Label: "Suplemento vuelo", Baseline: 1000, Step: 100, Percent: 0.15},
		},
		FixedItems: []FixedItem{
			{Key: "brackets", Label: "Tirantes", Unit: "ud"},
			{Key: "gutter_outlets", Label: "Desagües", Unit: "ud"},
		},
		Surcharges: []Surcharge{
			{Key: "height_work", Label: "Recargo trabajo en altura", Base: OverBase},
			{Key: "difficult_access", Label: "Recargo acceso difícil", Base: OverBaseAndFixed},
		},
	}
}

func stairFormula() Formula {
	return Formula{
		Category: CategoryStair,
		Label:    "Escalera",
		Unit:     "ml",
		Dimensions: []DimensionSpec{
			{Key: "step_count", Required: true, Integer: true},
			{Key: "tread_depth_mm", Required: true},
			{Key: "flights", Integer: true},
			{Key: "width_mm"},
		},
		Quantity: func(d map[string]float64) float64 {
			return DevelopmentLength(d["step_count"], d["tread_depth_mm"], d["flights"])
		},
		BaseOption:     "material",
		FactorOptions:  []string{"finish"},
		PerUnitOptions: []string{"handrail"},
		Bands: []Band{
			{Dimension: "width_mm", Label: "Suplemento ancho", Baseline: 900, Step: 100, Percent: 0.15},
		},
		FixedItems: []FixedItem{
			{Key: "landings", Label: "Mesetas", Unit: "ud"},
			{Key: "fire_rated_doors", Label: "Puertas cortafuego", Unit: "ud"},
		},
		Surcharges: []Surcharge{
			{Key: "exterior", Label: "Recargo exterior", Base: OverBase},
			{Key: "difficult_access", Label: "Recargo acceso difícil", Base: OverBaseAndFixed},
		},
	}
}

func retractableStairFormula() Formula {
	return Formula{
		Category: CategoryRetractableStair,
		Label:    "Escalera escamoteable",
		Unit:     "ud",
		Dimensions: []DimensionSpec{
			{Key: "units", Required: true, Integer: true},
			{Key: "ceiling_height_mm", Required: true},
		},
		Quantity:      func(d map[string]float64) float64 { return d["units"] },
		BaseOption:    "model",
		FactorOptions: []string{"mechanism", "finish"},
		Bands: []Band{
			{Dimension: "ceiling_height_mm", Label: "Suplemento altura de techo", Baseline: 2800, Step: 100, Percent: 0.10},
		},
		FixedItems: []FixedItem{
			{Key: "fire_rated_hatches", Label: "Trampillas cortafuego", Unit: "ud"},
		},
		Surcharges: []Surcharge{
			{Key: "difficult_access", Label: "Recargo acceso difícil", Base: OverBaseAndFixed},
		},
		InstallationOption:  "mechanism",
		InstallationDefault: "manual",
	}
}
