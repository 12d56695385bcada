package seed

import "github.com/Simplici0/cotizador/internal/refdata"

const (
	providerNorte = "Vidrios Norte"
	providerSur   = "Cristalería Sur"
)

func bound(v float64) *float64 { return &v }

// Demo returns a small price list with discounts, operations and rules for
// two providers. Coefficient tables are supplied by the caller.
func Demo(coefficients refdata.CoefficientTables) Data {
	return Data{
		Catalog: []refdata.CatalogEntry{
			{ID: "VN-TMP-6-INC", Provider: providerNorte, Family: "Templado", Name: "Templado incoloro 6mm", Type: "incoloro", ThicknessSpec: "6", Color: "Incoloro", Finish: "pulido", UnitPrice: 21.40, Active: true},
			{ID: "VN-TMP-8-INC", Provider: providerNorte, Family: "Templado", Name: "Templado incoloro 8mm", Type: "incoloro", ThicknessSpec: "8", Color: "Incoloro", Finish: "pulido", UnitPrice: 25.50, Active: true},
			{ID: "VN-TMP-10-INC", Provider: providerNorte, Family: "Templado", Name: "Templado incoloro 10mm", Type: "incoloro", ThicknessSpec: "10", Color: "Incoloro", Finish: "pulido", UnitPrice: 31.80, Active: true},
			{ID: "VN-TMP-8-EXT", Provider: providerNorte, Family: "Templado", Name: "Templado extraclaro 8mm", Type: "extraclaro", ThicknessSpec: "8", Color: "Extraclaro", Finish: "pulido", UnitPrice: 39.90, Active: true},
			{ID: "VN-LAM-44-INC", Provider: providerNorte, Family: "Laminado", Name: "Laminado 4+4 incoloro", Type: "incoloro", ThicknessSpec: "4+4", Color: "Incoloro", Interlayer: "PVB", UnitPrice: 41.00, Active: true},
			{ID: "VN-LAM-55-MAT", Provider: providerNorte, Family: "Laminado", Name: "Laminado 5+5 mate", Type: "mate", ThicknessSpec: "5+5", Color: "Incoloro", Finish: "mate", Interlayer: "PVB", UnitPrice: 56.30, Active: true},
			{ID: "VN-MON-4-INC", Provider: providerNorte, Family: "Monolítico", Name: "Float incoloro 4mm", Type: "incoloro", ThicknessSpec: "4", Color: "Incoloro", UnitPrice: 11.90, Active: true},
			{ID: "VN-MON-6-GRI", Provider: providerNorte, Family: "Monolítico", Name: "Float gris 6mm", Type: "color", ThicknessSpec: "6", Color: "Gris", UnitPrice: 18.20, Active: true},
			{ID: "VN-MON-6-BRO", Provider: providerNorte, Family: "Monolítico", Name: "Float bronce 6mm", Type: "color", ThicknessSpec: "6", Color: "Bronce", UnitPrice: 19.10, Active: false},
			{ID: "CS-TMP-8-INC", Provider: providerSur, Family: "Templado", Name: "Templado 8 incoloro", Type: "incoloro", ThicknessSpec: "8", Color: "Incoloro", UnitPrice: 24.10, Active: true},
			{ID: "CS-LAM-66-INC", Provider: providerSur, Family: "Laminado", Name: "Laminado 6+6 incoloro", Type: "incoloro", ThicknessSpec: "6+6", Color: "Incoloro", Interlayer: "SGP", UnitPrice: 72.00, Active: true},
		},
		Discounts: []refdata.DiscountRule{
			{Provider: providerNorte, FamilyPattern: "Templado", Percentage: 10},
			{Provider: providerNorte, FamilyPattern: "Laminado", Percentage: 5},
			{Provider: providerNorte, FamilyPattern: "", Percentage: 2},
			{Provider: providerSur, FamilyPattern: "Templado", Percentage: 7.5},
		},
		Operations: []refdata.Operation{
			{Code: "CANTO_PULIDO", Description: "Canto pulido", Unit: "ml", UnitPrice: 4.50, Active: true},
			{Code: "ESQUINA_PULIDA", Description: "Esquina pulida", Unit: "ud", UnitPrice: 1.80, Active: true},
			{Code: "TALADRO_12", Description: "Taladro hasta 12mm", Unit: "ud", UnitPrice: 2.00, Active: true},
			{Code: "TALADRO_25", Description: "Taladro hasta 25mm", Unit: "ud", UnitPrice: 3.50, Active: true},
			{Code: "TALADRO_50", Description: "Taladro hasta 50mm", Unit: "ud", UnitPrice: 6.00, Active: true},
			{Code: "TEMPLADO_CONTROL", Description: "Control de calidad de templado", Unit: "ud", UnitPrice: 3.00, Active: true},
			{Code: "BUTIRAL_SELLADO", Description: "Sellado de canto laminado", Unit: "ud", UnitPrice: 5.50, Active: true},
			{Code: "SERIGRAFIA", Description: "Serigrafía", Unit: "m2", UnitPrice: 30.00, Active: false},
		},
		Rules: []refdata.OperationRule{
			{ID: "R-TEMPLADO-GRUESO", OperationCode: "TEMPLADO_CONTROL", Qty: 1, CategoryPattern: "Templado", ThicknessMin: bound(10), Active: true},
			{ID: "R-LAMINADO-PVB", Provider: providerNorte, OperationCode: "BUTIRAL_SELLADO", Qty: 1, CategoryPattern: "Laminado", InterlayerPattern: "PVB", Active: true},
			{ID: "R-SERIGRAFIA-MATE", OperationCode: "SERIGRAFIA", Qty: 1, FinishPattern: "mate", Active: true},
		},
		Coefficients: coefficients,
	}
}
