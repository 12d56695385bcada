package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// VATRate is the value-added tax applied to every quote breakdown.
const VATRate = 0.21

// LineItem is one priced row of a breakdown.
type LineItem struct {
	Label     string  `json:"label"`
	Quantity  float64 `json:"quantity"`
	Unit      string  `json:"unit"`
	UnitPrice float64 `json:"unit_price"`
	Subtotal  float64 `json:"subtotal"`
}

// QuoteBreakdown is the itemized, tax-inclusive result of one calculation.
type QuoteBreakdown struct {
	Category  string     `json:"category"`
	Items     []LineItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	TaxRate   float64    `json:"tax_rate"`
	TaxAmount float64    `json:"tax_amount"`
	Total     float64    `json:"total"`
}

// NewLineItem builds a row whose subtotal is quantity * unitPrice rounded to cents.
func NewLineItem(label string, quantity float64, unit string, unitPrice float64) LineItem {
	return LineItem{
		Label:     label,
		Quantity:  quantity,
		Unit:      unit,
		UnitPrice: unitPrice,
		Subtotal:  roundMoney(quantity * unitPrice),
	}
}

// amountItem builds a row for an already computed amount (surcharges).
func amountItem(label, unit string, amount float64) LineItem {
	return LineItem{
		Label:     label,
		Quantity:  1,
		Unit:      unit,
		UnitPrice: roundMoney(amount),
		Subtotal:  roundMoney(amount),
	}
}

// BuildBreakdown derives subtotal, tax and total from items. The result is
// always computed from scratch so its totals agree with its rows.
func BuildBreakdown(category string, items []LineItem, taxRate float64) QuoteBreakdown {
	rows := make([]LineItem, len(items))
	copy(rows, items)

	subtotal := decimal.Zero
	for _, it := range rows {
		subtotal = subtotal.Add(decimal.NewFromFloat(it.Subtotal).Round(2))
	}
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate)).Round(2)
	total := subtotal.Add(tax)

	return QuoteBreakdown{
		Category:  category,
		Items:     rows,
		Subtotal:  subtotal.InexactFloat64(),
		TaxRate:   taxRate,
		TaxAmount: tax.InexactFloat64(),
		Total:     total.InexactFloat64(),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// checkAmounts rejects rows whose amounts overflowed. BuildBreakdown needs
// finite subtotals.
func checkAmounts(items []LineItem) error {
	for _, it := range items {
		if !isFinite(it.Quantity) || !isFinite(it.UnitPrice) || !isFinite(it.Subtotal) {
			return invalid("dimensions", "producen un importe fuera de rango")
		}
	}
	return nil
}

func roundMoney(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
