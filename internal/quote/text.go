package quote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Simplici0/cotizador/internal/store"
)

// RenderText formats a stored quote as a plain-text summary suitable for
// pasting into an email or chat.
func RenderText(q store.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cotización: %s\n", q.Title)
	fmt.Fprintf(&b, "Categoría: %s\n", q.Category)
	if !q.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Fecha: %s\n", q.CreatedAt.Format("2006-01-02 15:04"))
	}
	if q.Notes != "" {
		fmt.Fprintf(&b, "Notas: %s\n", q.Notes)
	}

	b.WriteString("\nDetalle:\n")
	for _, it := range q.Breakdown.Items {
		fmt.Fprintf(&b, "- %s: %s %s x %.2f = %.2f %s\n",
			it.Label, formatQty(it.Quantity), it.Unit, it.UnitPrice, it.Subtotal, q.Currency)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %.2f %s\n", q.Totals.Subtotal, q.Currency)
	fmt.Fprintf(&b, "IVA (%g%%): %.2f %s\n", q.Totals.TaxRate*100, q.Totals.TaxAmount, q.Currency)
	fmt.Fprintf(&b, "Total: %.2f %s\n", q.Totals.Total, q.Currency)

	var values map[string]string
	if err := json.Unmarshal(q.Request, &values); err == nil && len(values) > 0 {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\nDatos de la solicitud:\n")
		for _, k := range keys {
			if values[k] == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", k, values[k])
		}
	}
	return b.String()
}

func formatQty(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
