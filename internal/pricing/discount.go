package pricing

import (
	"context"
	"fmt"

	"github.com/Simplici0/cotizador/internal/refdata"
)

// SelectDiscount returns the percentage of the first rule whose family pattern
// is contained in family, or 0 when none applies.
func SelectDiscount(rules []refdata.DiscountRule, family string) (float64, error) {
	for _, r := range rules {
		if !containsFold(family, r.FamilyPattern) {
			continue
		}
		if r.Percentage < 0 || r.Percentage > 100 {
			return 0, dependency("discount rules", fmt.Errorf("percentage %.2f out of range for %q", r.Percentage, r.FamilyPattern))
		}
		return r.Percentage, nil
	}
	return 0, nil
}

// ResolveDiscount looks up the discount percentage for a provider family.
func (e *Engine) ResolveDiscount(ctx context.Context, provider, family string) (float64, error) {
	rules, err := e.ref.DiscountRules(ctx, provider)
	if err != nil {
		return 0, dependency("discount rules", err)
	}
	return SelectDiscount(rules, family)
}

// NetUnitPrice applies a percentage discount to a list price.
func NetUnitPrice(listPrice, discountPct float64) float64 {
	return listPrice * (1 - discountPct/100)
}
