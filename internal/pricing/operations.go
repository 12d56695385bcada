package pricing

import (
	"context"

	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/matcher"
	"github.com/Simplici0/cotizador/internal/refdata"
)

// OperationLine is one priced extra operation.
type OperationLine struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
	Qty         float64 `json:"qty"`
	LineTotal   float64 `json:"line_total"`
}

func newOperationLine(op refdata.Operation, qty float64) OperationLine {
	return OperationLine{
		Code:        op.Code,
		Description: op.Description,
		Unit:        op.Unit,
		UnitPrice:   op.UnitPrice,
		Qty:         qty,
		LineTotal:   op.UnitPrice * qty,
	}
}

// RulePredicate builds the predicate of an operation rule over catalog entries.
// The rule's category pattern is matched against the entry family.
func RulePredicate(r refdata.OperationRule) matcher.Predicate[refdata.CatalogEntry] {
	preds := []matcher.Predicate[refdata.CatalogEntry]{
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Family }, r.CategoryPattern),
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Type }, r.TypePattern),
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Finish }, r.FinishPattern),
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Interlayer }, r.InterlayerPattern),
	}
	if r.ThicknessMin != nil || r.ThicknessMax != nil {
		preds = append(preds, func(e refdata.CatalogEntry) bool {
			t, ok := ParseThickness(e.ThicknessSpec)
			return ok && matcher.InRange(t.Total(), r.ThicknessMin, r.ThicknessMax)
		})
	}
	return matcher.All(preds...)
}

// MatchRules returns every active rule applying to entry, in rule order.
func MatchRules(rules []refdata.OperationRule, entry refdata.CatalogEntry) []refdata.OperationRule {
	out := make([]refdata.OperationRule, 0)
	for _, r := range rules {
		if r.Active && RulePredicate(r)(entry) {
			out = append(out, r)
		}
	}
	return out
}

// PriceRules joins matched rules to their operations. Rules whose operation
// is missing from ops or inactive are dropped and returned as skipped codes.
func PriceRules(matched []refdata.OperationRule, ops []refdata.Operation) (lines []OperationLine, skipped []string) {
	byCode := indexOperations(ops)
	lines = make([]OperationLine, 0, len(matched))
	for _, r := range matched {
		op, ok := byCode[r.OperationCode]
		if !ok {
			skipped = append(skipped, r.OperationCode)
			continue
		}
		lines = append(lines, newOperationLine(op, r.Qty))
	}
	return lines, skipped
}

func indexOperations(ops []refdata.Operation) map[string]refdata.Operation {
	byCode := make(map[string]refdata.Operation, len(ops))
	for _, op := range ops {
		if !op.Active {
			continue
		}
		if _, dup := byCode[op.Code]; !dup {
			byCode[op.Code] = op
		}
	}
	return byCode
}

// MatchOperations selects and prices the extra operations that apply to a
// resolved catalog entry. An empty result is not an error.
func (e *Engine) MatchOperations(ctx context.Context, entry refdata.CatalogEntry) ([]OperationLine, error) {
	rules, err := e.ref.OperationRules(ctx, entry.Provider)
	if err != nil {
		return nil, dependency("operation rules", err)
	}

	matched := MatchRules(rules, entry)
	if len(matched) == 0 {
		return []OperationLine{}, nil
	}

	codes := make([]string, 0, len(matched))
	for _, r := range matched {
		codes = append(codes, r.OperationCode)
	}
	ops, err := e.ref.Operations(ctx, uniqueStrings(codes))
	if err != nil {
		return nil, dependency("operations", err)
	}

	lines, skipped := PriceRules(matched, ops)
	if len(skipped) > 0 {
		e.log.Debug("operation rules without active price skipped",
			zap.String("catalog_id", entry.ID),
			zap.Strings("codes", skipped),
		)
	}
	return lines, nil
}

// operationPrices fetches the active operations for codes keyed by code.
func (e *Engine) operationPrices(ctx context.Context, codes []string) (map[string]refdata.Operation, error) {
	ops, err := e.ref.Operations(ctx, uniqueStrings(codes))
	if err != nil {
		return nil, dependency("operations", err)
	}
	return indexOperations(ops), nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
