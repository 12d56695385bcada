package pricing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/cotizador/internal/matcher"
	"github.com/Simplici0/cotizador/internal/refdata"
)

// CatalogQuery is a requested glass specification.
type CatalogQuery struct {
	Provider  string `json:"provider"`
	Family    string `json:"family"`
	Thickness string `json:"thickness"`
	Color     string `json:"color"`
	TypeHint  string `json:"type_hint,omitempty"`
}

func (q CatalogQuery) attrs() []Attr {
	attrs := []Attr{
		{Name: "provider", Value: q.Provider},
		{Name: "family", Value: q.Family},
		{Name: "thickness", Value: q.Thickness},
		{Name: "color", Value: q.Color},
	}
	if q.TypeHint != "" {
		attrs = append(attrs, Attr{Name: "type", Value: q.TypeHint})
	}
	return attrs
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

// FilterCatalog returns, in source order, the active entries satisfying q.
func FilterCatalog(entries []refdata.CatalogEntry, q CatalogQuery) []refdata.CatalogEntry {
	requested, ok := ParseThickness(q.Thickness)
	if !ok {
		return nil
	}
	return matcher.Filter(entries, matcher.All[refdata.CatalogEntry](
		func(e refdata.CatalogEntry) bool { return e.Active },
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Provider }, q.Provider),
		matcher.Field(func(e refdata.CatalogEntry) string { return e.Family }, q.Family),
		func(e refdata.CatalogEntry) bool { return sameThickness(requested, e.ThicknessSpec) },
		func(e refdata.CatalogEntry) bool { return containsFold(e.Color, q.Color) },
		func(e refdata.CatalogEntry) bool {
			if strings.TrimSpace(q.TypeHint) == "" {
				return true
			}
			return containsFold(e.Name, q.TypeHint) || containsFold(e.Type, q.TypeHint)
		},
	))
}

// SelectCatalogEntry returns the first entry matching q and the number of
// candidates that matched. Price lists are expected to hold one row per exact
// specification; the first row wins when they do not.
func SelectCatalogEntry(entries []refdata.CatalogEntry, q CatalogQuery) (refdata.CatalogEntry, int, error) {
	matches := FilterCatalog(entries, q)
	if len(matches) == 0 {
		return refdata.CatalogEntry{}, 0, &NotFoundError{Lookup: "vidrio en catálogo", Attributes: q.attrs()}
	}
	return matches[0], len(matches), nil
}

// ResolveCatalogEntry loads the provider's active price list and selects the
// entry for q.
func (e *Engine) ResolveCatalogEntry(ctx context.Context, q CatalogQuery) (refdata.CatalogEntry, error) {
	entries, err := e.ref.CatalogEntries(ctx, q.Provider, refdata.CatalogFilter{ActiveOnly: true})
	if err != nil {
		return refdata.CatalogEntry{}, dependency("catalog entries", err)
	}
	return e.selectCatalogEntry(entries, q)
}

func (e *Engine) selectCatalogEntry(entries []refdata.CatalogEntry, q CatalogQuery) (refdata.CatalogEntry, error) {
	entry, count, err := SelectCatalogEntry(entries, q)
	if err != nil {
		return refdata.CatalogEntry{}, err
	}
	if count > 1 && e.strict {
		e.log.Warn("multiple catalog matches, using first",
			zap.String("provider", q.Provider),
			zap.String("family", q.Family),
			zap.String("thickness", q.Thickness),
			zap.String("color", q.Color),
			zap.Int("count", count),
			zap.String("selected_id", entry.ID),
		)
		e.observer.CatalogMultipleMatches(q.Provider, count)
	}
	return entry, nil
}
