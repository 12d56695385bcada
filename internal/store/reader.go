package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Simplici0/cotizador/internal/refdata"
)

// Reader serves pricing reference data from SQLite.
type Reader struct {
	db *sql.DB
}

var _ refdata.Reader = (*Reader)(nil)

func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

func (r *Reader) CatalogEntries(ctx context.Context, provider string, filter refdata.CatalogFilter) ([]refdata.CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, provider, family, name, type, thickness_spec, color, finish, interlayer, unit_price, active
		FROM catalog_entries
		WHERE provider = ? COLLATE NOCASE
			AND (? = '' OR family = ? COLLATE NOCASE)
			AND (? = 0 OR active = 1)
		ORDER BY position, id
	`, provider, filter.Family, filter.Family, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("query catalog entries: %w", err)
	}
	defer rows.Close()

	entries := make([]refdata.CatalogEntry, 0)
	for rows.Next() {
		var e refdata.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Provider, &e.Family, &e.Name, &e.Type, &e.ThicknessSpec,
			&e.Color, &e.Finish, &e.Interlayer, &e.UnitPrice, &e.Active); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}

func (r *Reader) DiscountRules(ctx context.Context, provider string) ([]refdata.DiscountRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider, family_pattern, percentage
		FROM discount_rules
		WHERE provider = ? COLLATE NOCASE
		ORDER BY id
	`, provider)
	if err != nil {
		return nil, fmt.Errorf("query discount rules: %w", err)
	}
	defer rows.Close()

	rules := make([]refdata.DiscountRule, 0)
	for rows.Next() {
		var d refdata.DiscountRule
		if err := rows.Scan(&d.Provider, &d.FamilyPattern, &d.Percentage); err != nil {
			return nil, fmt.Errorf("scan discount rule: %w", err)
		}
		rules = append(rules, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discount rules: %w", err)
	}
	return rules, nil
}

// OperationRules returns the provider's rules plus the rules with no provider.
func (r *Reader) OperationRules(ctx context.Context, provider string) ([]refdata.OperationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, provider, operation_code, qty, category_pattern, type_pattern,
			thickness_min, thickness_max, finish_pattern, interlayer_pattern, active
		FROM operation_rules
		WHERE provider = '' OR provider = ? COLLATE NOCASE
		ORDER BY position, id
	`, provider)
	if err != nil {
		return nil, fmt.Errorf("query operation rules: %w", err)
	}
	defer rows.Close()

	rules := make([]refdata.OperationRule, 0)
	for rows.Next() {
		var (
			rule   refdata.OperationRule
			lo, hi sql.NullFloat64
		)
		if err := rows.Scan(&rule.ID, &rule.Provider, &rule.OperationCode, &rule.Qty,
			&rule.CategoryPattern, &rule.TypePattern, &lo, &hi,
			&rule.FinishPattern, &rule.InterlayerPattern, &rule.Active); err != nil {
			return nil, fmt.Errorf("scan operation rule: %w", err)
		}
		rule.ThicknessMin = nullableFloat(lo)
		rule.ThicknessMax = nullableFloat(hi)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rules: %w", err)
	}
	return rules, nil
}

func (r *Reader) Operations(ctx context.Context, codes []string) ([]refdata.Operation, error) {
	ops := make([]refdata.Operation, 0, len(codes))
	if len(codes) == 0 {
		return ops, nil
	}

	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, description, unit, unit_price, active
		FROM operations
		WHERE code IN (`+placeholders+`)
		ORDER BY code
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op refdata.Operation
		if err := rows.Scan(&op.Code, &op.Description, &op.Unit, &op.UnitPrice, &op.Active); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}

func (r *Reader) Coefficients(ctx context.Context, category, optionKey string) ([]refdata.CoefficientEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, value
		FROM coefficients
		WHERE category = ? AND option_key = ?
		ORDER BY position, id
	`, category, optionKey)
	if err != nil {
		return nil, fmt.Errorf("query coefficients: %w", err)
	}
	defer rows.Close()

	entries := make([]refdata.CoefficientEntry, 0)
	for rows.Next() {
		var c refdata.CoefficientEntry
		if err := rows.Scan(&c.ID, &c.Label, &c.Value); err != nil {
			return nil, fmt.Errorf("scan coefficient: %w", err)
		}
		entries = append(entries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coefficients: %w", err)
	}
	return entries, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
