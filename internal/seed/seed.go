package seed

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/Simplici0/cotizador/internal/refdata"
)

// Data is the reference data written by Run.
type Data struct {
	Catalog      []refdata.CatalogEntry
	Discounts    []refdata.DiscountRule
	Operations   []refdata.Operation
	Rules        []refdata.OperationRule
	Coefficients refdata.CoefficientTables
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run writes data in one transaction. Catalog entries, discounts, operations
// and rules are inserted only when missing so edits made in the database
// survive restarts. Coefficients follow the configured tables and are updated
// when their label or value changed.
func Run(ctx context.Context, db *sql.DB, data Data) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	steps := []func(context.Context, *sql.Tx, Data, *Stats) error{
		ensureCatalog,
		ensureDiscounts,
		ensureOperations,
		ensureRules,
		syncCoefficients,
	}
	for _, step := range steps {
		if err := step(ctx, tx, data, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	return stats, nil
}

// SyncCoefficients writes the configured coefficient tables without touching
// the rest of the reference data.
func SyncCoefficients(ctx context.Context, db *sql.DB, tables refdata.CoefficientTables) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin coefficient sync: %w", err)
	}

	stats := Stats{}
	if err := syncCoefficients(ctx, tx, Data{Coefficients: tables}, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit coefficient sync: %w", err)
	}
	return stats, nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var ok bool
	err := tx.QueryRowContext(ctx, query, args...).Scan(&ok)
	return ok, err
}

func ensureCatalog(ctx context.Context, tx *sql.Tx, data Data, stats *Stats) error {
	for i, e := range data.Catalog {
		found, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM catalog_entries WHERE id = ?)`, e.ID)
		if err != nil {
			return fmt.Errorf("check catalog entry %s existence: %w", e.ID, err)
		}
		if found {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_entries (id, provider, family, name, type, thickness_spec, color, finish, interlayer, unit_price, active, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.Provider, e.Family, e.Name, e.Type, e.ThicknessSpec, e.Color, e.Finish, e.Interlayer, e.UnitPrice, e.Active, i); err != nil {
			return fmt.Errorf("insert catalog entry %s: %w", e.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureDiscounts(ctx context.Context, tx *sql.Tx, data Data, stats *Stats) error {
	for _, d := range data.Discounts {
		found, err := exists(ctx, tx, `
			SELECT EXISTS(SELECT 1 FROM discount_rules WHERE provider = ? AND family_pattern = ?)
		`, d.Provider, d.FamilyPattern)
		if err != nil {
			return fmt.Errorf("check discount rule existence: %w", err)
		}
		if found {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO discount_rules (provider, family_pattern, percentage) VALUES (?, ?, ?)
		`, d.Provider, d.FamilyPattern, d.Percentage); err != nil {
			return fmt.Errorf("insert discount rule %s/%s: %w", d.Provider, d.FamilyPattern, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureOperations(ctx context.Context, tx *sql.Tx, data Data, stats *Stats) error {
	for _, op := range data.Operations {
		found, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM operations WHERE code = ?)`, op.Code)
		if err != nil {
			return fmt.Errorf("check operation %s existence: %w", op.Code, err)
		}
		if found {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO operations (code, description, unit, unit_price, active) VALUES (?, ?, ?, ?, ?)
		`, op.Code, op.Description, op.Unit, op.UnitPrice, op.Active); err != nil {
			return fmt.Errorf("insert operation %s: %w", op.Code, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureRules(ctx context.Context, tx *sql.Tx, data Data, stats *Stats) error {
	for i, r := range data.Rules {
		found, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM operation_rules WHERE id = ?)`, r.ID)
		if err != nil {
			return fmt.Errorf("check operation rule %s existence: %w", r.ID, err)
		}
		if found {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO operation_rules (
				id, provider, operation_code, qty, category_pattern, type_pattern,
				thickness_min, thickness_max, finish_pattern, interlayer_pattern, active, position
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.Provider, r.OperationCode, r.Qty, r.CategoryPattern, r.TypePattern,
			r.ThicknessMin, r.ThicknessMax, r.FinishPattern, r.InterlayerPattern, r.Active, i); err != nil {
			return fmt.Errorf("insert operation rule %s: %w", r.ID, err)
		}
		stats.Inserts++
	}
	return nil
}

func syncCoefficients(ctx context.Context, tx *sql.Tx, data Data, stats *Stats) error {
	categories := make([]string, 0, len(data.Coefficients))
	for c := range data.Coefficients {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		options := data.Coefficients[category]
		keys := make([]string, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			for pos, c := range options[key] {
				if err := syncCoefficient(ctx, tx, category, key, pos, c, stats); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func syncCoefficient(ctx context.Context, tx *sql.Tx, category, key string, pos int, c refdata.CoefficientEntry, stats *Stats) error {
	var (
		label string
		value float64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT label, value FROM coefficients WHERE category = ? AND option_key = ? AND id = ?
	`, category, key, c.ID).Scan(&label, &value)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO coefficients (category, option_key, id, label, value, position) VALUES (?, ?, ?, ?, ?, ?)
		`, category, key, c.ID, c.Label, c.Value, pos); err != nil {
			return fmt.Errorf("insert coefficient %s/%s/%s: %w", category, key, c.ID, err)
		}
		stats.Inserts++
	case err != nil:
		return fmt.Errorf("read coefficient %s/%s/%s: %w", category, key, c.ID, err)
	case label != c.Label || value != c.Value:
		if _, err := tx.ExecContext(ctx, `
			UPDATE coefficients SET label = ?, value = ?, position = ? WHERE category = ? AND option_key = ? AND id = ?
		`, c.Label, c.Value, pos, category, key, c.ID); err != nil {
			return fmt.Errorf("update coefficient %s/%s/%s: %w", category, key, c.ID, err)
		}
		stats.Updates++
	}
	return nil
}
