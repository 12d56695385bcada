// Package tables loads the category coefficient tables and glass process codes
// from YAML. The built-in defaults are embedded; a file on disk may override
// any table.
package tables

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Simplici0/cotizador/internal/pricing"
	"github.com/Simplici0/cotizador/internal/refdata"
)

//go:embed defaults.yml
var defaultsYAML []byte

// Tables is the configuration-backed pricing data.
type Tables struct {
	Coefficients refdata.CoefficientTables
	Processes    pricing.ProcessCodes
}

// Load reads the embedded defaults and, when path is not empty, merges the
// file at path over them.
func Load(path string) (Tables, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return Tables{}, fmt.Errorf("read default pricing tables: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Tables{}, fmt.Errorf("merge pricing tables %s: %w", path, err)
		}
	}

	var t Tables
	if err := v.UnmarshalKey("pricing.coefficients", &t.Coefficients); err != nil {
		return Tables{}, fmt.Errorf("decode coefficients: %w", err)
	}
	if err := v.UnmarshalKey("pricing.processes", &t.Processes); err != nil {
		return Tables{}, fmt.Errorf("decode processes: %w", err)
	}
	if err := Validate(t, pricing.DefaultFormulas()); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// Validate checks that every formula has a base table and that values are
// usable.
func Validate(t Tables, formulas map[string]pricing.Formula) error {
	if t.Processes.EdgeFinishing == "" || t.Processes.PolishedCorner == "" {
		return errors.New("processes.edge_finishing and processes.polished_corner are required")
	}
	if len(t.Processes.HoleTiers) == 0 {
		return errors.New("processes.hole_tiers cannot be empty")
	}
	for i := 1; i < len(t.Processes.HoleTiers); i++ {
		if t.Processes.HoleTiers[i].MaxDiameterMM <= t.Processes.HoleTiers[i-1].MaxDiameterMM {
			return errors.New("processes.hole_tiers must be sorted by max_diameter_mm")
		}
	}

	for category, f := range formulas {
		if len(t.Coefficients.Lookup(category, f.BaseOption)) == 0 {
			return fmt.Errorf("coefficients.%s.%s cannot be empty", category, f.BaseOption)
		}
	}
	for category, options := range t.Coefficients {
		for key, entries := range options {
			seen := make(map[string]bool, len(entries))
			for _, e := range entries {
				if e.ID == "" {
					return fmt.Errorf("coefficients.%s.%s: entry without id", category, key)
				}
				if seen[e.ID] {
					return fmt.Errorf("coefficients.%s.%s: duplicate id %q", category, key, e.ID)
				}
				seen[e.ID] = true
				if e.Value < 0 {
					return fmt.Errorf("coefficients.%s.%s.%s: value must be >= 0", category, key, e.ID)
				}
				if key == pricing.TableSurcharge && e.Value > 1 {
					return fmt.Errorf("coefficients.%s.%s.%s: surcharge is a fraction between 0 and 1", category, key, e.ID)
				}
			}
		}
	}
	return nil
}
