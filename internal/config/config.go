package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultEnv      = "development"
	defaultCurrency = "EUR"

	envProduction = "production"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env      string
	Port     string
	DBPath   string
	LogLevel string
	Currency string

	// TablesPath points at a YAML file merged over the embedded coefficient tables.
	TablesPath string
	// StrictCatalog reports catalog lookups that match more than one entry.
	StrictCatalog bool
	SeedOnStart   bool
}

// Load reads .env from the working directory and then the environment.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv file. Variables already present in
// the environment are never overwritten and a missing file is not an error.
func LoadFrom(envFile string) Config {
	_ = godotenv.Load(envFile)

	env := strings.ToLower(getenv("APP_ENV", defaultEnv))
	return Config{
		Env:           env,
		Port:          getenv("PORT", defaultPort),
		DBPath:        getenv("DB_PATH", defaultDBPath),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Currency:      strings.ToUpper(getenv("CURRENCY", defaultCurrency)),
		TablesPath:    strings.TrimSpace(os.Getenv("PRICING_TABLES_PATH")),
		StrictCatalog: getenvBool("PRICING_STRICT_CATALOG", env != envProduction),
		SeedOnStart:   getenvBool("SEED_ON_START", true),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == envProduction
}

// Warnings lists settings that are allowed but probably unintended.
func (c Config) Warnings() []string {
	var out []string
	if !c.IsProduction() {
		return out
	}
	if c.DBPath == defaultDBPath {
		out = append(out, "DB_PATH is not set, using "+defaultDBPath)
	}
	if c.TablesPath == "" {
		out = append(out, "PRICING_TABLES_PATH is not set, using built-in coefficient tables")
	}
	if c.SeedOnStart {
		out = append(out, "SEED_ON_START is enabled in production")
	}
	return out
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
