// Package config loads salesboard settings from defaults, an optional YAML
// file, the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment override. A double underscore
	// separates nesting levels: SALESBOARD_DATABASE__MAX_CONNS.
	EnvPrefix = "SALESBOARD_"
	// EnvConfigFile names the environment variable holding the YAML path.
	EnvConfigFile = "SALESBOARD_CONFIG"
)

// Source kinds.
const (
	SourcePostgres = "postgres"
	SourceCSV      = "csv"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Source   SourceConfig   `koanf:"source"`
	Cache    CacheConfig    `koanf:"cache"`
	HTTP     HTTPConfig     `koanf:"http"`
}

type AppConfig struct {
	Env  string `koanf:"env"`
	Port int    `koanf:"port"`
}

// IsDevelopment reports whether the app runs in development mode.
func (a AppConfig) IsDevelopment() bool { return a.Env == "development" }

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console; empty follows app.env
}

type DatabaseConfig struct {
	URL       string        `koanf:"url"`
	MaxConns  int32         `koanf:"max_conns"`
	MinConns  int32         `koanf:"min_conns"`
	SlowQuery time.Duration `koanf:"slow_query"` // 0 disables slow query logging
}

// SourceConfig selects where transactions are loaded from.
type SourceConfig struct {
	Kind    string `koanf:"kind"`
	CSVPath string `koanf:"csv_path"`
	Table   string `koanf:"table"`
}

type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	Compression  bool          `koanf:"compression"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.env":             "development",
		"app.port":            8080,
		"log.level":           "info",
		"database.max_conns":  10,
		"database.min_conns":  2,
		"database.slow_query": "1s",
		"source.kind":         SourcePostgres,
		"source.table":        "sales_transactions",
		"cache.enabled":       true,
		"cache.ttl":           "5m",
		"cache.max_entries":   256,
		"http.read_timeout":   "15s",
		"http.write_timeout":  "30s",
		"http.compression":    true,
	}
}

// Load builds a Config. path overrides SALESBOARD_CONFIG when not empty.
// Only flags that were explicitly set on flags are applied; their names map
// to keys by replacing '-' with '_' inside a section ("source.csv-path").
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps SALESBOARD_DATABASE__MAX_CONNS to database.max_conns.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourcePostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url is required when source.kind is postgres")
		}
		if c.Source.Table == "" {
			return errors.New("config: source.table must not be empty")
		}
	case SourceCSV:
		if c.Source.CSVPath == "" {
			return errors.New("config: source.csv_path is required when source.kind is csv")
		}
	default:
		return fmt.Errorf("config: unknown source.kind %q", c.Source.Kind)
	}

	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("config: app.port %d out of range", c.App.Port)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.New("config: database.min_conns exceeds database.max_conns")
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return errors.New("config: cache.ttl must be positive when the cache is enabled")
	}
	if c.Cache.MaxEntries < 0 {
		return errors.New("config: cache.max_entries must not be negative")
	}
	return nil
}
