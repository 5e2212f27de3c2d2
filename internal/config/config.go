package config

import (
	"errors"
	"fmt"
	"io/fs"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/centrality"
	"github.com/papapumpkin/linkrank/internal/edgelist"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all runtime configuration for a linkrank run.
// Values are populated from .linkrank.yaml, LINKRANK_* env vars, and CLI flags.
type Config struct {
	Workers           int    `mapstructure:"workers"`
	TopK              int    `mapstructure:"top_k"`
	Dedupe            bool   `mapstructure:"dedupe"`
	DegreeDenominator string `mapstructure:"degree_denominator"`
	SourceColumn      string `mapstructure:"source_column"`
	TargetColumn      string `mapstructure:"target_column"`
	Delimiter         string `mapstructure:"delimiter"`
	Format            string `mapstructure:"format"`
	TOMLOut           string `mapstructure:"toml_out"`
	SQLiteOut         string `mapstructure:"sqlite_out"`
	TelemetryPath     string `mapstructure:"telemetry_path"`
	Verbose           bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. The result is
// validated.
func Load() (Config, error) {
	viper.SetDefault("workers", 0)
	viper.SetDefault("top_k", 5)
	viper.SetDefault("dedupe", false)
	viper.SetDefault("degree_denominator", string(centrality.DenominatorN))
	viper.SetDefault("source_column", edgelist.DefaultSourceColumn)
	viper.SetDefault("target_column", edgelist.DefaultTargetColumn)
	viper.SetDefault("delimiter", "\t")
	viper.SetDefault("format", "text")
	viper.SetDefault("toml_out", "")
	viper.SetDefault("sqlite_out", "")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if _, err := centrality.ParseDenominator(c.DegreeDenominator); err != nil {
		return fmt.Errorf("%w: degree_denominator: %v", ErrInvalidConfig, err)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: format must be text or json, got %q", ErrInvalidConfig, c.Format)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be a single character, got %q", ErrInvalidConfig, c.Delimiter)
	}
	if c.SourceColumn == "" || c.TargetColumn == "" {
		return fmt.Errorf("%w: source_column and target_column must be set", ErrInvalidConfig)
	}
	return nil
}

// ParserOptions returns the edge-list reader options for c.
func (c Config) ParserOptions() edgelist.Options {
	d, _ := utf8.DecodeRuneInString(c.Delimiter)
	return edgelist.Options{
		SourceColumn: c.SourceColumn,
		TargetColumn: c.TargetColumn,
		Delimiter:    d,
	}
}

// CentralityOptions returns the scheduler options for c, without a progress
// hook.
func (c Config) CentralityOptions() centrality.Options {
	return centrality.Options{
		Workers:     c.Workers,
		Denominator: centrality.Denominator(c.DegreeDenominator),
	}
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
