package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/papapumpkin/linkrank/internal/centrality"
)

// resetViper clears all viper state between tests to avoid cross-contamination.
func resetViper() {
	viper.Reset()
}

func TestLoad_Defaults(t *testing.T) {
	resetViper()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Workers", cfg.Workers, 0},
		{"TopK", cfg.TopK, 5},
		{"Dedupe", cfg.Dedupe, false},
		{"DegreeDenominator", cfg.DegreeDenominator, "n"},
		{"SourceColumn", cfg.SourceColumn, "SOURCE_SUBREDDIT"},
		{"TargetColumn", cfg.TargetColumn, "TARGET_SUBREDDIT"},
		{"Delimiter", cfg.Delimiter, "\t"},
		{"Format", cfg.Format, "text"},
		{"TOMLOut", cfg.TOMLOut, ""},
		{"SQLiteOut", cfg.SQLiteOut, ""},
		{"TelemetryPath", cfg.TelemetryPath, ""},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		field  func(Config) any
		want   any
	}{
		{
			name:   "workers",
			envKey: "LINKRANK_WORKERS",
			envVal: "6",
			field:  func(c Config) any { return c.Workers },
			want:   6,
		},
		{
			name:   "top_k",
			envKey: "LINKRANK_TOP_K",
			envVal: "10",
			field:  func(c Config) any { return c.TopK },
			want:   10,
		},
		{
			name:   "dedupe",
			envKey: "LINKRANK_DEDUPE",
			envVal: "true",
			field:  func(c Config) any { return c.Dedupe },
			want:   true,
		},
		{
			name:   "degree_denominator",
			envKey: "LINKRANK_DEGREE_DENOMINATOR",
			envVal: "n-1",
			field:  func(c Config) any { return c.DegreeDenominator },
			want:   "n-1",
		},
		{
			name:   "delimiter",
			envKey: "LINKRANK_DELIMITER",
			envVal: ",",
			field:  func(c Config) any { return c.Delimiter },
			want:   ",",
		},
		{
			name:   "format",
			envKey: "LINKRANK_FORMAT",
			envVal: "json",
			field:  func(c Config) any { return c.Format },
			want:   "json",
		},
		{
			name:   "sqlite_out",
			envKey: "LINKRANK_SQLITE_OUT",
			envVal: "/tmp/scores.db",
			field:  func(c Config) any { return c.SQLiteOut },
			want:   "/tmp/scores.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper()
			viper.SetEnvPrefix("LINKRANK")
			viper.AutomaticEnv()
			t.Setenv(tt.envKey, tt.envVal)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			got := tt.field(cfg)
			if got != tt.want {
				t.Errorf("%s: got %v (%T), want %v (%T)", tt.name, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	resetViper()
	viper.Set("top_k", 0)

	_, err := Load()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() err = %v, want ErrInvalidConfig", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TopK:              5,
			DegreeDenominator: "n",
			SourceColumn:      "SRC",
			TargetColumn:      "DST",
			Delimiter:         "\t",
			Format:            "text",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"json format", func(c *Config) { c.Format = "json" }, true},
		{"multibyte delimiter", func(c *Config) { c.Delimiter = "§" }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, false},
		{"zero top_k", func(c *Config) { c.TopK = 0 }, false},
		{"unknown format", func(c *Config) { c.Format = "xml" }, false},
		{"unknown denominator", func(c *Config) { c.DegreeDenominator = "2n" }, false},
		{"empty delimiter", func(c *Config) { c.Delimiter = "" }, false},
		{"long delimiter", func(c *Config) { c.Delimiter = "::" }, false},
		{"empty source column", func(c *Config) { c.SourceColumn = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_DerivedOptions(t *testing.T) {
	t.Parallel()
	c := Config{
		Workers:           3,
		DegreeDenominator: "n-1",
		SourceColumn:      "from",
		TargetColumn:      "to",
		Delimiter:         ";",
	}

	po := c.ParserOptions()
	if po.SourceColumn != "from" || po.TargetColumn != "to" || po.Delimiter != ';' {
		t.Errorf("ParserOptions() = %+v", po)
	}
	co := c.CentralityOptions()
	if co.Workers != 3 || co.Denominator != centrality.DenominatorNMinus1 || co.Progress != nil {
		t.Errorf("CentralityOptions() = %+v", co)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LINKRANK_DOTENV_TEST=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LINKRANK_DOTENV_TEST", "")
	os.Unsetenv("LINKRANK_DOTENV_TEST")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LINKRANK_DOTENV_TEST"); got != "from-file" {
		t.Errorf("LINKRANK_DOTENV_TEST = %q, want from-file", got)
	}

	// Existing variables win over the file.
	t.Setenv("LINKRANK_DOTENV_TEST", "from-env")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LINKRANK_DOTENV_TEST"); got != "from-env" {
		t.Errorf("LINKRANK_DOTENV_TEST = %q, want from-env", got)
	}
}
