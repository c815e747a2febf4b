package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultFile = "ngreflect.toml"
	ExampleFile = "ngreflect.example.toml"
)

// Load reads a TOML file, fills in defaults, applies NGREFLECT_* overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes configuration text the same way Load does.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)
	normalize(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}

	if len(cfg.Entrypoints.Roots) == 0 {
		cfg.Entrypoints.Roots = []string{"node_modules"}
	}
	if len(cfg.Entrypoints.Include) == 0 {
		cfg.Entrypoints.Include = []string{"**"}
	}

	if cfg.Analysis.Workers <= 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if cfg.Analysis.MaxFiles <= 0 {
		cfg.Analysis.MaxFiles = 5000
	}
	if cfg.Analysis.BundleTimeout <= 0 {
		cfg.Analysis.BundleTimeout = 2 * time.Minute
	}

	if cfg.Report.BusyTimeout <= 0 {
		cfg.Report.BusyTimeout = 5 * time.Second
	}
	if cfg.Report.KeepRuns <= 0 {
		cfg.Report.KeepRuns = 50
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MinInterval == 0 {
		cfg.Watch.MinInterval = 2 * time.Second
	}

	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "ngreflect"
	}
}

func normalize(cfg *Config) {
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Report.JSON = strings.TrimSpace(cfg.Report.JSON)
	cfg.Report.SQLite = strings.TrimSpace(cfg.Report.SQLite)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	formats := make([]string, 0, len(cfg.Entrypoints.Formats))
	for _, f := range cfg.Entrypoints.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			formats = append(formats, f)
		}
	}
	cfg.Entrypoints.Formats = formats
}
