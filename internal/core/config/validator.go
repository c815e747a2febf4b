package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

var knownFormats = map[string]bool{
	"esm2015":  true,
	"esm5":     true,
	"commonjs": true,
	"umd":      true,
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateEntrypoints(cfg *Config) error {
	for i, root := range cfg.Entrypoints.Roots {
		if strings.TrimSpace(root) == "" {
			return fmt.Errorf("entrypoints.roots[%d] must not be empty", i)
		}
	}
	if err := validateGlobs("entrypoints.include", cfg.Entrypoints.Include); err != nil {
		return err
	}
	if err := validateGlobs("entrypoints.exclude", cfg.Entrypoints.Exclude); err != nil {
		return err
	}
	for _, f := range cfg.Entrypoints.Formats {
		if !knownFormats[f] {
			return fmt.Errorf("entrypoints.formats contains unknown format %q", f)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be >= 1, got %d", cfg.Analysis.Workers)
	}
	if cfg.Analysis.MaxFiles < 1 {
		return fmt.Errorf("analysis.max_files must be >= 1, got %d", cfg.Analysis.MaxFiles)
	}
	if cfg.Analysis.BundleTimeout < time.Second {
		return fmt.Errorf("analysis.bundle_timeout must be at least 1s, got %s", cfg.Analysis.BundleTimeout)
	}
	return nil
}

func validateReport(cfg *Config) error {
	if cfg.Report.BusyTimeout < 0 {
		return fmt.Errorf("report.busy_timeout must not be negative")
	}
	if cfg.Report.KeepRuns < 1 {
		return fmt.Errorf("report.keep_runs must be >= 1, got %d", cfg.Report.KeepRuns)
	}
	if cfg.Report.JSON != "" && cfg.Report.JSON == cfg.Report.SQLite {
		return fmt.Errorf("report.json and report.sqlite must not point at the same file")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if cfg.Watch.MinInterval < 0 {
		return fmt.Errorf("watch.min_interval must not be negative")
	}
	return validateGlobs("watch.exclude", cfg.Watch.Exclude)
}

func validateObservability(cfg *Config) error {
	if addr := cfg.Observability.MetricsAddr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	return nil
}

func validateGlobs(field string, patterns []string) error {
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s[%d] must not be empty", field, i)
		}
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("%s[%d] %q: %w", field, i, p, err)
		}
	}
	return nil
}

// Validate runs every section check and collects the failures.
func Validate(cfg *Config) []error {
	checks := []func(*Config) error{
		validateVersion,
		validateEntrypoints,
		validateAnalysis,
		validateReport,
		validateWatch,
		validateObservability,
	}
	var errs []error
	for _, check := range checks {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
