package config

import (
	"time"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Entrypoints   Entrypoints   `toml:"entrypoints"`
	Analysis      Analysis      `toml:"analysis"`
	Report        Report        `toml:"report"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
}

// Entrypoints selects the packages to analyze. Include and Exclude are glob
// patterns matched against package directories relative to each root.
type Entrypoints struct {
	Roots   []string `toml:"roots"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	// Formats restricts analysis to these bundle formats; empty means all.
	Formats []string `toml:"formats"`
}

type Analysis struct {
	Workers        int           `toml:"workers"`
	FollowExternal bool          `toml:"follow_external"`
	MaxFiles       int           `toml:"max_files"`
	BundleTimeout  time.Duration `toml:"bundle_timeout"`
	Typings        *bool         `toml:"typings"`
}

type Report struct {
	JSON        string        `toml:"json"`
	SQLite      string        `toml:"sqlite"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	KeepRuns    int           `toml:"keep_runs"`
}

type Watch struct {
	Debounce    time.Duration `toml:"debounce"`
	MinInterval time.Duration `toml:"min_interval"`
	Exclude     []string      `toml:"exclude"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

// TypingsEnabled reports whether .d.ts typings are mapped; on by default.
func (a Analysis) TypingsEnabled() bool {
	if a.Typings == nil {
		return true
	}
	return *a.Typings
}
