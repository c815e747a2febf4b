package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NGREFLECT_[SECTION]_[KEY] (e.g., NGREFLECT_ANALYSIS_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "NGREFLECT_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "NGREFLECT_PATHS_STATE_DIR")

	// Entrypoints
	setEnvList(&cfg.Entrypoints.Roots, "NGREFLECT_ENTRYPOINTS_ROOTS")
	setEnvList(&cfg.Entrypoints.Formats, "NGREFLECT_ENTRYPOINTS_FORMATS")

	// Analysis
	setEnvInt(&cfg.Analysis.Workers, "NGREFLECT_ANALYSIS_WORKERS")
	setEnvBool(&cfg.Analysis.FollowExternal, "NGREFLECT_ANALYSIS_FOLLOW_EXTERNAL")
	setEnvInt(&cfg.Analysis.MaxFiles, "NGREFLECT_ANALYSIS_MAX_FILES")
	setEnvDuration(&cfg.Analysis.BundleTimeout, "NGREFLECT_ANALYSIS_BUNDLE_TIMEOUT")

	// Report
	setEnvString(&cfg.Report.JSON, "NGREFLECT_REPORT_JSON")
	setEnvString(&cfg.Report.SQLite, "NGREFLECT_REPORT_SQLITE")
	setEnvDuration(&cfg.Report.BusyTimeout, "NGREFLECT_REPORT_BUSY_TIMEOUT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "NGREFLECT_WATCH_DEBOUNCE")
	setEnvDuration(&cfg.Watch.MinInterval, "NGREFLECT_WATCH_MIN_INTERVAL")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "NGREFLECT_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "NGREFLECT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvString(&cfg.Observability.ServiceName, "NGREFLECT_OBSERVABILITY_SERVICE_NAME")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		slog.Debug("applying env override", "key", key, "value", val)
		*target = out
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
