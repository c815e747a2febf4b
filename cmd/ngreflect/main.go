// # cmd/ngreflect/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ngreflect/internal/core/app"
	"ngreflect/internal/core/config"
	"ngreflect/internal/data/report"
	"ngreflect/internal/shared/observability"
)

var (
	configPath = flag.String("config", config.DefaultFile, "Path to config file")
	watch      = flag.Bool("watch", false, "Re-run the analysis when bundle files change")
	jsonOut    = flag.String("json", "", "Write the JSON report to this path")
	sqliteOut  = flag.String("sqlite", "", "Record runs in this SQLite database")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "0.3.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("ngreflect v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.Entrypoints.Roots = flag.Args()
	}
	if *jsonOut != "" {
		cfg.Report.JSON = *jsonOut
	}
	if *sqliteOut != "" {
		cfg.Report.SQLite = *sqliteOut
	}

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to read working directory", "error", err)
		os.Exit(1)
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, paths, logger); err != nil {
		slog.Error("ngreflect failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig falls back to the example file, then to built-in defaults,
// when the default config file is absent.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil || path != config.DefaultFile || !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg, err = config.Load(config.ExampleFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func run(ctx context.Context, cfg *config.Config, paths config.ResolvedPaths, logger *slog.Logger) error {
	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		go func() {
			if err := observability.ServeMetrics(ctx, addr); err != nil {
				logger.Error("metrics server stopped", "addr", addr, "error", err)
			}
		}()
	}

	a, err := app.New(cfg, paths, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.SetUpdateHandler(func(r *report.Run) {
		fmt.Print(renderSummary(r))
	})

	if _, err := a.RunOnce(ctx); err != nil {
		return err
	}
	if !*watch {
		return nil
	}
	logger.Info("watching for changes", "roots", paths.Roots)
	return a.Watch(ctx)
}
