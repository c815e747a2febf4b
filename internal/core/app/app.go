package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ngreflect/internal/core/config"
	"ngreflect/internal/core/watcher"
	"ngreflect/internal/data/report"
	"ngreflect/internal/shared/util"
)

// App runs the analyzer and publishes its results to the configured sinks.
type App struct {
	Config   *config.Config
	Paths    config.ResolvedPaths
	Analyzer *Analyzer

	store  *report.Store
	logger *slog.Logger

	updateMu sync.RWMutex
	onUpdate func(*report.Run)
}

func New(cfg *config.Config, paths config.ResolvedPaths, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	analyzer, err := NewAnalyzer(cfg, paths.Roots, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Paths: paths, Analyzer: analyzer, logger: logger}
	if paths.SQLitePath != "" {
		store, err := report.Open(paths.SQLitePath, cfg.Report.BusyTimeout)
		if err != nil {
			return nil, err
		}
		a.store = store
	}
	return a, nil
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) Store() *report.Store { return a.store }

// SetUpdateHandler registers fn to receive every completed run.
func (a *App) SetUpdateHandler(fn func(*report.Run)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

func (a *App) emitUpdate(run *report.Run) {
	a.updateMu.RLock()
	fn := a.onUpdate
	a.updateMu.RUnlock()
	if fn != nil {
		fn(run)
	}
}

// RunOnce analyzes every bundle and writes the JSON report and the run store.
func (a *App) RunOnce(ctx context.Context) (*report.Run, error) {
	run, err := a.Analyzer.Run(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.publish(ctx, run); err != nil {
		return run, err
	}
	totals := run.Totals()
	a.logger.Info("analysis complete",
		"run", run.ID,
		"bundles", totals.Bundles,
		"failed", totals.Failed,
		"classes", totals.Classes,
		"duration", run.FinishedAt.Sub(run.StartedAt),
		"heap_mb", util.HeapAllocMB(),
	)
	a.emitUpdate(run)
	return run, nil
}

func (a *App) publish(ctx context.Context, run *report.Run) error {
	if a.Paths.JSONReport != "" {
		var buf bytes.Buffer
		if err := report.WriteJSON(&buf, run); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := util.WriteFileAtomic(a.Paths.JSONReport, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", a.Paths.JSONReport, err)
		}
	}
	if a.store != nil {
		if err := a.store.SaveRun(ctx, run); err != nil {
			return err
		}
		if n, err := a.store.Prune(ctx, a.Config.Report.KeepRuns); err != nil {
			a.logger.Warn("failed to prune old runs", "error", err)
		} else if n > 0 {
			a.logger.Debug("pruned old runs", "count", n)
		}
	}
	return nil
}

// Watch re-runs the analysis whenever bundle files below the roots change,
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context) error {
	w, err := watcher.NewWatcher(watcher.Options{
		Debounce:    a.Config.Watch.Debounce,
		MinInterval: a.Config.Watch.MinInterval,
		Exclude:     a.Config.Watch.Exclude,
		Logger:      a.logger,
	}, func(paths []string) {
		a.logger.Info("detected changes", "count", len(paths))
		if _, err := a.RunOnce(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("re-analysis failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(a.Analyzer.Roots()); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
