// # internal/core/app/analyzer.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ngreflect/internal/core/config"
	"ngreflect/internal/core/entrypoint"
	"ngreflect/internal/data/report"
	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/program"
	"ngreflect/internal/engine/reflection"
	"ngreflect/internal/shared/observability"
)

// Analyzer discovers entry points and reflects over each of their bundles.
// Bundles are independent: each gets its own program and host.
type Analyzer struct {
	cfg        *config.Config
	roots      []string
	parser     *parser.Parser
	discoverer *entrypoint.Discoverer
	logger     *slog.Logger
}

func NewAnalyzer(cfg *config.Config, roots []string, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loader, err := parser.NewGrammarLoader()
	if err != nil {
		return nil, err
	}
	p := parser.NewParser(loader)
	d, err := entrypoint.NewDiscoverer(p, entrypoint.Options{
		Include: cfg.Entrypoints.Include,
		Exclude: cfg.Entrypoints.Exclude,
		Formats: cfg.Entrypoints.Formats,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, roots: roots, parser: p, discoverer: d, logger: logger}, nil
}

func (a *Analyzer) Roots() []string { return a.roots }

// Run analyzes every bundle below the configured roots. A failing bundle is
// recorded in its report entry and does not stop the run; only discovery
// failures and cancellation are returned as errors.
func (a *Analyzer) Run(ctx context.Context) (*report.Run, error) {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.Run")
	defer span.End()

	run := report.NewRun(a.roots)
	eps, err := a.discoverer.Discover(ctx, a.roots)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discovery failed")
		return nil, fmt.Errorf("discover entry points: %w", err)
	}

	var bundles []entrypoint.Bundle
	for _, ep := range eps {
		bundles = append(bundles, ep.Bundles...)
	}
	span.SetAttributes(
		attribute.Int("entrypoints", len(eps)),
		attribute.Int("bundles", len(bundles)),
	)
	a.logger.Info("analyzing bundles", "entrypoints", len(eps), "bundles", len(bundles))

	run.Bundles = a.analyzeAll(ctx, bundles)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sortBundles(run.Bundles)
	run.FinishedAt = time.Now().UTC()
	return run, nil
}

func (a *Analyzer) analyzeAll(ctx context.Context, bundles []entrypoint.Bundle) []report.Bundle {
	results := make([]report.Bundle, len(bundles))
	workers := a.cfg.Analysis.Workers
	if workers > len(bundles) {
		workers = len(bundles)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.AnalyzeBundle(ctx, bundles[i])
			}
		}()
	}

feed:
	for i := range bundles {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// AnalyzeBundle loads one bundle and reports its exports and classes.
func (a *Analyzer) AnalyzeBundle(ctx context.Context, b entrypoint.Bundle) report.Bundle {
	ctx, span := observability.Tracer.Start(ctx, "analyzer.bundle", trace.WithAttributes(
		attribute.String("bundle.package", b.Package),
		attribute.String("bundle.format", string(b.Format)),
		attribute.String("bundle.path", b.Path),
	))
	defer span.End()

	start := time.Now()
	out := report.Bundle{
		Package:  b.Package,
		Property: b.Property,
		Format:   string(b.Format),
		Path:     b.Path,
		Typings:  b.Typings,
	}
	err := a.reflectBundle(ctx, b, &out)
	elapsed := time.Since(start)
	out.DurationMS = elapsed.Milliseconds()

	format := string(b.Format)
	observability.BundleDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	if err != nil {
		out.Error = err.Error()
		out.Exports = nil
		out.Classes = nil
		span.RecordError(err)
		span.SetStatus(codes.Error, "bundle failed")
		observability.BundlesAnalyzedTotal.WithLabelValues(format, "error").Inc()
		a.logger.Warn("bundle analysis failed", "package", b.Package, "format", format, "path", b.Path, "error", err)
		return out
	}
	observability.BundlesAnalyzedTotal.WithLabelValues(format, "ok").Inc()
	span.SetAttributes(attribute.Int("bundle.classes", len(out.Classes)), attribute.Int("bundle.files", out.Files))
	return out
}

func (a *Analyzer) reflectBundle(ctx context.Context, b entrypoint.Bundle, out *report.Bundle) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Analysis.BundleTimeout)
	defer cancel()

	entryPath, err := filepath.Abs(b.Path)
	if err != nil {
		return err
	}
	logger := a.logger.With("package", b.Package)
	prog, err := program.Load(ctx, a.parser, []string{entryPath}, program.LoadOptions{
		FollowExternal: a.cfg.Analysis.FollowExternal,
		MaxFiles:       a.cfg.Analysis.MaxFiles,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer prog.Close()
	out.Files = prog.Len()
	observability.ProgramFiles.Observe(float64(prog.Len()))

	typings := a.loadTypings(ctx, b, logger)
	if typings != nil {
		defer typings.close()
	}

	opts := reflection.Options{Logger: logger, Entry: entryPath}
	if typings != nil {
		opts.Typings = typings.typings
	}
	host, err := reflection.NewHost(b.Format, prog, opts)
	if err != nil {
		return err
	}
	defer host.Close()

	entry, ok := prog.File(entryPath)
	if !ok {
		return fmt.Errorf("entry %s missing from program", entryPath)
	}
	out.Exports = describeExports(b.Dir, host.GetExportsOfModule(entry))

	for _, f := range prog.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, cs := range host.FindClassSymbols(f) {
			c := describeClass(host, b.Dir, cs, logger)
			out.Classes = append(out.Classes, c)
			observability.ClassesFoundTotal.WithLabelValues(string(b.Format)).Inc()
			observability.DecoratorsFoundTotal.WithLabelValues(string(b.Format)).Add(float64(len(c.Decorators)))
		}
	}
	sortClasses(out.Classes)
	return nil
}

type loadedTypings struct {
	program *program.Program
	typings *reflection.Typings
}

func (t *loadedTypings) close() { t.program.Close() }

// loadTypings is best effort: a bundle without readable typings is still
// analyzed, just without .d.ts mapping.
func (a *Analyzer) loadTypings(ctx context.Context, b entrypoint.Bundle, logger *slog.Logger) *loadedTypings {
	if b.Typings == "" || !a.cfg.Analysis.TypingsEnabled() {
		return nil
	}
	path, err := filepath.Abs(b.Typings)
	if err != nil {
		return nil
	}
	prog, err := program.Load(ctx, a.parser, []string{path}, program.LoadOptions{
		Resolver: program.FSResolver{Typings: true},
		MaxFiles: a.cfg.Analysis.MaxFiles,
		Logger:   logger,
	})
	if err != nil {
		logger.Warn("typings not loaded", "path", path, "error", err)
		return nil
	}
	typings, err := reflection.NewTypings(prog, path)
	if err != nil {
		prog.Close()
		logger.Warn("typings not usable", "path", path, "error", err)
		return nil
	}
	return &loadedTypings{program: prog, typings: typings}
}

func sortBundles(bundles []report.Bundle) {
	sort.SliceStable(bundles, func(i, j int) bool {
		if bundles[i].Package != bundles[j].Package {
			return bundles[i].Package < bundles[j].Package
		}
		if bundles[i].Path != bundles[j].Path {
			return bundles[i].Path < bundles[j].Path
		}
		return bundles[i].Format < bundles[j].Format
	})
}

func sortClasses(classes []report.Class) {
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].File != classes[j].File {
			return classes[i].File < classes[j].File
		}
		if classes[i].Line != classes[j].Line {
			return classes[i].Line < classes[j].Line
		}
		return classes[i].Name < classes[j].Name
	})
}
