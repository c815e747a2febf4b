package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngreflect/internal/core/config"
	"ngreflect/internal/core/entrypoint"
	"ngreflect/internal/data/report"
	"ngreflect/internal/engine/reflection"
)

const widgetSource = `import { Component, ElementRef } from '@angular/core';
import { Base } from './base';
export * from './base';

export class Widget extends Base {
  constructor(el) {
    super();
    this.el = el;
  }
  render() {}
}
Widget.decorators = [
  { type: Component, args: [{ selector: 'app-widget' }] }
];
Widget.ctorParameters = () => [
  { type: ElementRef }
];
`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func packageFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"@app/widgets/package.json": `{"name": "@app/widgets", "esm2015": "./esm2015/index.js", "typings": "./index.d.ts"}`,
		"@app/widgets/esm2015/index.js": widgetSource,
		"@app/widgets/esm2015/base.js":  "export class Base {}\n",
		"@app/widgets/index.d.ts":       "export declare class Widget {\n  render(): void;\n}\n",
		"@app/helpers/package.json":     `{"name": "@app/helpers", "main": "./index.js"}`,
		"@app/helpers/index.js":         "var util = require('./util');\nexports.helper = util.helper;\n",
		"@app/helpers/util.js":          "function helper() {}\nexports.helper = helper;\n",
	})
	return root
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.Workers = 2
	return cfg
}

func newTestAnalyzer(t *testing.T, root string) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(testConfig(t), []string{root}, nil)
	require.NoError(t, err)
	return a
}

func findBundle(t *testing.T, run *report.Run, pkg string) report.Bundle {
	t.Helper()
	for _, b := range run.Bundles {
		if b.Package == pkg {
			return b
		}
	}
	t.Fatalf("bundle for %s not found", pkg)
	return report.Bundle{}
}

func findClass(t *testing.T, b report.Bundle, name string) report.Class {
	t.Helper()
	for _, c := range b.Classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %s not found in %s", name, b.Path)
	return report.Class{}
}

func TestAnalyzer_Run(t *testing.T) {
	root := packageFixture(t)
	run, err := newTestAnalyzer(t, root).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, run.Bundles, 2)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	// sorted by package
	assert.Equal(t, "@app/helpers", run.Bundles[0].Package)
	assert.Equal(t, "@app/widgets", run.Bundles[1].Package)

	widgets := findBundle(t, run, "@app/widgets")
	require.Empty(t, widgets.Error)
	assert.Equal(t, "esm2015", widgets.Format)
	assert.Equal(t, 2, widgets.Files)

	var names []string
	for _, e := range widgets.Exports {
		names = append(names, e.Name)
		assert.Equal(t, "concrete", e.Kind)
	}
	if diff := cmp.Diff([]string{"Widget", "Base"}, names); diff != "" {
		t.Fatalf("export order mismatch (-want +got):\n%s", diff)
	}

	widget := findClass(t, widgets, "Widget")
	assert.Equal(t, "esm2015/index.js", widget.File)
	assert.Equal(t, "Base", widget.Base)
	require.Len(t, widget.Decorators, 1)
	assert.Equal(t, "Component", widget.Decorators[0].Name)
	assert.Equal(t, "@angular/core", widget.Decorators[0].Import)
	assert.Equal(t, []string{"{ selector: 'app-widget' }"}, widget.Decorators[0].Args)
	require.Len(t, widget.CtorParams, 1)
	assert.Equal(t, "el", widget.CtorParams[0].Name)
	assert.Equal(t, "ElementRef", widget.CtorParams[0].Type)
	assert.True(t, strings.HasPrefix(widget.Dts, "index.d.ts:"), "dts location %q", widget.Dts)

	var render *report.Member
	for i := range widget.Members {
		if widget.Members[i].Name == "render" {
			render = &widget.Members[i]
		}
	}
	require.NotNil(t, render)
	assert.Equal(t, "method", render.Kind)

	base := findClass(t, widgets, "Base")
	assert.Empty(t, base.Decorators)
	assert.Nil(t, base.CtorParams)
	assert.Empty(t, base.Dts)

	helpers := findBundle(t, run, "@app/helpers")
	require.Empty(t, helpers.Error)
	assert.Equal(t, "commonjs", helpers.Format)
	require.Len(t, helpers.Exports, 1)
	assert.Equal(t, "helper", helpers.Exports[0].Name)
	assert.Equal(t, "util.js:1", helpers.Exports[0].Location)
}

func TestAnalyzer_BundleFailureIsIsolated(t *testing.T) {
	root := packageFixture(t)
	a := newTestAnalyzer(t, root)

	got := a.AnalyzeBundle(context.Background(), entrypoint.Bundle{
		Package: "@app/missing",
		Format:  reflection.FormatESM5,
		Path:    filepath.Join(root, "missing.js"),
	})
	assert.NotEmpty(t, got.Error)
	assert.Nil(t, got.Classes)

	got = a.AnalyzeBundle(context.Background(), entrypoint.Bundle{
		Package: "@app/widgets",
		Format:  reflection.Format("amd"),
		Path:    filepath.Join(root, "@app", "widgets", "esm2015", "index.js"),
	})
	assert.Contains(t, got.Error, "unknown bundle format")
}

func TestAnalyzer_Cancelled(t *testing.T) {
	a := newTestAnalyzer(t, packageFixture(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Run(ctx)
	assert.Error(t, err)
}

func TestApp_RunOncePublishes(t *testing.T) {
	root := packageFixture(t)
	out := t.TempDir()
	cfg := testConfig(t)
	paths := config.ResolvedPaths{
		ProjectRoot: out,
		Roots:       []string{root},
		JSONReport:  filepath.Join(out, "report.json"),
		SQLitePath:  filepath.Join(out, "state", "runs.db"),
	}
	a, err := New(cfg, paths, nil)
	require.NoError(t, err)
	defer a.Close()

	var updates int
	a.SetUpdateHandler(func(*report.Run) { updates++ })

	run, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updates)

	f, err := os.Open(paths.JSONReport)
	require.NoError(t, err)
	defer f.Close()
	back, err := report.ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, run.ID, back.ID)
	assert.Len(t, back.Bundles, 2)

	runs, err := a.Store().RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, 2, runs[0].Bundles)

	usage, err := a.Store().DecoratorUsage(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Component": 1}, usage)
}
