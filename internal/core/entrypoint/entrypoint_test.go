package entrypoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngreflect/internal/core/errors"
	"ngreflect/internal/engine/parser"
	"ngreflect/internal/engine/reflection"
)

const umdBundle = `(function (global, factory) {
  typeof exports === 'object' && typeof module !== 'undefined' ? factory(exports) :
  typeof define === 'function' && define.amd ? define(['exports'], factory) :
  (factory((global.core = {})));
}(this, (function (exports) { 'use strict';
  exports.VERSION = '1';
})));
`

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newDiscoverer(t *testing.T, opts Options) *Discoverer {
	t.Helper()
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	d, err := NewDiscoverer(parser.NewParser(loader), opts)
	require.NoError(t, err)
	return d
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"@app/core/package.json": `{
  "name": "@app/core",
  "fesm2015": "./fesm2015/core.js",
  "esm2015": "./fesm2015/core.js",
  "esm5": "./esm5/core",
  "main": "./bundles/core.umd.js",
  "typings": "./core.d.ts"
}`,
		"@app/core/fesm2015/core.js":     "export class A {}\n",
		"@app/core/esm5/core.js":         "var A = (function () { function A() {} return A; }());\nexport { A };\n",
		"@app/core/bundles/core.umd.js":  umdBundle,
		"@app/core/core.d.ts":            "export declare class A {}\n",
		"@app/core/testing/package.json": `{"name": "@app/core/testing", "main": "./index.js"}`,
		"@app/core/testing/index.js":     "exports.B = 1;\n",
		"@app/core/node_modules/dep/package.json": `{"name": "dep", "main": "index.js"}`,
		"@app/core/node_modules/dep/index.js":     "module.exports = {};\n",
		"plain/package.json":                      `{"name": "plain", "module": "missing.js"}`,
	})
	return root
}

func TestDiscover(t *testing.T) {
	root := fixture(t)
	d := newDiscoverer(t, Options{Include: []string{"**"}})

	eps, err := d.Discover(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, eps, 2)

	core := eps[0]
	assert.Equal(t, "@app/core", core.Name)
	assert.Equal(t, filepath.Join(root, "@app", "core", "core.d.ts"), core.Typings)

	var formats []reflection.Format
	for _, b := range core.Bundles {
		formats = append(formats, b.Format)
		assert.Equal(t, core.Typings, b.Typings)
	}
	assert.Equal(t, []reflection.Format{reflection.FormatESM2015, reflection.FormatESM5, reflection.FormatUMD}, formats)
	assert.Equal(t, "fesm2015", core.Bundles[0].Property)
	assert.Equal(t, filepath.Join(root, "@app", "core", "esm5", "core.js"), core.Bundles[1].Path)

	secondary := eps[1]
	assert.Equal(t, "@app/core/testing", secondary.Name)
	require.Len(t, secondary.Bundles, 1)
	assert.Equal(t, reflection.FormatCommonJS, secondary.Bundles[0].Format)
	assert.Empty(t, secondary.Typings)
}

func TestDiscover_Filters(t *testing.T) {
	root := fixture(t)

	d := newDiscoverer(t, Options{Include: []string{"@app/*"}, Formats: []string{"UMD"}})
	eps, err := d.Discover(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, eps, 1)
	require.Len(t, eps[0].Bundles, 1)
	assert.Equal(t, reflection.FormatUMD, eps[0].Bundles[0].Format)

	d = newDiscoverer(t, Options{Exclude: []string{"**/testing"}})
	eps, err = d.Discover(context.Background(), []string{root})
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "@app/core", eps[0].Name)
}

func TestDiscover_Errors(t *testing.T) {
	loader, err := parser.NewGrammarLoader()
	require.NoError(t, err)
	_, err = NewDiscoverer(parser.NewParser(loader), Options{Include: []string{"[unterminated"}})
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))

	d := newDiscoverer(t, Options{})
	_, err = d.Discover(context.Background(), []string{filepath.Join(t.TempDir(), "absent")})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Discover(ctx, []string{fixture(t)})
	assert.ErrorIs(t, err, context.Canceled)
}
