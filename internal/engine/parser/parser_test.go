// # internal/engine/parser/parser_test.go
package parser

import (
	"os"
	"path/filepath"
	"testing"

	"ngreflect/internal/core/errors"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	loader, err := NewGrammarLoader()
	if err != nil {
		t.Fatal(err)
	}
	return NewParser(loader)
}

func TestGrammarLoader(t *testing.T) {
	loader, err := NewGrammarLoader()
	if err != nil {
		t.Fatal(err)
	}
	langs := loader.Languages()
	if len(langs) != 2 || langs[0] != LanguageJavaScript || langs[1] != LanguageTypeScript {
		t.Fatalf("unexpected languages %v", langs)
	}
	if _, err := NewGrammarLoader("python"); err == nil {
		t.Fatal("expected error for grammar that is not compiled in")
	}
}

func TestDetectLanguage(t *testing.T) {
	p := newParser(t)
	cases := map[string]string{
		"core.js":         LanguageJavaScript,
		"core.umd.min.js": LanguageJavaScript,
		"index.mjs":       LanguageJavaScript,
		"index.cjs":       LanguageJavaScript,
		"index.d.ts":      LanguageTypeScript,
		"README.md":       "",
		"core.js.map":     "",
	}
	for path, want := range cases {
		if got := p.DetectLanguage(path); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", path, got, want)
		}
	}

	jsOnly, err := NewGrammarLoader(LanguageJavaScript)
	if err != nil {
		t.Fatal(err)
	}
	if NewParser(jsOnly).IsSupportedPath("index.d.ts") {
		t.Fatal("typings should be unsupported without the typescript grammar")
	}
}

func TestParseFile(t *testing.T) {
	p := newParser(t)

	f, err := p.ParseFile("/pkg/index.js", []byte("export class Widget {}\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Language != LanguageJavaScript || f.HasErrors() {
		t.Fatalf("unexpected parse result: language=%s errors=%v", f.Language, f.HasErrors())
	}
	if stmts := f.Statements(); len(stmts) != 1 || stmts[0].Kind() != "export_statement" {
		t.Fatalf("unexpected statements %v", stmts)
	}

	dts, err := p.ParseFile("/pkg/index.d.ts", []byte("export declare class Widget {\n  render(): void;\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	defer dts.Close()
	if dts.Language != LanguageTypeScript || dts.HasErrors() {
		t.Fatalf("unexpected typings parse: language=%s errors=%v", dts.Language, dts.HasErrors())
	}

	_, err = p.ParseFile("/pkg/style.css", []byte("a {}"))
	if !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED, got %v", err)
	}
	if _, err := p.ParseAs("rust", "x.rs", nil); !errors.IsCode(err, errors.CodeNotSupported) {
		t.Fatalf("expected NOT_SUPPORTED for unknown grammar, got %v", err)
	}
}

func TestReadFile(t *testing.T) {
	p := newParser(t)
	path := filepath.Join(t.TempDir(), "main.js")
	if err := os.WriteFile(path, []byte("module.exports = {};\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := p.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if f.Path != path {
		t.Fatalf("unexpected path %q", f.Path)
	}

	if _, err := p.ReadFile(filepath.Join(t.TempDir(), "missing.js")); !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
