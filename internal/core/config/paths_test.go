package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolvePaths_DefaultLayout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "src", "app")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Report: Report{SQLite: "runs.db"}}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, nested)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectRoot != filepath.Clean(root) {
		t.Fatalf("expected project root %q, got %q", root, got.ProjectRoot)
	}
	if got.SQLitePath != filepath.Join(root, "data/state", "runs.db") {
		t.Fatalf("unexpected sqlite path: %q", got.SQLitePath)
	}
	if len(got.Roots) != 1 || got.Roots[0] != filepath.Join(root, "node_modules") {
		t.Fatalf("unexpected roots: %v", got.Roots)
	}
	if got.JSONReport != "" {
		t.Fatalf("expected no json report, got %q", got.JSONReport)
	}
}

func TestResolvePaths_AbsoluteOverrides(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "custom", "runs.db")
	cfg := &Config{
		Paths:  Paths{ProjectRoot: root, StateDir: filepath.Join(root, "state")},
		Report: Report{SQLite: dbPath, JSON: "out/report.json"},
	}
	applyDefaults(cfg)

	got, err := ResolvePaths(cfg, root)
	if err != nil {
		t.Fatal(err)
	}
	if got.StateDir != filepath.Join(root, "state") {
		t.Fatalf("unexpected state dir: %q", got.StateDir)
	}
	if got.SQLitePath != dbPath {
		t.Fatalf("unexpected sqlite path: %q", got.SQLitePath)
	}
	if got.JSONReport != filepath.Join(root, "out", "report.json") {
		t.Fatalf("unexpected json path: %q", got.JSONReport)
	}
}

func TestResolvePaths_EmptyCWD(t *testing.T) {
	if _, err := ResolvePaths(&Config{}, " "); err == nil {
		t.Fatal("expected error for empty cwd")
	}
}

func TestResolveRelative(t *testing.T) {
	cases := []struct {
		base, value, want string
	}{
		{"/a/b", "", "/a/b"},
		{"/a/b", "c", "/a/b/c"},
		{"/a/b", "/x/y", "/x/y"},
		{"/a/b", "../c", "/a/c"},
	}
	for _, tc := range cases {
		if got := ResolveRelative(tc.base, tc.value); got != tc.want {
			t.Errorf("ResolveRelative(%q, %q) = %q, want %q", tc.base, tc.value, got, tc.want)
		}
	}
}
