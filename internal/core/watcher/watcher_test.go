// # internal/core/watcher/watcher_test.go
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func contains(paths []string, want string) bool {
	for _, p := range paths {
		if p == want {
			return true
		}
	}
	return false
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(Options{Exclude: []string{"[oops"}}, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestIsBundleFile(t *testing.T) {
	cases := map[string]bool{
		"core.js":          true,
		"core.umd.JS":      true,
		"index.mjs":        true,
		"index.d.ts":       true,
		"package.json":     true,
		"core.ts":          false,
		"README.md":        false,
		"core.js.map":      false,
		"tsconfig.json":    false,
		"metadata.json":    false,
		"bundles/core.cjs": true,
	}
	for path, want := range cases {
		if got := IsBundleFile(path); got != want {
			t.Errorf("IsBundleFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "testing"), 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond, Exclude: []string{"testing", "*.spec.js"}}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "core.js")
	if err := os.WriteFile(testFile, []byte("export class A {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		if !contains(paths, testFile) {
			t.Errorf("expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}

	for _, name := range []string{"core.spec.js", "notes.md", filepath.Join("testing", "index.js")} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case paths := <-changedFiles:
		t.Errorf("excluded files triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "esm5")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "core.js")
	if err := os.WriteFile(subFile, []byte("var A;"), 0o644); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			if contains(paths, subFile) {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcher_ThrottlesBatches(t *testing.T) {
	tmpDir := t.TempDir()

	type batch struct {
		at    time.Time
		paths []string
	}
	batches := make(chan batch, 8)
	w, err := NewWatcher(Options{Debounce: 20 * time.Millisecond, MinInterval: 400 * time.Millisecond}, func(paths []string) {
		batches <- batch{at: time.Now(), paths: paths}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	first := filepath.Join(tmpDir, "a.js")
	if err := os.WriteFile(first, []byte("1"), 0o644); err != nil {
		t.Fatal(err)
	}
	var b1 batch
	select {
	case b1 = <-batches:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first batch")
	}

	second := filepath.Join(tmpDir, "b.js")
	if err := os.WriteFile(second, []byte("2"), 0o644); err != nil {
		t.Fatal(err)
	}
	timeout := time.After(3 * time.Second)
	for {
		select {
		case b2 := <-batches:
			if !contains(b2.paths, second) {
				continue
			}
			if gap := b2.at.Sub(b1.at); gap < 300*time.Millisecond {
				t.Fatalf("second batch arrived after %s, expected throttling", gap)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for throttled batch")
		}
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.js")
	newPath := filepath.Join(tmpDir, "new.js")
	if err := os.WriteFile(oldPath, []byte("var a;"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			if contains(paths, oldPath) || contains(paths, newPath) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}
