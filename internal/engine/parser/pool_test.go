// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

func jsLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_javascript.Language())
}

func TestParserPool_GetPut(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected one lease, got %d", pool.Leased())
	}
	if pool.OldestLease(time.Now().Add(time.Second)) < time.Second {
		t.Fatal("expected outstanding lease to be at least a second old")
	}

	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected no leases after Put, got %d", pool.Leased())
	}
	if pool.OldestLease(time.Now()) != 0 {
		t.Fatal("expected zero oldest lease with nothing checked out")
	}
}

func TestParserPool_PutNil(t *testing.T) {
	pool := NewParserPool(jsLanguage())
	pool.Put(nil)
}

func TestParserPool_ParsesValidJavaScript(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse([]byte("var A = (function () { function A() {} return A; }());\n"), nil)
	if tree == nil {
		t.Fatal("expected non-nil parse tree")
	}
	defer tree.Close()

	if root := tree.RootNode(); root.HasError() {
		t.Fatal("expected error-free root node")
	}
}

func TestParserPool_ConcurrentAccess(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	const goroutines = 20
	const iters = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)

	src := []byte("exports.run = function run() {};\n")

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				sp := pool.Get()
				tree := sp.Parse(src, nil)
				if tree == nil {
					t.Errorf("expected non-nil parse tree")
				} else {
					tree.Close()
				}
				pool.Put(sp)
			}
		}()
	}

	wg.Wait()
	if pool.Leased() != 0 {
		t.Fatalf("leases leaked: %d", pool.Leased())
	}
}

func TestParserPool_LanguageSetAfterReset(t *testing.T) {
	pool := NewParserPool(jsLanguage())

	sp := pool.Get()
	sp.Reset()
	pool.Put(sp)

	sp2 := pool.Get()
	defer pool.Put(sp2)

	tree := sp2.Parse([]byte("class A {}\n"), nil)
	if tree == nil {
		t.Fatal("parser should still parse correctly after Get")
	}
	defer tree.Close()
}
