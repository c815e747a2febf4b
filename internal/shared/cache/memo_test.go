// # internal/shared/cache/memo_test.go
package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestMemo_ComputesOnce(t *testing.T) {
	m := NewMemo[string, *int]()
	calls := 0
	compute := func() *int {
		calls++
		v := calls
		return &v
	}

	first := m.GetOrCompute("a", compute)
	second := m.GetOrCompute("a", compute)
	if first != second {
		t.Fatal("expected the same pointer on the second access")
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}
}

func TestMemo_ReentrantCompute(t *testing.T) {
	m := NewMemo[string, int]()
	got := m.GetOrCompute("outer", func() int {
		return 1 + m.GetOrCompute("inner", func() int { return 41 })
	})
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	keys := m.Keys()
	if keys[0] != "inner" || keys[1] != "outer" {
		t.Fatalf("unexpected key order %v", keys)
	}
}

func TestMemo_PutAndClear(t *testing.T) {
	m := NewMemo[int, string]()
	if !m.Put(1, "one") {
		t.Fatal("expected first put to store")
	}
	if m.Put(1, "uno") {
		t.Fatal("expected second put to be ignored")
	}
	if v, _ := m.Get(1); v != "one" {
		t.Fatalf("expected first value to win, got %q", v)
	}
	m.Clear()
	if _, ok := m.Get(1); ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestMemo_Concurrent(t *testing.T) {
	m := NewMemo[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			m.GetOrCompute(key, func() int { return i })
		}(i)
	}
	wg.Wait()
	if m.Len() != 5 {
		t.Fatalf("expected 5 keys, got %d", m.Len())
	}
}
