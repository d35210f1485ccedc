package cmap

import "testing"

func intHash(k int) uint64 { return uint64(k) }
func intEq(a, b int) bool  { return a == b }

func TestSetGetRoundTrips(t *testing.T) {
	m := New[int, string](intHash, intEq)
	m.Set(1, "one")
	m.Set(2, "two")
	if v, ok := m.Get(1); !ok || v != "one" {
		t.Fatalf("expected 1 -> one, got %q ok=%v", v, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("expected size 2, got %d", m.Len())
	}
}

func TestSetOverwriteReturnsPreviousValue(t *testing.T) {
	m := New[int, string](intHash, intEq)
	m.Set(1, "one")
	old, existed := m.Set(1, "uno")
	if !existed || old != "one" {
		t.Fatalf("expected overwrite to return previous value, got %q existed=%v", old, existed)
	}
	if v, _ := m.Get(1); v != "uno" {
		t.Fatalf("expected updated value, got %q", v)
	}
}

func TestDeleteThenLookupMisses(t *testing.T) {
	m := New[int, string](intHash, intEq)
	m.Set(1, "one")
	if _, ok := m.Delete(1); !ok {
		t.Fatalf("expected delete to find the key")
	}
	if m.Contains(1) {
		t.Fatalf("expected key gone after delete")
	}
	if m.Len() != 0 {
		t.Fatalf("expected size 0 after delete, got %d", m.Len())
	}
}

func TestGetOrSetInsertsOnlyOnMiss(t *testing.T) {
	m := New[int, string](intHash, intEq)
	if v := m.GetOrSet(1, "one"); v != "one" {
		t.Fatalf("expected insert on miss, got %q", v)
	}
	if v := m.GetOrSet(1, "other"); v != "one" {
		t.Fatalf("expected existing value preserved, got %q", v)
	}
}

func TestResizeSurvivesPastHalfFull(t *testing.T) {
	m := New[int, int](intHash, intEq)
	for i := 0; i < initialCapacity; i++ {
		m.Set(i, i*i)
	}
	if m.Len() != initialCapacity {
		t.Fatalf("expected %d entries, got %d", initialCapacity, m.Len())
	}
	for i := 0; i < initialCapacity; i++ {
		if v, ok := m.Get(i); !ok || v != i*i {
			t.Fatalf("lost entry %d after resize: got %d ok=%v", i, v, ok)
		}
	}
}

func TestDeleteThenReinsertReusesTombstone(t *testing.T) {
	m := New[int, string](intHash, intEq)
	m.Set(1, "one")
	m.Delete(1)
	m.Set(1, "uno")
	if v, ok := m.Get(1); !ok || v != "uno" {
		t.Fatalf("expected reinsertion to succeed, got %q ok=%v", v, ok)
	}
}

func TestEachVisitsEveryLiveEntry(t *testing.T) {
	m := New[int, int](intHash, intEq)
	want := map[int]int{1: 10, 2: 20, 3: 30}
	for k, v := range want {
		m.Set(k, v)
	}
	m.Delete(2)
	delete(want, 2)

	got := map[int]int{}
	m.Each(func(k, v int) { got[k] = v })
	if len(got) != len(want) {
		t.Fatalf("expected %d live entries, got %d", len(want), len(got))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("expected %d -> %d, got %d", k, v, got[k])
		}
	}
}

func TestSetAddContainsRemove(t *testing.T) {
	s := NewSet[int](intHash, intEq)
	if !s.Add(1) {
		t.Fatalf("expected first add to report newly added")
	}
	if s.Add(1) {
		t.Fatalf("expected duplicate add to report already present")
	}
	if !s.Contains(1) {
		t.Fatalf("expected 1 to be a member")
	}
	if !s.Remove(1) {
		t.Fatalf("expected remove to find the member")
	}
	if s.Contains(1) {
		t.Fatalf("expected 1 gone after remove")
	}
}
