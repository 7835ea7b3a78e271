package pom_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/rankstack/highscore/internal/domain/pom"
)

func TestMap_GetPutRemove(t *testing.T) {
	var m pom.Map[int, string]

	if _, ok := m.Get(1); ok {
		t.Fatalf("expected empty map to miss every key")
	}

	m = m.Put(1, 1, "one")
	m = m.Put(2, 1, "two")
	m = m.Put(3, 1, "three")

	if v, ok := m.Get(2); !ok || v != "two" {
		t.Fatalf("Get(2) = %q, %v, want \"two\", true", v, ok)
	}

	m2 := m.Put(2, 5, "TWO")
	if v, _ := m2.Get(2); v != "TWO" {
		t.Fatalf("Put replace: Get(2) = %q, want \"TWO\"", v)
	}
	if w, _ := m2.NodeWeight(2); w != 5 {
		t.Fatalf("Put replace: NodeWeight(2) = %d, want 5", w)
	}
	if v, _ := m.Get(2); v != "two" {
		t.Fatalf("original map mutated by Put on the derived map: Get(2) = %q", v)
	}

	m3 := m.Remove(2)
	if _, ok := m3.Get(2); ok {
		t.Fatalf("expected key 2 removed")
	}
	if _, ok := m.Get(2); !ok {
		t.Fatalf("Remove on m3 must not affect m")
	}
}

func TestMap_RemoveAbsentKeyPreservesIdentity(t *testing.T) {
	var m pom.Map[int, string]
	m = m.Put(1, 1, "one")

	m2 := m.Remove(999)
	if !m.CheckInvariants() || !m2.CheckInvariants() {
		t.Fatalf("invariants violated")
	}
	if m2 != m {
		t.Fatalf("Remove of an absent key must return the receiver itself")
	}
	if v, ok := m2.Get(1); !ok || v != "one" {
		t.Fatalf("Remove of an absent key must leave the map's contents untouched")
	}
}

func TestMap_WeightIdentities(t *testing.T) {
	var m pom.Map[int, string]
	keys := []int{5, 1, 9, 3, 7, 2, 8, 4, 6}
	for _, k := range keys {
		m = m.Put(k, uint64(k), "v")
	}

	for _, k := range keys {
		left, ok := m.LeftWeight(k)
		if !ok {
			t.Fatalf("LeftWeight(%d): key not found", k)
		}
		right, ok := m.RightWeight(k)
		if !ok {
			t.Fatalf("RightWeight(%d): key not found", k)
		}
		node, ok := m.NodeWeight(k)
		if !ok {
			t.Fatalf("NodeWeight(%d): key not found", k)
		}
		if left+node+right != m.TotalWeight() {
			t.Fatalf("left+node+right = %d, want total weight %d", left+node+right, m.TotalWeight())
		}
	}
}

func TestMap_ForEachOrder(t *testing.T) {
	var m pom.Map[int, int]
	keys := []int{5, 1, 9, 3, 7, 2, 8, 4, 6}
	for _, k := range keys {
		m = m.Put(k, 1, k)
	}

	var ascending, descending []int
	m.ForEach(func(k, _ int, _, _, _ uint64) bool {
		ascending = append(ascending, k)
		return true
	})
	m.ForEachReverse(func(k, _ int, _, _, _ uint64) bool {
		descending = append(descending, k)
		return true
	})

	sorted := append([]int(nil), keys...)
	sort.Ints(sorted)
	for i, k := range sorted {
		if ascending[i] != k {
			t.Fatalf("ForEach order mismatch at %d: got %v, want %v", i, ascending, sorted)
		}
		if descending[len(descending)-1-i] != k {
			t.Fatalf("ForEachReverse order mismatch at %d", i)
		}
	}
}

func TestMap_ForEachEarlyStop(t *testing.T) {
	var m pom.Map[int, int]
	for i := 0; i < 10; i++ {
		m = m.Put(i, 1, i)
	}

	var visited []int
	m.ForEach(func(k, _ int, _, _, _ uint64) bool {
		visited = append(visited, k)
		return len(visited) < 3
	})
	if len(visited) != 3 {
		t.Fatalf("expected traversal to stop after 3 visits, got %d", len(visited))
	}
}

// TestMap_RandomizedInvariants performs a randomized sequence of
// put/remove operations on up to 2,000 keys, checking after every
// step that the AVL balance and weight-cache invariants hold, and at
// the end that in-order traversal yields the sorted key set and that
// left+node+right = total for every present key.
func TestMap_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const keySpace = 2000

	var m pom.Map[int, struct{}]
	present := make(map[int]bool)

	for step := 0; step < 6000; step++ {
		key := rng.Intn(keySpace)
		if rng.Intn(2) == 0 {
			m = m.Put(key, 1, struct{}{})
			present[key] = true
		} else {
			m = m.Remove(key)
			delete(present, key)
		}

		if !m.CheckInvariants() {
			t.Fatalf("step %d: AVL/weight invariants violated after touching key %d", step, key)
		}
	}

	var want []int
	for k := range present {
		want = append(want, k)
	}
	sort.Ints(want)

	var got []int
	m.ForEach(func(k int, _ struct{}, _, _, _ uint64) bool {
		got = append(got, k)
		return true
	})

	if len(got) != len(want) {
		t.Fatalf("traversal produced %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("traversal order mismatch at %d: got %d, want %d", i, got[i], want[i])
		}
		left, _ := m.LeftWeight(want[i])
		node, _ := m.NodeWeight(want[i])
		right, _ := m.RightWeight(want[i])
		if left+node+right != m.TotalWeight() {
			t.Fatalf("weight identity broken for key %d", want[i])
		}
	}
}

func TestMap_IsEmptyAndHeight(t *testing.T) {
	var m pom.Map[int, int]
	if !m.IsEmpty() {
		t.Fatalf("zero value must be empty")
	}
	if m.Height() != 0 {
		t.Fatalf("empty map height = %d, want 0", m.Height())
	}

	m = m.Put(1, 1, 1)
	if m.IsEmpty() {
		t.Fatalf("map with one entry must not be empty")
	}
	if m.Height() != 1 {
		t.Fatalf("single-node height = %d, want 1", m.Height())
	}
}
