// Package pom implements a persistent weighted ordered map: an
// immutable, self-balancing AVL tree from a comparable key to a value,
// where each node additionally carries an integer node weight and a
// cached subtree weight.
//
// Every mutating method returns a new Map and never modifies the
// receiver; unaffected subtrees are shared by reference with the
// input. This makes a Map safe to read from many goroutines while
// another goroutine builds a new version from it, with no locking of
// any kind inside the package itself.
package pom

import (
	"cmp"

	"github.com/rankstack/highscore/pkg/metrics"
)

// Map is an immutable mapping from K to V, ordered by K, where each
// entry additionally carries a node weight used for rank-style
// queries. The zero value is a valid, empty Map.
type Map[K cmp.Ordered, V any] struct {
	root *node[K, V]
}

type node[K cmp.Ordered, V any] struct {
	key           K
	value         V
	weight        uint64
	height        int
	subtreeWeight uint64
	left, right   *node[K, V]
}

func height[K cmp.Ordered, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func weightOf[K cmp.Ordered, V any](n *node[K, V]) uint64 {
	if n == nil {
		return 0
	}
	return n.subtreeWeight
}

func balanceFactor[K cmp.Ordered, V any](n *node[K, V]) int {
	return height(n.left) - height(n.right)
}

// clone makes a shallow copy of n; used before mutating any field on
// the copy-on-write path.
func clone[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	c := *n
	return &c
}

// recompute refreshes n's cached height and subtree weight from its
// children. Must be called after any change to n.left, n.right, or
// n.weight.
func recompute[K cmp.Ordered, V any](n *node[K, V]) {
	lh, rh := height(n.left), height(n.right)
	if lh > rh {
		n.height = lh + 1
	} else {
		n.height = rh + 1
	}
	n.subtreeWeight = n.weight + weightOf(n.left) + weightOf(n.right)
}

func leaf[K cmp.Ordered, V any](key K, weight uint64, value V) *node[K, V] {
	n := &node[K, V]{key: key, value: value, weight: weight}
	recompute(n)
	return n
}

func rotateRight[K cmp.Ordered, V any](y *node[K, V]) *node[K, V] {
	metrics.RecordPOMRotation()
	x := clone(y.left)
	newY := clone(y)
	newY.left = x.right
	recompute(newY)
	x.right = newY
	recompute(x)
	return x
}

func rotateLeft[K cmp.Ordered, V any](x *node[K, V]) *node[K, V] {
	metrics.RecordPOMRotation()
	y := clone(x.right)
	newX := clone(x)
	newX.right = y.left
	recompute(newX)
	y.left = newX
	recompute(y)
	return y
}

// rebalance restores the AVL invariant at n, which must already have
// correct cached height/weight and at most one child out of balance
// by more than one level (true for a node freshly touched by a single
// insert/delete recursion step).
func rebalance[K cmp.Ordered, V any](n *node[K, V]) *node[K, V] {
	bf := balanceFactor(n)
	switch {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n = clone(n)
			n.left = rotateLeft(n.left)
			recompute(n)
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n = clone(n)
			n.right = rotateRight(n.right)
			recompute(n)
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// Get returns the value bound to key, if any.
func (m Map[K, V]) Get(key K) (V, bool) {
	n := m.root
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

// Put returns a new Map where key is bound to value with the given
// node weight. If key was already present, its prior value and weight
// are discarded (replace semantics).
func (m Map[K, V]) Put(key K, weight uint64, value V) Map[K, V] {
	return Map[K, V]{root: insert(m.root, key, weight, value)}
}

func insert[K cmp.Ordered, V any](n *node[K, V], key K, weight uint64, value V) *node[K, V] {
	if n == nil {
		return leaf(key, weight, value)
	}
	switch {
	case key < n.key:
		newLeft := insert(n.left, key, weight, value)
		n = clone(n)
		n.left = newLeft
		recompute(n)
		return rebalance(n)
	case key > n.key:
		newRight := insert(n.right, key, weight, value)
		n = clone(n)
		n.right = newRight
		recompute(n)
		return rebalance(n)
	default:
		n = clone(n)
		n.weight = weight
		n.value = value
		recompute(n)
		return n
	}
}

// Remove returns a new Map without key. If key is absent, the
// returned Map shares its root with m (identity is preserved).
func (m Map[K, V]) Remove(key K) Map[K, V] {
	newRoot, changed := remove(m.root, key)
	if !changed {
		return m
	}
	return Map[K, V]{root: newRoot}
}

func remove[K cmp.Ordered, V any](n *node[K, V], key K) (*node[K, V], bool) {
	if n == nil {
		return nil, false
	}
	switch {
	case key < n.key:
		newLeft, changed := remove(n.left, key)
		if !changed {
			return n, false
		}
		n = clone(n)
		n.left = newLeft
		recompute(n)
		return rebalance(n), true
	case key > n.key:
		newRight, changed := remove(n.right, key)
		if !changed {
			return n, false
		}
		n = clone(n)
		n.right = newRight
		recompute(n)
		return rebalance(n), true
	default:
		if n.left == nil {
			return n.right, true
		}
		if n.right == nil {
			return n.left, true
		}
		var replaced *node[K, V]
		if height(n.left) > height(n.right) {
			key2, weight2, value2, newLeft := extractMax(n.left)
			replaced = &node[K, V]{key: key2, weight: weight2, value: value2, left: newLeft, right: n.right}
		} else {
			key2, weight2, value2, newRight := extractMin(n.right)
			replaced = &node[K, V]{key: key2, weight: weight2, value: value2, left: n.left, right: newRight}
		}
		recompute(replaced)
		return rebalance(replaced), true
	}
}

// extractMin removes and returns the leftmost entry of n's subtree
// along with the rebalanced remainder.
func extractMin[K cmp.Ordered, V any](n *node[K, V]) (K, uint64, V, *node[K, V]) {
	if n.left == nil {
		return n.key, n.weight, n.value, n.right
	}
	key, weight, value, newLeft := extractMin(n.left)
	n = clone(n)
	n.left = newLeft
	recompute(n)
	return key, weight, value, rebalance(n)
}

// extractMax removes and returns the rightmost entry of n's subtree
// along with the rebalanced remainder.
func extractMax[K cmp.Ordered, V any](n *node[K, V]) (K, uint64, V, *node[K, V]) {
	if n.right == nil {
		return n.key, n.weight, n.value, n.left
	}
	key, weight, value, newRight := extractMax(n.right)
	n = clone(n)
	n.right = newRight
	recompute(n)
	return key, weight, value, rebalance(n)
}

// TotalWeight returns the root's subtree weight, or 0 if the map is
// empty.
func (m Map[K, V]) TotalWeight() uint64 {
	return weightOf(m.root)
}

// NodeWeight returns the weight stored at key, if present.
func (m Map[K, V]) NodeWeight(key K) (uint64, bool) {
	n := m.root
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n.weight, true
		}
	}
	return 0, false
}

// LeftWeight returns the sum of node weights for every key strictly
// less than key, if key is present.
func (m Map[K, V]) LeftWeight(key K) (uint64, bool) {
	n := m.root
	var acc uint64
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			acc += weightOf(n.left) + n.weight
			n = n.right
		default:
			return acc + weightOf(n.left), true
		}
	}
	return 0, false
}

// RightWeight returns the sum of node weights for every key strictly
// greater than key, if key is present.
func (m Map[K, V]) RightWeight(key K) (uint64, bool) {
	n := m.root
	var acc uint64
	for n != nil {
		switch {
		case key > n.key:
			n = n.right
		case key < n.key:
			acc += weightOf(n.right) + n.weight
			n = n.left
		default:
			return acc + weightOf(n.right), true
		}
	}
	return 0, false
}

// Visit is called once per visited entry during a traversal. leftWeight
// and rightWeight are accumulated over the whole tree, not the current
// subtree. Return false to stop the traversal early.
type Visit[K cmp.Ordered, V any] func(key K, value V, leftWeight, nodeWeight, rightWeight uint64) bool

// ForEach visits every entry in ascending key order.
func (m Map[K, V]) ForEach(visit Visit[K, V]) {
	forEach(m.root, 0, 0, visit)
}

func forEach[K cmp.Ordered, V any](n *node[K, V], parentLeft, parentRight uint64, visit Visit[K, V]) bool {
	if n == nil {
		return true
	}
	if !forEach(n.left, parentLeft, parentRight+n.weight+weightOf(n.right), visit) {
		return false
	}
	if !visit(n.key, n.value, parentLeft+weightOf(n.left), n.weight, parentRight+weightOf(n.right)) {
		return false
	}
	return forEach(n.right, parentLeft+n.weight+weightOf(n.left), parentRight, visit)
}

// ForEachReverse visits every entry in descending key order. The
// emitted leftWeight/rightWeight retain the same meaning as ForEach
// (weight of keys strictly less/greater), only the visiting order
// changes.
func (m Map[K, V]) ForEachReverse(visit Visit[K, V]) {
	forEachReverse(m.root, 0, 0, visit)
}

func forEachReverse[K cmp.Ordered, V any](n *node[K, V], parentLeft, parentRight uint64, visit Visit[K, V]) bool {
	if n == nil {
		return true
	}
	if !forEachReverse(n.right, parentLeft+n.weight+weightOf(n.left), parentRight, visit) {
		return false
	}
	if !visit(n.key, n.value, parentLeft+weightOf(n.left), n.weight, parentRight+weightOf(n.right)) {
		return false
	}
	return forEachReverse(n.left, parentLeft, parentRight+n.weight+weightOf(n.right), visit)
}

// IsEmpty reports whether the map has no entries.
func (m Map[K, V]) IsEmpty() bool {
	return m.root == nil
}

// Height reports the height of the tree, or 0 if empty. Exposed for
// invariant checks and metrics; not part of the map's logical
// contract.
func (m Map[K, V]) Height() int {
	return height(m.root)
}

// CheckInvariants walks the tree and reports whether the AVL balance
// invariant and every cached weight/height match a recomputation from
// children, and that BST ordering holds. Intended for tests and for
// the programming-error detection path described by the engine's
// error handling design; a violation indicates a bug in this package,
// not a runtime condition callers should expect to handle.
func (m Map[K, V]) CheckInvariants() bool {
	_, _, ok := checkInvariants(m.root)
	return ok
}

func checkInvariants[K cmp.Ordered, V any](n *node[K, V]) (h int, w uint64, ok bool) {
	if n == nil {
		return 0, 0, true
	}
	lh, lw, lok := checkInvariants(n.left)
	rh, rw, rok := checkInvariants(n.right)
	if !lok || !rok {
		return 0, 0, false
	}
	if n.left != nil && !(n.left.key < n.key) {
		return 0, 0, false
	}
	if n.right != nil && !(n.right.key > n.key) {
		return 0, 0, false
	}
	bf := lh - rh
	if bf < -1 || bf > 1 {
		return 0, 0, false
	}
	wantHeight := lh + 1
	if rh > lh {
		wantHeight = rh + 1
	}
	wantWeight := n.weight + lw + rw
	if n.height != wantHeight || n.subtreeWeight != wantWeight {
		return 0, 0, false
	}
	return n.height, n.subtreeWeight, true
}
