package hamt

import (
	"math/bits"

	"github.com/jrhy/persistent/internal/invariant"
	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/tree"
)

// Iterator walks a trie depth first. The order follows the key hashes and
// means nothing to callers, but it is the same for equal tries built the
// same way. Iterating again means asking for a new Iterator.
type Iterator[K, V any] struct {
	stack  []Node[K, V]
	bucket *tree.Iterator[K, V]
}

// Iterate returns an iterator over root.
func Iterate[K, V any](root Node[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{}
	if root != nil {
		it.stack = append(make([]Node[K, V], 0, 2*branching), root)
	}
	return it
}

// Next returns the next entry, or ok == false once the walk is done.
func (it *Iterator[K, V]) Next() (k K, v V, ok bool) {
	for {
		if it.bucket != nil {
			if k, v, ok = it.bucket.Next(); ok {
				return k, v, true
			}
			it.bucket = nil
		}
		if len(it.stack) == 0 {
			return k, v, false
		}
		n := it.stack[len(it.stack)-1]
		it.stack[len(it.stack)-1] = nil
		it.stack = it.stack[:len(it.stack)-1]
		switch t := n.(type) {
		case *leaf[K, V]:
			return t.key, t.val, true
		case *collision[K, V]:
			it.bucket = tree.IterateAsc(t.entries)
		case *bitmap[K, V]:
			for i := len(t.children) - 1; i >= 0; i-- {
				it.stack = append(it.stack, t.children[i])
			}
		case *full[K, V]:
			for i := branching - 1; i >= 0; i-- {
				it.stack = append(it.stack, t.children[i])
			}
		default:
			invariant.Panicf(log, "iterator reached %T", n)
		}
	}
}

// ForEach calls f on each entry until f returns false. It reports whether
// every entry was visited.
func ForEach[K, V any](root Node[K, V], f func(k K, v V) bool) bool {
	it := Iterate(root)
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		if !f(k, v) {
			return false
		}
	}
	return true
}

// Fold folds the entries in iteration order.
func Fold[K, V, A any](f func(acc A, k K, v V) A, acc A, root Node[K, V]) A {
	it := Iterate(root)
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		acc = f(acc, k, v)
	}
	return acc
}

// Len counts the entries of root by walking it.
func Len[K, V any](root Node[K, V]) int {
	return Fold(func(n int, _ K, _ V) int { return n + 1 }, 0, root)
}

// eachHashed calls f with every entry of n and its stored hash.
func eachHashed[K, V any](n Node[K, V], f func(h uint32, k K, v V)) {
	switch t := n.(type) {
	case nil:
	case *leaf[K, V]:
		f(t.hash, t.key, t.val)
	case *collision[K, V]:
		tree.ForEach(t.entries, func(k K, v V) bool {
			f(t.hash, k, v)
			return true
		})
	case *bitmap[K, V]:
		for _, c := range t.children {
			eachHashed(c, f)
		}
	case *full[K, V]:
		for _, c := range t.children {
			eachHashed(c, f)
		}
	default:
		invariant.Panicf(log, "walk reached %T", n)
	}
}

// MapValues replaces every value v under k with f(k, v), keeping the shape.
// Subtrees where f returns every value unchanged are shared with root.
func MapValues[K, V any](f func(k K, v V) V, root Node[K, V]) Node[K, V] {
	switch t := root.(type) {
	case nil:
		return nil
	case *leaf[K, V]:
		v := f(t.key, t.val)
		if same.Value(v, t.val) {
			return t
		}
		return &leaf[K, V]{hash: t.hash, key: t.key, val: v}
	case *collision[K, V]:
		entries := tree.MapValues(f, t.entries)
		if entries == t.entries {
			return t
		}
		return &collision[K, V]{hash: t.hash, entries: entries}
	case *bitmap[K, V]:
		var children []Node[K, V]
		for i, c := range t.children {
			nc := MapValues(f, c)
			if nc != c && children == nil {
				children = make([]Node[K, V], len(t.children))
				copy(children, t.children[:i])
			}
			if children != nil {
				children[i] = nc
			}
		}
		if children == nil {
			return t
		}
		return &bitmap[K, V]{bitmap: t.bitmap, children: children}
	case *full[K, V]:
		var out *full[K, V]
		for i, c := range t.children {
			nc := MapValues(f, c)
			if nc != c && out == nil {
				out = &full[K, V]{children: t.children}
			}
			if out != nil {
				out.children[i] = nc
			}
		}
		if out == nil {
			return t
		}
		return out
	}
	invariant.Panicf(log, "map reached %T", root)
	return nil
}

// CollectValues is MapValues where f may drop an entry by returning false.
// With filterNil, nil results are dropped too. It reports how many entries
// were dropped.
func CollectValues[K, V any](f func(k K, v V) (V, bool), filterNil bool, root Node[K, V]) (Node[K, V], int) {
	switch t := root.(type) {
	case nil:
		return nil, 0
	case *leaf[K, V]:
		v, ok := f(t.key, t.val)
		if !ok || filterNil && same.IsNil(v) {
			return nil, 1
		}
		if same.Value(v, t.val) {
			return t, 0
		}
		return &leaf[K, V]{hash: t.hash, key: t.key, val: v}, 0
	case *collision[K, V]:
		entries := tree.CollectValues(f, filterNil, t.entries)
		if entries == t.entries {
			return t, 0
		}
		return collisionOf(t.hash, entries), t.entries.Len() - entries.Len()
	case *bitmap[K, V], *full[K, V]:
		bm := occupied(root)
		var out uint32
		children := make([]Node[K, V], 0, bits.OnesCount32(bm))
		changed, removed := false, 0
		for rest := bm; rest != 0; rest &= rest - 1 {
			c := uint32(bits.TrailingZeros32(rest))
			child := slot(root, c)
			nc, n := CollectValues(f, filterNil, child)
			changed = changed || nc != child
			removed += n
			if nc != nil {
				out |= 1 << c
				children = append(children, nc)
			}
		}
		if !changed {
			return root, 0
		}
		return internal(out, children), removed
	}
	invariant.Panicf(log, "collect reached %T", root)
	return nil, 0
}
