package tree

import (
	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/keys"
)

// Lookup returns the value stored under k.
func Lookup[K, V any](cfg *keys.Order[K], k K, root *Node[K, V]) (V, bool) {
	for n := root; n != nil; {
		c := cfg.Compare(k, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.val, true
		}
	}
	var zero V
	return zero, false
}

// Insert stores f(old, present) under k. If k is present and f returns the
// value already stored, root is returned unchanged.
func Insert[K, V any](cfg *keys.Order[K], k K, f func(old V, ok bool) V, root *Node[K, V]) *Node[K, V] {
	if root == nil {
		var zero V
		return Singleton(k, f(zero, false))
	}
	c := cfg.Compare(k, root.key)
	switch {
	case c < 0:
		l := Insert(cfg, k, f, root.left)
		if l == root.left {
			return root
		}
		return balance(root.key, root.val, l, root.right)
	case c > 0:
		r := Insert(cfg, k, f, root.right)
		if r == root.right {
			return root
		}
		return balance(root.key, root.val, root.left, r)
	}
	v := f(root.val, true)
	if same.Value(v, root.val) {
		return root
	}
	return &Node[K, V]{key: root.key, val: v, size: root.size, left: root.left, right: root.right}
}

// Set stores v under k.
func Set[K, V any](cfg *keys.Order[K], k K, v V, root *Node[K, V]) *Node[K, V] {
	return Insert(cfg, k, func(V, bool) V { return v }, root)
}

// Alter is Insert where f may also delete the entry by returning false.
func Alter[K, V any](cfg *keys.Order[K], k K, f func(old V, ok bool) (V, bool), root *Node[K, V]) *Node[K, V] {
	if root == nil {
		var zero V
		v, ok := f(zero, false)
		if !ok {
			return nil
		}
		return Singleton(k, v)
	}
	c := cfg.Compare(k, root.key)
	switch {
	case c < 0:
		l := Alter(cfg, k, f, root.left)
		if l == root.left {
			return root
		}
		return balance(root.key, root.val, l, root.right)
	case c > 0:
		r := Alter(cfg, k, f, root.right)
		if r == root.right {
			return root
		}
		return balance(root.key, root.val, root.left, r)
	}
	v, ok := f(root.val, true)
	if !ok {
		return glue(root.left, root.right)
	}
	if same.Value(v, root.val) {
		return root
	}
	return &Node[K, V]{key: root.key, val: v, size: root.size, left: root.left, right: root.right}
}

// Remove deletes k. If k is absent, root is returned unchanged.
func Remove[K, V any](cfg *keys.Order[K], k K, root *Node[K, V]) *Node[K, V] {
	if root == nil {
		return nil
	}
	c := cfg.Compare(k, root.key)
	switch {
	case c < 0:
		l := Remove(cfg, k, root.left)
		if l == root.left {
			return root
		}
		return balance(root.key, root.val, l, root.right)
	case c > 0:
		r := Remove(cfg, k, root.right)
		if r == root.right {
			return root
		}
		return balance(root.key, root.val, root.left, r)
	}
	return glue(root.left, root.right)
}

// LookupMin returns the smallest entry.
func LookupMin[K, V any](root *Node[K, V]) (K, V, bool) {
	if root == nil {
		var k K
		var v V
		return k, v, false
	}
	n := root
	for n.left != nil {
		n = n.left
	}
	return n.key, n.val, true
}

// LookupMax returns the largest entry.
func LookupMax[K, V any](root *Node[K, V]) (K, V, bool) {
	if root == nil {
		var k K
		var v V
		return k, v, false
	}
	n := root
	for n.right != nil {
		n = n.right
	}
	return n.key, n.val, true
}

// MinView returns the smallest entry and the tree without it.
func MinView[K, V any](root *Node[K, V]) (Entry[K, V], *Node[K, V], bool) {
	if root == nil {
		return Entry[K, V]{}, nil, false
	}
	k, v, rest := deleteMin(root)
	return Entry[K, V]{Key: k, Value: v}, rest, true
}

// MaxView returns the largest entry and the tree without it.
func MaxView[K, V any](root *Node[K, V]) (Entry[K, V], *Node[K, V], bool) {
	if root == nil {
		return Entry[K, V]{}, nil, false
	}
	k, v, rest := deleteMax(root)
	return Entry[K, V]{Key: k, Value: v}, rest, true
}

// MapValues replaces every value v under k with f(k, v), keeping the shape.
// Subtrees where f returns every value unchanged are shared with root.
func MapValues[K, V any](f func(k K, v V) V, root *Node[K, V]) *Node[K, V] {
	if root == nil {
		return nil
	}
	l := MapValues(f, root.left)
	v := f(root.key, root.val)
	r := MapValues(f, root.right)
	if l == root.left && r == root.right && same.Value(v, root.val) {
		return root
	}
	return &Node[K, V]{key: root.key, val: v, size: root.size, left: l, right: r}
}

// CollectValues is MapValues where f may drop an entry by returning false.
// With filterNil, nil results are dropped too.
func CollectValues[K, V any](f func(k K, v V) (V, bool), filterNil bool, root *Node[K, V]) *Node[K, V] {
	if root == nil {
		return nil
	}
	l := CollectValues(f, filterNil, root.left)
	v, ok := f(root.key, root.val)
	r := CollectValues(f, filterNil, root.right)
	if ok && filterNil && same.IsNil(v) {
		ok = false
	}
	if !ok {
		return merge(l, r)
	}
	if l == root.left && r == root.right && same.Value(v, root.val) {
		return root
	}
	return link(root.key, v, l, r)
}

// Build inserts every item in order. valOf receives the value already built
// for the item's key, if an earlier item had the same key.
func Build[T, K, V any](cfg *keys.Order[K], items []T, keyOf func(T) K, valOf func(old V, ok bool, item T) V) *Node[K, V] {
	var root *Node[K, V]
	for _, item := range items {
		item := item
		root = Insert(cfg, keyOf(item), func(old V, ok bool) V {
			return valOf(old, ok, item)
		}, root)
	}
	log.Tracef("built tree of %d entries from %d items", root.Len(), len(items))
	return root
}

// From builds a tree from entries. Values for repeated keys are combined
// with combine(earlier, later, key); a nil combine keeps the later value.
func From[K, V any](cfg *keys.Order[K], entries []Entry[K, V], combine func(a, b V, k K) V) *Node[K, V] {
	var root *Node[K, V]
	for _, e := range entries {
		e := e
		root = Insert(cfg, e.Key, func(old V, ok bool) V {
			if ok && combine != nil {
				return combine(old, e.Value, e.Key)
			}
			return e.Value
		}, root)
	}
	log.Tracef("built tree of %d entries from %d entries", root.Len(), len(entries))
	return root
}
