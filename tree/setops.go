package tree

import (
	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/keys"
)

// Split partitions root around k into the entries below k and above k.
// match is the node holding k, if any; only its Key and Value are
// meaningful. A side that keeps a whole subtree of root shares it.
func Split[K, V any](cfg *keys.Order[K], k K, root *Node[K, V]) (below, match, above *Node[K, V]) {
	if root == nil {
		return nil, nil, nil
	}
	c := cfg.Compare(k, root.key)
	switch {
	case c < 0:
		lt, m, gt := Split(cfg, k, root.left)
		if gt == root.left {
			return lt, m, root
		}
		return lt, m, link(root.key, root.val, gt, root.right)
	case c > 0:
		lt, m, gt := Split(cfg, k, root.right)
		if lt == root.right {
			return root, m, gt
		}
		return link(root.key, root.val, root.left, lt), m, gt
	}
	return root.left, root, root.right
}

// Union returns the entries of a and b. Where both hold a key, the value is
// f(valueInA, valueInB, key). When the result equals a, a is returned.
func Union[K, V any](cfg *keys.Order[K], f func(a, b V, k K) V, a, b *Node[K, V]) *Node[K, V] {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a == b:
		return MapValues(func(k K, v V) V { return f(v, v, k) }, a)
	case b.size == 1:
		return Insert(cfg, b.key, func(old V, ok bool) V {
			if ok {
				return f(old, b.val, b.key)
			}
			return b.val
		}, a)
	case a.size == 1:
		return Insert(cfg, a.key, func(old V, ok bool) V {
			if ok {
				return f(a.val, old, a.key)
			}
			return a.val
		}, b)
	}
	lt, m, gt := Split(cfg, a.key, b)
	l := Union(cfg, f, a.left, lt)
	r := Union(cfg, f, a.right, gt)
	v := a.val
	if m != nil {
		v = f(a.val, m.val, a.key)
	}
	if l == a.left && r == a.right && same.Value(v, a.val) {
		return a
	}
	return link(a.key, v, l, r)
}

// Intersection returns the keys present in both a and b, valued
// f(valueInA, valueInB, key).
func Intersection[K, V any](cfg *keys.Order[K], f func(a, b V, k K) V, a, b *Node[K, V]) *Node[K, V] {
	switch {
	case a == nil || b == nil:
		return nil
	case a == b:
		return MapValues(func(k K, v V) V { return f(v, v, k) }, a)
	}
	lt, m, gt := Split(cfg, a.key, b)
	l := Intersection(cfg, f, a.left, lt)
	r := Intersection(cfg, f, a.right, gt)
	if m == nil {
		return merge(l, r)
	}
	v := f(a.val, m.val, a.key)
	if l == a.left && r == a.right && same.Value(v, a.val) {
		return a
	}
	return link(a.key, v, l, r)
}

// Difference returns the entries of a whose keys are not in b.
func Difference[K, V, W any](cfg *keys.Order[K], a *Node[K, V], b *Node[K, W]) *Node[K, V] {
	if a == nil || b == nil {
		return a
	}
	lt, _, gt := Split(cfg, b.key, a)
	l := Difference(cfg, lt, b.left)
	r := Difference(cfg, gt, b.right)
	if l.Len()+r.Len() == a.size {
		return a
	}
	return merge(l, r)
}

// SymmetricDifference returns the entries whose keys are in exactly one of
// a and b.
func SymmetricDifference[K, V any](cfg *keys.Order[K], a, b *Node[K, V]) *Node[K, V] {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a == b:
		return nil
	}
	lt, m, gt := Split(cfg, a.key, b)
	l := SymmetricDifference(cfg, a.left, lt)
	r := SymmetricDifference(cfg, a.right, gt)
	if m != nil {
		return merge(l, r)
	}
	if l == a.left && r == a.right {
		return a
	}
	return link(a.key, a.val, l, r)
}

// IsKeySubset reports whether every key of a is in b.
func IsKeySubset[K, V, W any](cfg *keys.Order[K], a *Node[K, V], b *Node[K, W]) bool {
	if a == nil {
		return true
	}
	if a.size > b.Len() {
		return false
	}
	lt, m, gt := Split(cfg, a.key, b)
	return m != nil && IsKeySubset(cfg, a.left, lt) && IsKeySubset(cfg, a.right, gt)
}

// IsDisjoint reports whether a and b share no key.
func IsDisjoint[K, V, W any](cfg *keys.Order[K], a *Node[K, V], b *Node[K, W]) bool {
	if a == nil || b == nil {
		return true
	}
	lt, m, gt := Split(cfg, a.key, b)
	return m == nil && IsDisjoint(cfg, a.left, lt) && IsDisjoint(cfg, a.right, gt)
}

// Adjust alters a at every key of b: the entry becomes f(old, present,
// valueInB, key), or is dropped when f returns false. Keys of a absent from
// b are kept as they are.
func Adjust[K, V, W any](cfg *keys.Order[K], f func(old V, ok bool, helper W, k K) (V, bool), a *Node[K, V], b *Node[K, W]) *Node[K, V] {
	if b == nil {
		return a
	}
	if a == nil {
		var zero V
		l := Adjust(cfg, f, nil, b.left)
		r := Adjust(cfg, f, nil, b.right)
		v, ok := f(zero, false, b.val, b.key)
		if !ok {
			return merge(l, r)
		}
		return link(b.key, v, l, r)
	}
	lt, m, gt := Split(cfg, a.key, b)
	l := Adjust(cfg, f, a.left, lt)
	r := Adjust(cfg, f, a.right, gt)
	v, ok := a.val, true
	if m != nil {
		v, ok = f(a.val, true, m.val, a.key)
	}
	if !ok {
		return merge(l, r)
	}
	if l == a.left && r == a.right && same.Value(v, a.val) {
		return a
	}
	return link(a.key, v, l, r)
}
