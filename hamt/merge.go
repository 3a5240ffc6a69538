package hamt

import (
	"math/bits"

	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// Union returns the entries of a and b, and how many keys were in both.
// Where both hold a key, the value is f(valueInA, valueInB, key). When the
// result equals a, a is returned.
func Union[K, V any](cfg *keys.Hasher[K], f func(a, b V, k K) V, a, b Node[K, V]) (Node[K, V], int) {
	return union(cfg, f, 0, a, b)
}

func union[K, V any](cfg *keys.Hasher[K], f func(a, b V, k K) V, shift uint, a, b Node[K, V]) (Node[K, V], int) {
	switch {
	case a == nil:
		return b, 0
	case b == nil:
		return a, 0
	}
	if ca, cb, ok := sameBucket(a, b); ok {
		entries := tree.Union(&cfg.Order, f, ca.entries, cb.entries)
		matched := ca.entries.Len() + cb.entries.Len() - entries.Len()
		if entries == ca.entries {
			return a, matched
		}
		return collisionOf(ca.hash, entries), matched
	}
	if terminal(b) {
		n, matched := a, 0
		eachHashed(b, func(h uint32, k K, v V) {
			var delta int
			n, delta = alter(cfg, h, shift, k, func(old V, ok bool) (V, bool) {
				if ok {
					return f(old, v, k), true
				}
				return v, true
			}, n)
			matched += 1 - delta
		})
		return n, matched
	}
	if terminal(a) {
		n, matched := b, 0
		eachHashed(a, func(h uint32, k K, v V) {
			var delta int
			n, delta = alter(cfg, h, shift, k, func(old V, ok bool) (V, bool) {
				if ok {
					return f(v, old, k), true
				}
				return v, true
			}, n)
			matched += 1 - delta
		})
		return n, matched
	}
	bm := occupied(a) | occupied(b)
	children := make([]Node[K, V], 0, bits.OnesCount32(bm))
	changed, matched := false, 0
	for rest := bm; rest != 0; rest &= rest - 1 {
		c := uint32(bits.TrailingZeros32(rest))
		ca := slot(a, c)
		r, m := union(cfg, f, shift+bitsPerLevel, ca, slot(b, c))
		changed = changed || r != ca
		matched += m
		children = append(children, r)
	}
	if !changed {
		return a, matched
	}
	return internal(bm, children), matched
}

// Intersection returns the keys present in both a and b, valued
// f(valueInA, valueInB, key), and the size of the result.
func Intersection[K, V any](cfg *keys.Hasher[K], f func(a, b V, k K) V, a, b Node[K, V]) (Node[K, V], int) {
	return intersection(cfg, f, 0, a, b)
}

func intersection[K, V any](cfg *keys.Hasher[K], f func(a, b V, k K) V, shift uint, a, b Node[K, V]) (Node[K, V], int) {
	if a == nil || b == nil {
		return nil, 0
	}
	if ca, cb, ok := sameBucket(a, b); ok {
		entries := tree.Intersection(&cfg.Order, f, ca.entries, cb.entries)
		if entries == ca.entries {
			return a, entries.Len()
		}
		return collisionOf(ca.hash, entries), entries.Len()
	}
	switch t := a.(type) {
	case *leaf[K, V]:
		bv, ok := lookup(cfg, t.hash, shift, t.key, b)
		if !ok {
			return nil, 0
		}
		v := f(t.val, bv, t.key)
		if same.Value(v, t.val) {
			return t, 1
		}
		return &leaf[K, V]{hash: t.hash, key: t.key, val: v}, 1
	case *collision[K, V]:
		entries := tree.CollectValues(func(k K, v V) (V, bool) {
			bv, ok := lookup(cfg, t.hash, shift, k, b)
			if !ok {
				return v, false
			}
			return f(v, bv, k), true
		}, false, t.entries)
		if entries == t.entries {
			return t, entries.Len()
		}
		return collisionOf(t.hash, entries), entries.Len()
	}
	switch t := b.(type) {
	case *leaf[K, V]:
		av, ok := lookup(cfg, t.hash, shift, t.key, a)
		if !ok {
			return nil, 0
		}
		return &leaf[K, V]{hash: t.hash, key: t.key, val: f(av, t.val, t.key)}, 1
	case *collision[K, V]:
		entries := tree.CollectValues(func(k K, v V) (V, bool) {
			av, ok := lookup(cfg, t.hash, shift, k, a)
			if !ok {
				return v, false
			}
			return f(av, v, k), true
		}, false, t.entries)
		return collisionOf(t.hash, entries), entries.Len()
	}
	bm := occupied(a) & occupied(b)
	changed := bm != occupied(a)
	var out uint32
	var children []Node[K, V]
	size := 0
	for rest := bm; rest != 0; rest &= rest - 1 {
		c := uint32(bits.TrailingZeros32(rest))
		ca := slot(a, c)
		r, n := intersection(cfg, f, shift+bitsPerLevel, ca, slot(b, c))
		changed = changed || r != ca
		size += n
		if r != nil {
			out |= 1 << c
			children = append(children, r)
		}
	}
	if !changed {
		return a, size
	}
	return internal(out, children), size
}

// Difference returns the entries of a whose keys are not in b, and how many
// entries were removed.
func Difference[K, V, W any](cfg *keys.Hasher[K], a Node[K, V], b Node[K, W]) (Node[K, V], int) {
	return difference(cfg, 0, a, b)
}

func difference[K, V, W any](cfg *keys.Hasher[K], shift uint, a Node[K, V], b Node[K, W]) (Node[K, V], int) {
	if a == nil || b == nil {
		return a, 0
	}
	if ca, ok := a.(*collision[K, V]); ok {
		if cb, ok := b.(*collision[K, W]); ok && ca.hash == cb.hash {
			entries := tree.Difference(&cfg.Order, ca.entries, cb.entries)
			if entries == ca.entries {
				return a, 0
			}
			return collisionOf(ca.hash, entries), ca.entries.Len() - entries.Len()
		}
	}
	if terminal(b) {
		n, removed := a, 0
		eachHashed(b, func(h uint32, k K, _ W) {
			var delta int
			n, delta = alter(cfg, h, shift, k, func(V, bool) (v V, ok bool) { return }, n)
			removed -= delta
		})
		return n, removed
	}
	switch t := a.(type) {
	case *leaf[K, V]:
		if _, ok := lookup(cfg, t.hash, shift, t.key, b); ok {
			return nil, 1
		}
		return t, 0
	case *collision[K, V]:
		entries := tree.CollectValues(func(k K, v V) (V, bool) {
			_, ok := lookup(cfg, t.hash, shift, k, b)
			return v, !ok
		}, false, t.entries)
		if entries == t.entries {
			return t, 0
		}
		return collisionOf(t.hash, entries), t.entries.Len() - entries.Len()
	}
	bm := occupied(a)
	var out uint32
	children := make([]Node[K, V], 0, bits.OnesCount32(bm))
	changed, removed := false, 0
	for rest := bm; rest != 0; rest &= rest - 1 {
		c := uint32(bits.TrailingZeros32(rest))
		ca := slot(a, c)
		r, n := ca, 0
		if occupied(b)&(1<<c) != 0 {
			r, n = difference(cfg, shift+bitsPerLevel, ca, slot(b, c))
		}
		changed = changed || r != ca
		removed += n
		if r != nil {
			out |= 1 << c
			children = append(children, r)
		}
	}
	if !changed {
		return a, 0
	}
	return internal(out, children), removed
}

// Adjust alters a at every key of b: the entry becomes f(old, present,
// valueInB, key), or is dropped when f returns false. Keys of a absent from
// b are kept as they are. It reports the change in size.
func Adjust[K, V, W any](cfg *keys.Hasher[K], f func(old V, ok bool, helper W, k K) (V, bool), a Node[K, V], b Node[K, W]) (Node[K, V], int) {
	return adjust(cfg, f, 0, a, b)
}

func adjust[K, V, W any](cfg *keys.Hasher[K], f func(old V, ok bool, helper W, k K) (V, bool), shift uint, a Node[K, V], b Node[K, W]) (Node[K, V], int) {
	if b == nil {
		return a, 0
	}
	if ca, ok := a.(*collision[K, V]); ok {
		if cb, ok := b.(*collision[K, W]); ok && ca.hash == cb.hash {
			entries := tree.Adjust(&cfg.Order, f, ca.entries, cb.entries)
			if entries == ca.entries {
				return a, 0
			}
			return collisionOf(ca.hash, entries), entries.Len() - ca.entries.Len()
		}
	}
	if a == nil || terminal(a) || terminal(b) {
		n, delta := a, 0
		eachHashed(b, func(h uint32, k K, w W) {
			var d int
			n, d = alter(cfg, h, shift, k, func(old V, ok bool) (V, bool) {
				return f(old, ok, w, k)
			}, n)
			delta += d
		})
		return n, delta
	}
	bm := occupied(a) | occupied(b)
	var out uint32
	children := make([]Node[K, V], 0, bits.OnesCount32(bm))
	changed, delta := false, 0
	for rest := bm; rest != 0; rest &= rest - 1 {
		c := uint32(bits.TrailingZeros32(rest))
		ca := slot(a, c)
		r, d := ca, 0
		if occupied(b)&(1<<c) != 0 {
			r, d = adjust(cfg, f, shift+bitsPerLevel, ca, slot(b, c))
		}
		changed = changed || r != ca
		delta += d
		if r != nil {
			out |= 1 << c
			children = append(children, r)
		}
	}
	if !changed {
		return a, 0
	}
	return internal(out, children), delta
}

// sameBucket reports whether a and b are collision nodes for one hash.
func sameBucket[K, V any](a, b Node[K, V]) (*collision[K, V], *collision[K, V], bool) {
	ca, ok := a.(*collision[K, V])
	if !ok {
		return nil, nil, false
	}
	cb, ok := b.(*collision[K, V])
	if !ok || ca.hash != cb.hash {
		return nil, nil, false
	}
	return ca, cb, true
}
