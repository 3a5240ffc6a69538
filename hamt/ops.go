package hamt

import (
	"github.com/jrhy/persistent/internal/invariant"
	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// Lookup returns the value stored under k.
func Lookup[K, V any](cfg *keys.Hasher[K], k K, root Node[K, V]) (V, bool) {
	return lookup(cfg, cfg.Hash(k), 0, k, root)
}

func lookup[K, V any](cfg *keys.Hasher[K], h uint32, shift uint, k K, n Node[K, V]) (V, bool) {
	var zero V
	for {
		switch t := n.(type) {
		case nil:
			return zero, false
		case *leaf[K, V]:
			if t.hash == h && cfg.Equal(t.key, k) {
				return t.val, true
			}
			return zero, false
		case *collision[K, V]:
			if t.hash != h {
				return zero, false
			}
			return tree.Lookup(&cfg.Order, k, t.entries)
		case *bitmap[K, V]:
			bit := bitpos(h, shift)
			if t.bitmap&bit == 0 {
				return zero, false
			}
			n = t.children[index(t.bitmap, bit)]
		case *full[K, V]:
			n = t.children[chunk(h, shift)]
		default:
			invariant.Panicf(log, "lookup reached %T", n)
		}
		shift += bitsPerLevel
	}
}

// Insert stores f(old, present) under k and reports whether k was new. If
// k is present and f returns the value already stored, root is returned
// unchanged.
func Insert[K, V any](cfg *keys.Hasher[K], k K, f func(old V, ok bool) V, root Node[K, V]) (Node[K, V], bool) {
	n, delta := alter(cfg, cfg.Hash(k), 0, k, func(old V, ok bool) (V, bool) {
		return f(old, ok), true
	}, root)
	return n, delta > 0
}

// Set stores v under k and reports whether k was new.
func Set[K, V any](cfg *keys.Hasher[K], k K, v V, root Node[K, V]) (Node[K, V], bool) {
	return Insert(cfg, k, func(V, bool) V { return v }, root)
}

// Alter is Insert where f may also delete the entry by returning false. It
// reports the change in size: -1, 0 or 1.
func Alter[K, V any](cfg *keys.Hasher[K], k K, f func(old V, ok bool) (V, bool), root Node[K, V]) (Node[K, V], int) {
	return alter(cfg, cfg.Hash(k), 0, k, f, root)
}

// Remove deletes k and reports whether it was present. If it was not, root
// is returned unchanged.
func Remove[K, V any](cfg *keys.Hasher[K], k K, root Node[K, V]) (Node[K, V], bool) {
	n, delta := alter(cfg, cfg.Hash(k), 0, k, func(V, bool) (v V, ok bool) { return }, root)
	return n, delta < 0
}

// alter applies f to the entry for k, whose hash is h, in the subtree n
// rooted at the given shift.
func alter[K, V any](cfg *keys.Hasher[K], h uint32, shift uint, k K, f func(old V, ok bool) (V, bool), n Node[K, V]) (Node[K, V], int) {
	var zero V
	switch t := n.(type) {
	case nil:
		v, ok := f(zero, false)
		if !ok {
			return nil, 0
		}
		return &leaf[K, V]{hash: h, key: k, val: v}, 1

	case *leaf[K, V]:
		if t.hash == h && cfg.Equal(t.key, k) {
			v, ok := f(t.val, true)
			switch {
			case !ok:
				return nil, -1
			case same.Value(v, t.val):
				return t, 0
			}
			return &leaf[K, V]{hash: h, key: t.key, val: v}, 0
		}
		v, ok := f(zero, false)
		if !ok {
			return t, 0
		}
		if t.hash == h {
			entries := tree.Set(&cfg.Order, k, v, tree.Singleton(t.key, t.val))
			return &collision[K, V]{hash: h, entries: entries}, 1
		}
		return join[K, V](shift, t, &leaf[K, V]{hash: h, key: k, val: v}), 1

	case *collision[K, V]:
		if t.hash != h {
			v, ok := f(zero, false)
			if !ok {
				return t, 0
			}
			return join[K, V](shift, t, &leaf[K, V]{hash: h, key: k, val: v}), 1
		}
		entries := tree.Alter(&cfg.Order, k, f, t.entries)
		if entries == t.entries {
			return t, 0
		}
		return collisionOf(h, entries), entries.Len() - t.entries.Len()

	case *bitmap[K, V], *full[K, V]:
		c := chunk(h, shift)
		child := slot(n, c)
		nc, delta := alter(cfg, h, shift+bitsPerLevel, k, f, child)
		switch {
		case nc == child:
			return n, 0
		case nc == nil:
			return without(n, c), delta
		}
		return with(n, c, nc), delta
	}
	invariant.Panicf(log, "alter reached %T", n)
	return nil, 0
}
