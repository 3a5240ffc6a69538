package hamt

import (
	"github.com/jrhy/persistent/internal/invariant"
	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// mutNode is a trie node under construction. Its fields and child arrays
// are updated in place until the single Build or From call that made it
// returns. Leaves and collisions are built as the persistent nodes they
// become; only internal nodes have mutable twins, which freeze replaces.
type mutNode[K, V any] interface {
	isMutable(K, V)
}

type mutBitmap[K, V any] struct {
	bitmap   uint32
	children []mutNode[K, V]
}

type mutFull[K, V any] struct {
	children [branching]mutNode[K, V]
}

func (*leaf[K, V]) isMutable(K, V)      {}
func (*collision[K, V]) isMutable(K, V) {}
func (*mutBitmap[K, V]) isMutable(K, V) {}
func (*mutFull[K, V]) isMutable(K, V)   {}

// Build inserts every item into an empty trie and reports its size. valOf
// receives the value already built for the item's key, if an earlier item
// had the same key.
func Build[T, K, V any](cfg *keys.Hasher[K], items []T, keyOf func(T) K, valOf func(old V, ok bool, item T) V) (Node[K, V], int) {
	var root mutNode[K, V]
	size := 0
	for _, item := range items {
		item := item
		k := keyOf(item)
		var inserted bool
		root, inserted = mutate(cfg, cfg.Hash(k), 0, k, func(old V, ok bool) V {
			return valOf(old, ok, item)
		}, root)
		if inserted {
			size++
		}
	}
	log.Debugf("built trie of %d entries from %d items", size, len(items))
	return freeze(root), size
}

// From builds a trie from entries and reports its size. Values for
// repeated keys are combined with merge(earlier, later, key); a nil merge
// keeps the later value.
func From[K, V any](cfg *keys.Hasher[K], entries []tree.Entry[K, V], merge func(a, b V, k K) V) (Node[K, V], int) {
	var root mutNode[K, V]
	size := 0
	for _, e := range entries {
		var inserted bool
		root, inserted = mutateInsert(cfg, e.Key, e.Value, merge, root)
		if inserted {
			size++
		}
	}
	log.Debugf("built trie of %d entries from %d entries", size, len(entries))
	return freeze(root), size
}

// mutateInsert stores v under k in the trie under construction, combining
// with merge(old, v, k) if k is already present.
func mutateInsert[K, V any](cfg *keys.Hasher[K], k K, v V, merge func(a, b V, k K) V, root mutNode[K, V]) (mutNode[K, V], bool) {
	return mutate(cfg, cfg.Hash(k), 0, k, func(old V, ok bool) V {
		if ok && merge != nil {
			return merge(old, v, k)
		}
		return v
	}, root)
}

func mutate[K, V any](cfg *keys.Hasher[K], h uint32, shift uint, k K, f func(old V, ok bool) V, n mutNode[K, V]) (mutNode[K, V], bool) {
	var zero V
	switch t := n.(type) {
	case nil:
		return &leaf[K, V]{hash: h, key: k, val: f(zero, false)}, true

	case *leaf[K, V]:
		if t.hash == h && cfg.Equal(t.key, k) {
			t.val = f(t.val, true)
			return t, false
		}
		v := f(zero, false)
		if t.hash == h {
			entries := tree.Set(&cfg.Order, k, v, tree.Singleton(t.key, t.val))
			return &collision[K, V]{hash: h, entries: entries}, true
		}
		return mutJoin[K, V](shift, t, &leaf[K, V]{hash: h, key: k, val: v}), true

	case *collision[K, V]:
		if t.hash != h {
			return mutJoin[K, V](shift, t, &leaf[K, V]{hash: h, key: k, val: f(zero, false)}), true
		}
		before := t.entries.Len()
		t.entries = tree.Insert(&cfg.Order, k, f, t.entries)
		return t, t.entries.Len() > before

	case *mutBitmap[K, V]:
		bit := bitpos(h, shift)
		i := index(t.bitmap, bit)
		if t.bitmap&bit != 0 {
			child, inserted := mutate(cfg, h, shift+bitsPerLevel, k, f, t.children[i])
			t.children[i] = child
			return t, inserted
		}
		l := &leaf[K, V]{hash: h, key: k, val: f(zero, false)}
		if len(t.children) == branching-1 {
			promoted := &mutFull[K, V]{}
			j := 0
			for c := 0; c < branching; c++ {
				if t.bitmap&(1<<c) != 0 {
					promoted.children[c] = t.children[j]
					j++
				} else {
					promoted.children[c] = l
				}
			}
			return promoted, true
		}
		t.children = append(t.children, nil)
		copy(t.children[i+1:], t.children[i:])
		t.children[i] = l
		t.bitmap |= bit
		return t, true

	case *mutFull[K, V]:
		c := chunk(h, shift)
		child, inserted := mutate(cfg, h, shift+bitsPerLevel, k, f, t.children[c])
		t.children[c] = child
		return t, inserted
	}
	invariant.Panicf(log, "mutate reached %T", n)
	return nil, false
}

func mutHash[K, V any](n mutNode[K, V]) uint32 {
	switch t := n.(type) {
	case *leaf[K, V]:
		return t.hash
	case *collision[K, V]:
		return t.hash
	}
	invariant.Panicf(log, "hash of internal node %T", n)
	return 0
}

func mutJoin[K, V any](shift uint, a, b mutNode[K, V]) mutNode[K, V] {
	ah, bh := mutHash(a), mutHash(b)
	if ah == bh || shift > maxShift {
		invariant.Panicf(log, "join of hashes %08x and %08x at shift %d", ah, bh, shift)
	}
	ca, cb := chunk(ah, shift), chunk(bh, shift)
	if ca == cb {
		return &mutBitmap[K, V]{bitmap: 1 << ca, children: []mutNode[K, V]{mutJoin(shift+bitsPerLevel, a, b)}}
	}
	if ca > cb {
		a, b = b, a
		ca, cb = cb, ca
	}
	return &mutBitmap[K, V]{bitmap: 1<<ca | 1<<cb, children: []mutNode[K, V]{a, b}}
}

// freeze converts a finished trie under construction into persistent nodes.
// Leaves and collisions are already persistent and are kept as they are.
func freeze[K, V any](n mutNode[K, V]) Node[K, V] {
	switch t := n.(type) {
	case nil:
		return nil
	case *leaf[K, V]:
		return t
	case *collision[K, V]:
		return t
	case *mutBitmap[K, V]:
		children := make([]Node[K, V], len(t.children))
		for i, c := range t.children {
			children[i] = freeze(c)
		}
		return internal(t.bitmap, children)
	case *mutFull[K, V]:
		f := &full[K, V]{}
		for i, c := range t.children {
			f.children[i] = freeze(c)
		}
		return f
	}
	invariant.Panicf(log, "freeze reached %T", n)
	return nil
}
