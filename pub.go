package persistent

import (
	"fmt"

	"github.com/jrhy/persistent/hamt"
	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// Entry is a key and its value.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// SortedMap is an immutable map kept in key order. Updates return a new
// SortedMap sharing everything unchanged with the receiver, which remains
// valid. SortedMaps may be read from many goroutines at once.
type SortedMap[K, V any] struct {
	order *keys.Order[K]
	root  *tree.Node[K, V]
}

// NewSortedMap returns an empty SortedMap ordered by order.
func NewSortedMap[K, V any](order *keys.Order[K]) SortedMap[K, V] {
	return SortedMap[K, V]{order: order}
}

// NewSortedMapOf returns an empty SortedMap with the order derived for K.
func NewSortedMapOf[K, V any]() (SortedMap[K, V], error) {
	order, err := keys.OrderOf[K]()
	if err != nil {
		return SortedMap[K, V]{}, fmt.Errorf("sorted map: %w", err)
	}
	return NewSortedMap[K, V](order), nil
}

// SortedMapFrom builds a SortedMap from entries. Values for repeated keys
// are combined with merge(earlier, later, key); a nil merge keeps the later
// value.
func SortedMapFrom[K, V any](order *keys.Order[K], entries []Entry[K, V], merge func(a, b V, k K) V) SortedMap[K, V] {
	return SortedMap[K, V]{order: order, root: tree.From(order, treeEntries(entries), merge)}
}

func (m SortedMap[K, V]) with(root *tree.Node[K, V]) SortedMap[K, V] {
	return SortedMap[K, V]{order: m.order, root: root}
}

// Len returns the number of entries.
func (m SortedMap[K, V]) Len() int {
	return m.root.Len()
}

// Get returns the value stored under k.
func (m SortedMap[K, V]) Get(k K) (V, bool) {
	return tree.Lookup(m.order, k, m.root)
}

// Set returns the map with v stored under k.
func (m SortedMap[K, V]) Set(k K, v V) SortedMap[K, V] {
	return m.with(tree.Set(m.order, k, v, m.root))
}

// Update returns the map with the entry for k replaced by f(old, present),
// or removed if f returns false.
func (m SortedMap[K, V]) Update(k K, f func(old V, ok bool) (V, bool)) SortedMap[K, V] {
	return m.with(tree.Alter(m.order, k, f, m.root))
}

// Delete returns the map without k.
func (m SortedMap[K, V]) Delete(k K) SortedMap[K, V] {
	return m.with(tree.Remove(m.order, k, m.root))
}

// Union returns the entries of both maps; merge(mine, theirs, key) decides
// the value of keys in both. A nil merge keeps mine.
func (m SortedMap[K, V]) Union(o SortedMap[K, V], merge func(a, b V, k K) V) SortedMap[K, V] {
	return m.with(tree.Union(m.order, orFirst(merge), m.root, o.root))
}

// Intersection returns the keys in both maps, valued merge(mine, theirs, key).
// A nil merge keeps mine.
func (m SortedMap[K, V]) Intersection(o SortedMap[K, V], merge func(a, b V, k K) V) SortedMap[K, V] {
	return m.with(tree.Intersection(m.order, orFirst(merge), m.root, o.root))
}

// Difference returns the entries whose keys are not in o.
func (m SortedMap[K, V]) Difference(o SortedMap[K, V]) SortedMap[K, V] {
	return m.with(tree.Difference(m.order, m.root, o.root))
}

// SymmetricDifference returns the entries whose keys are in just one map.
func (m SortedMap[K, V]) SymmetricDifference(o SortedMap[K, V]) SortedMap[K, V] {
	return m.with(tree.SymmetricDifference(m.order, m.root, o.root))
}

// Min returns the entry with the smallest key.
func (m SortedMap[K, V]) Min() (K, V, bool) {
	return tree.LookupMin(m.root)
}

// Max returns the entry with the largest key.
func (m SortedMap[K, V]) Max() (K, V, bool) {
	return tree.LookupMax(m.root)
}

// Iter returns an iterator over the entries in ascending key order.
func (m SortedMap[K, V]) Iter() *tree.Iterator[K, V] {
	return tree.IterateAsc(m.root)
}

// IterFrom returns an iterator from the first key >= k, or with desc,
// descending from the last key <= k.
func (m SortedMap[K, V]) IterFrom(k K, desc bool) *tree.Iterator[K, V] {
	return tree.IterateFrom(m.order, k, m.root, desc)
}

// DiffIter invokes the given callback for every entry that differs from the
// given old map, in key order, until the callback returns false. A changed
// entry is reported as both added and removed.
func (m SortedMap[K, V]) DiffIter(
	old SortedMap[K, V],
	f func(added, removed bool, key K, addedValue, removedValue V) bool,
) {
	tree.Diff(m.order, old.root, m.root, f)
}

// Same reports whether m and o are the same version, not merely equal.
func (m SortedMap[K, V]) Same(o SortedMap[K, V]) bool {
	return m.root == o.root
}

// HashMap is an immutable map over hashed keys, iterated in no particular
// order. Like SortedMap, updates return new versions and never disturb the
// receiver.
type HashMap[K, V any] struct {
	hasher *keys.Hasher[K]
	root   hamt.Node[K, V]
	size   int
}

// NewHashMap returns an empty HashMap hashed by hasher.
func NewHashMap[K, V any](hasher *keys.Hasher[K]) HashMap[K, V] {
	return HashMap[K, V]{hasher: hasher}
}

// NewHashMapOf returns an empty HashMap with the hash derived for K.
func NewHashMapOf[K, V any]() (HashMap[K, V], error) {
	hasher, err := keys.HashOf[K]()
	if err != nil {
		return HashMap[K, V]{}, fmt.Errorf("hash map: %w", err)
	}
	return NewHashMap[K, V](hasher), nil
}

// HashMapFrom builds a HashMap from entries. Values for repeated keys are
// combined with merge(earlier, later, key); a nil merge keeps the later
// value.
func HashMapFrom[K, V any](hasher *keys.Hasher[K], entries []Entry[K, V], merge func(a, b V, k K) V) HashMap[K, V] {
	root, size := hamt.From(hasher, treeEntries(entries), merge)
	return HashMap[K, V]{hasher: hasher, root: root, size: size}
}

func (m HashMap[K, V]) with(root hamt.Node[K, V], size int) HashMap[K, V] {
	if root == m.root {
		return m
	}
	return HashMap[K, V]{hasher: m.hasher, root: root, size: size}
}

// Len returns the number of entries.
func (m HashMap[K, V]) Len() int {
	return m.size
}

// Get returns the value stored under k.
func (m HashMap[K, V]) Get(k K) (V, bool) {
	return hamt.Lookup(m.hasher, k, m.root)
}

// Set returns the map with v stored under k.
func (m HashMap[K, V]) Set(k K, v V) HashMap[K, V] {
	root, inserted := hamt.Set(m.hasher, k, v, m.root)
	if inserted {
		return m.with(root, m.size+1)
	}
	return m.with(root, m.size)
}

// Update returns the map with the entry for k replaced by f(old, present),
// or removed if f returns false.
func (m HashMap[K, V]) Update(k K, f func(old V, ok bool) (V, bool)) HashMap[K, V] {
	root, delta := hamt.Alter(m.hasher, k, f, m.root)
	return m.with(root, m.size+delta)
}

// Delete returns the map without k.
func (m HashMap[K, V]) Delete(k K) HashMap[K, V] {
	root, removed := hamt.Remove(m.hasher, k, m.root)
	if removed {
		return m.with(root, m.size-1)
	}
	return m
}

// Union returns the entries of both maps; merge(mine, theirs, key) decides
// the value of keys in both. A nil merge keeps mine.
func (m HashMap[K, V]) Union(o HashMap[K, V], merge func(a, b V, k K) V) HashMap[K, V] {
	root, matched := hamt.Union(m.hasher, orFirst(merge), m.root, o.root)
	return m.with(root, m.size+o.size-matched)
}

// Intersection returns the keys in both maps, valued merge(mine, theirs, key).
// A nil merge keeps mine.
func (m HashMap[K, V]) Intersection(o HashMap[K, V], merge func(a, b V, k K) V) HashMap[K, V] {
	root, size := hamt.Intersection(m.hasher, orFirst(merge), m.root, o.root)
	return m.with(root, size)
}

// Difference returns the entries whose keys are not in o.
func (m HashMap[K, V]) Difference(o HashMap[K, V]) HashMap[K, V] {
	root, removed := hamt.Difference(m.hasher, m.root, o.root)
	return m.with(root, m.size-removed)
}

// Iter returns an iterator over the entries.
func (m HashMap[K, V]) Iter() *hamt.Iterator[K, V] {
	return hamt.Iterate(m.root)
}

// Same reports whether m and o are the same version, not merely equal.
func (m HashMap[K, V]) Same(o HashMap[K, V]) bool {
	return m.root == o.root
}

func orFirst[K, V any](merge func(a, b V, k K) V) func(a, b V, k K) V {
	if merge != nil {
		return merge
	}
	return func(a, _ V, _ K) V { return a }
}

func treeEntries[K, V any](entries []Entry[K, V]) []tree.Entry[K, V] {
	out := make([]tree.Entry[K, V], len(entries))
	for i, e := range entries {
		out[i] = tree.Entry[K, V]{Key: e.Key, Value: e.Value}
	}
	return out
}
