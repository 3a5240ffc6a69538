package tree

import "github.com/jrhy/persistent/keys"

// staticDepth is the size of the static array on the iterator stack. A
// weight-balanced tree of n entries is at most about 2.1*log2(n) deep, so
// the overflow slice is only used for trees with many millions of entries.
const staticDepth = 48

// parentStack holds the pending ancestors during iteration in a static
// array, spilling into an overflow slice for deep trees.
type parentStack[K, V any] struct {
	index    int
	items    [staticDepth]*Node[K, V]
	overflow []*Node[K, V]
}

// Len returns the current number of items in the stack.
func (s *parentStack[K, V]) Len() int {
	return s.index
}

// Pop removes the top item from the stack.  It returns nil if the stack is
// empty.
func (s *parentStack[K, V]) Pop() *Node[K, V] {
	if s.index == 0 {
		return nil
	}
	s.index--
	if s.index < staticDepth {
		n := s.items[s.index]
		s.items[s.index] = nil
		return n
	}
	i := s.index - staticDepth
	n := s.overflow[i]
	s.overflow[i] = nil
	return n
}

// Push pushes the passed item onto the top of the stack.
func (s *parentStack[K, V]) Push(n *Node[K, V]) {
	if s.index < staticDepth {
		s.items[s.index] = n
		s.index++
		return
	}
	i := s.index - staticDepth
	if i+1 > len(s.overflow) {
		s.overflow = append(s.overflow, n)
	} else {
		s.overflow[i] = n
	}
	s.index++
}

// Iterator walks a tree in key order, or in reverse key order. It holds
// only the path it still has to visit, so it is lazy; and since trees never
// change, an iterator stays valid however the tree it came from is
// "modified" afterwards. Iterating again means asking for a new Iterator.
type Iterator[K, V any] struct {
	stack parentStack[K, V]
	desc  bool
}

// IterateAsc returns an iterator over root in ascending key order.
func IterateAsc[K, V any](root *Node[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{}
	it.pushEdge(root)
	return it
}

// IterateDesc returns an iterator over root in descending key order.
func IterateDesc[K, V any](root *Node[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{desc: true}
	it.pushEdge(root)
	return it
}

// IterateFrom returns an iterator starting at the first key >= k, or with
// desc, descending from the last key <= k.
func IterateFrom[K, V any](cfg *keys.Order[K], k K, root *Node[K, V], desc bool) *Iterator[K, V] {
	it := &Iterator[K, V]{desc: desc}
	for n := root; n != nil; {
		c := cfg.Compare(k, n.key)
		switch {
		case c == 0:
			it.stack.Push(n)
			return it
		case (c < 0) != desc:
			it.stack.Push(n)
			n = n.near(desc)
		default:
			n = n.far(desc)
		}
	}
	return it
}

// near is the child visited first in the given direction.
func (n *Node[K, V]) near(desc bool) *Node[K, V] {
	if desc {
		return n.right
	}
	return n.left
}

func (n *Node[K, V]) far(desc bool) *Node[K, V] {
	if desc {
		return n.left
	}
	return n.right
}

func (it *Iterator[K, V]) pushEdge(n *Node[K, V]) {
	for ; n != nil; n = n.near(it.desc) {
		it.stack.Push(n)
	}
}

// Next returns the next entry, or ok == false once the walk is done.
func (it *Iterator[K, V]) Next() (k K, v V, ok bool) {
	n := it.stack.Pop()
	if n == nil {
		return k, v, false
	}
	it.pushEdge(n.far(it.desc))
	return n.key, n.val, true
}

// ForEach calls f on each entry in ascending order until f returns false.
// It reports whether every entry was visited.
func ForEach[K, V any](root *Node[K, V], f func(k K, v V) bool) bool {
	it := IterateAsc(root)
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		if !f(k, v) {
			return false
		}
	}
	return true
}

// Foldl folds the entries in ascending order.
func Foldl[K, V, A any](f func(acc A, k K, v V) A, acc A, root *Node[K, V]) A {
	it := IterateAsc(root)
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		acc = f(acc, k, v)
	}
	return acc
}

// Foldr folds the entries in descending order.
func Foldr[K, V, A any](f func(k K, v V, acc A) A, acc A, root *Node[K, V]) A {
	it := IterateDesc(root)
	for k, v, ok := it.Next(); ok; k, v, ok = it.Next() {
		acc = f(k, v, acc)
	}
	return acc
}

// Entries returns the entries in ascending order.
func Entries[K, V any](root *Node[K, V]) []Entry[K, V] {
	return Foldl(func(acc []Entry[K, V], k K, v V) []Entry[K, V] {
		return append(acc, Entry[K, V]{Key: k, Value: v})
	}, make([]Entry[K, V], 0, root.Len()), root)
}
