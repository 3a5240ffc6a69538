// Package hamt implements a persistent hash array mapped trie.
//
// A trie is a Node; nil is the empty trie. Each level consumes 5 bits of a
// key's 32-bit hash. An internal level is either a bitmap node, which
// stores only its present children, or a full node with all 32. A level
// may also end in a leaf holding one entry or in a collision node holding
// every key that shares one complete hash, kept in a small balanced tree.
//
// Nodes never change once reachable from a returned root, so tries may be
// shared freely. Operations that change nothing return their input root.
// Tries do not track their size; operations that change it report by how
// much.
package hamt

import (
	"math/bits"

	"github.com/jrhy/persistent/internal/invariant"
	"github.com/jrhy/persistent/tree"
)

const (
	bitsPerLevel = 5
	branching    = 1 << bitsPerLevel
	levelMask    = branching - 1
	// maxShift is the shift of the deepest level; it sees the top 2 bits.
	maxShift = 30
)

// Node is a persistent trie node.
type Node[K, V any] interface {
	isNode(K, V)
}

type leaf[K, V any] struct {
	hash uint32
	key  K
	val  V
}

type collision[K, V any] struct {
	hash    uint32
	entries *tree.Node[K, V]
}

type bitmap[K, V any] struct {
	bitmap   uint32
	children []Node[K, V]
}

type full[K, V any] struct {
	children [branching]Node[K, V]
}

func (*leaf[K, V]) isNode(K, V)      {}
func (*collision[K, V]) isNode(K, V) {}
func (*bitmap[K, V]) isNode(K, V)    {}
func (*full[K, V]) isNode(K, V)      {}

func chunk(hash uint32, shift uint) uint32 {
	return (hash >> shift) & levelMask
}

func bitpos(hash uint32, shift uint) uint32 {
	return 1 << chunk(hash, shift)
}

// index locates the child for bit among the children of bm.
func index(bm, bit uint32) int {
	return bits.OnesCount32(bm & (bit - 1))
}

// terminal reports whether n is a leaf or a collision, the nodes that may
// sit at any depth.
func terminal[K, V any](n Node[K, V]) bool {
	switch n.(type) {
	case *leaf[K, V], *collision[K, V]:
		return true
	}
	return false
}

func hashOf[K, V any](n Node[K, V]) uint32 {
	switch t := n.(type) {
	case *leaf[K, V]:
		return t.hash
	case *collision[K, V]:
		return t.hash
	}
	invariant.Panicf(log, "hash of internal node %T", n)
	return 0
}

// occupied returns the slots in use at an internal node.
func occupied[K, V any](n Node[K, V]) uint32 {
	switch t := n.(type) {
	case *bitmap[K, V]:
		return t.bitmap
	case *full[K, V]:
		return ^uint32(0)
	}
	invariant.Panicf(log, "occupancy of %T", n)
	return 0
}

// slot returns the child of internal node n at position c, or nil.
func slot[K, V any](n Node[K, V], c uint32) Node[K, V] {
	switch t := n.(type) {
	case *bitmap[K, V]:
		bit := uint32(1) << c
		if t.bitmap&bit == 0 {
			return nil
		}
		return t.children[index(t.bitmap, bit)]
	case *full[K, V]:
		return t.children[c]
	}
	invariant.Panicf(log, "slot of %T", n)
	return nil
}

// internal builds the canonical internal node for the given children, which
// are in slot order and all non-nil: nothing for no children, the child
// itself for a single leaf or collision, a full node for 32 children and a
// bitmap node otherwise.
func internal[K, V any](bm uint32, children []Node[K, V]) Node[K, V] {
	switch len(children) {
	case 0:
		return nil
	case 1:
		if terminal(children[0]) {
			return children[0]
		}
	case branching:
		f := &full[K, V]{}
		copy(f.children[:], children)
		return f
	}
	return &bitmap[K, V]{bitmap: bm, children: children}
}

// collisionOf makes the terminal node for a set of same-hash entries.
func collisionOf[K, V any](hash uint32, entries *tree.Node[K, V]) Node[K, V] {
	switch entries.Len() {
	case 0:
		return nil
	case 1:
		return &leaf[K, V]{hash: hash, key: entries.Key(), val: entries.Value()}
	}
	return &collision[K, V]{hash: hash, entries: entries}
}

// join builds the smallest subtree at shift holding the terminal nodes a and
// b, whose hashes differ.
func join[K, V any](shift uint, a, b Node[K, V]) Node[K, V] {
	ah, bh := hashOf(a), hashOf(b)
	if ah == bh || shift > maxShift {
		invariant.Panicf(log, "join of hashes %08x and %08x at shift %d", ah, bh, shift)
	}
	ca, cb := chunk(ah, shift), chunk(bh, shift)
	if ca == cb {
		return &bitmap[K, V]{bitmap: 1 << ca, children: []Node[K, V]{join(shift+bitsPerLevel, a, b)}}
	}
	if ca > cb {
		a, b = b, a
		ca, cb = cb, ca
	}
	return &bitmap[K, V]{bitmap: 1<<ca | 1<<cb, children: []Node[K, V]{a, b}}
}

// with returns n with child stored at slot c, replacing any child there.
// child must not be nil.
func with[K, V any](n Node[K, V], c uint32, child Node[K, V]) Node[K, V] {
	switch t := n.(type) {
	case *full[K, V]:
		f := &full[K, V]{children: t.children}
		f.children[c] = child
		return f
	case *bitmap[K, V]:
		bit := uint32(1) << c
		i := index(t.bitmap, bit)
		if t.bitmap&bit != 0 {
			if len(t.children) == 1 && terminal(child) {
				return child
			}
			children := make([]Node[K, V], len(t.children))
			copy(children, t.children)
			children[i] = child
			return &bitmap[K, V]{bitmap: t.bitmap, children: children}
		}
		children := make([]Node[K, V], len(t.children)+1)
		copy(children, t.children[:i])
		children[i] = child
		copy(children[i+1:], t.children[i:])
		return internal(t.bitmap|bit, children)
	}
	invariant.Panicf(log, "with on %T", n)
	return nil
}

// without returns n with slot c emptied.
func without[K, V any](n Node[K, V], c uint32) Node[K, V] {
	switch t := n.(type) {
	case *full[K, V]:
		children := make([]Node[K, V], 0, branching-1)
		children = append(children, t.children[:c]...)
		children = append(children, t.children[c+1:]...)
		return &bitmap[K, V]{bitmap: ^(uint32(1) << c), children: children}
	case *bitmap[K, V]:
		bit := uint32(1) << c
		if t.bitmap&bit == 0 {
			return t
		}
		i := index(t.bitmap, bit)
		children := make([]Node[K, V], 0, len(t.children)-1)
		children = append(children, t.children[:i]...)
		children = append(children, t.children[i+1:]...)
		return internal(t.bitmap&^bit, children)
	}
	invariant.Panicf(log, "without on %T", n)
	return nil
}
