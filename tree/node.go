// Package tree implements a persistent weight-balanced binary search tree.
//
// A tree is a *Node; nil is the empty tree. Nodes are never modified once
// built, so any number of trees may share subtrees and be read from many
// goroutines at once. Operations that change nothing return their input
// node unchanged, so callers can detect a no-op with ==.
package tree

// Balance parameters. A node with at least two descendants never has one
// subtree more than delta times the size of the other; ratio picks single
// over double rotations.
const (
	delta = 3
	ratio = 2
)

// Node is a node of a persistent weight-balanced tree.
type Node[K, V any] struct {
	key   K
	val   V
	size  int
	left  *Node[K, V]
	right *Node[K, V]
}

// Entry is a key and its value.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Key returns the node's key.
func (n *Node[K, V]) Key() K { return n.key }

// Value returns the node's value.
func (n *Node[K, V]) Value() V { return n.val }

// Left returns the subtree of smaller keys.
func (n *Node[K, V]) Left() *Node[K, V] { return n.left }

// Right returns the subtree of larger keys.
func (n *Node[K, V]) Right() *Node[K, V] { return n.right }

// Len returns the number of entries in the tree rooted at n; it is 0 for nil.
func (n *Node[K, V]) Len() int {
	if n == nil {
		return 0
	}
	return n.size
}

// Singleton returns a tree holding one entry.
func Singleton[K, V any](k K, v V) *Node[K, V] {
	return &Node[K, V]{key: k, val: v, size: 1}
}

func bin[K, V any](k K, v V, l, r *Node[K, V]) *Node[K, V] {
	return &Node[K, V]{key: k, val: v, size: 1 + l.Len() + r.Len(), left: l, right: r}
}

// balance builds a node from subtrees whose sizes were balanced before one
// of them grew or shrank by one entry.
func balance[K, V any](k K, v V, l, r *Node[K, V]) *Node[K, V] {
	ln, rn := l.Len(), r.Len()
	switch {
	case ln+rn <= 1:
		return bin(k, v, l, r)
	case rn > delta*ln:
		return rotateLeft(k, v, l, r)
	case ln > delta*rn:
		return rotateRight(k, v, l, r)
	}
	return bin(k, v, l, r)
}

func rotateLeft[K, V any](k K, v V, l, r *Node[K, V]) *Node[K, V] {
	if r.left.Len() < ratio*r.right.Len() {
		return bin(r.key, r.val, bin(k, v, l, r.left), r.right)
	}
	rl := r.left
	return bin(rl.key, rl.val, bin(k, v, l, rl.left), bin(r.key, r.val, rl.right, r.right))
}

func rotateRight[K, V any](k K, v V, l, r *Node[K, V]) *Node[K, V] {
	if l.right.Len() < ratio*l.left.Len() {
		return bin(l.key, l.val, l.left, bin(k, v, l.right, r))
	}
	lr := l.right
	return bin(lr.key, lr.val, bin(l.key, l.val, l.left, lr.left), bin(k, v, lr.right, r))
}

// link joins l, the entry k/v and r, where every key of l is below k and
// every key of r above it. The subtrees may differ in size arbitrarily.
func link[K, V any](k K, v V, l, r *Node[K, V]) *Node[K, V] {
	switch {
	case l == nil:
		return insertMin(k, v, r)
	case r == nil:
		return insertMax(k, v, l)
	case delta*l.size < r.size:
		return balance(r.key, r.val, link(k, v, l, r.left), r.right)
	case delta*r.size < l.size:
		return balance(l.key, l.val, l.left, link(k, v, l.right, r))
	}
	return bin(k, v, l, r)
}

func insertMin[K, V any](k K, v V, n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return Singleton(k, v)
	}
	return balance(n.key, n.val, insertMin(k, v, n.left), n.right)
}

func insertMax[K, V any](k K, v V, n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return Singleton(k, v)
	}
	return balance(n.key, n.val, n.left, insertMax(k, v, n.right))
}

// merge joins l and r, where every key of l is below every key of r.
func merge[K, V any](l, r *Node[K, V]) *Node[K, V] {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case delta*l.size < r.size:
		return balance(r.key, r.val, merge(l, r.left), r.right)
	case delta*r.size < l.size:
		return balance(l.key, l.val, l.left, merge(l.right, r))
	}
	return glue(l, r)
}

// glue joins the two balanced children of a removed node.
func glue[K, V any](l, r *Node[K, V]) *Node[K, V] {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.size > r.size:
		k, v, rest := deleteMax(l)
		return balance(k, v, rest, r)
	}
	k, v, rest := deleteMin(r)
	return balance(k, v, l, rest)
}

func deleteMin[K, V any](n *Node[K, V]) (K, V, *Node[K, V]) {
	if n.left == nil {
		return n.key, n.val, n.right
	}
	k, v, l := deleteMin(n.left)
	return k, v, balance(n.key, n.val, l, n.right)
}

func deleteMax[K, V any](n *Node[K, V]) (K, V, *Node[K, V]) {
	if n.right == nil {
		return n.key, n.val, n.left
	}
	k, v, r := deleteMax(n.right)
	return k, v, balance(n.key, n.val, n.left, r)
}
