package tree

import (
	"github.com/jrhy/persistent/internal/same"
	"github.com/jrhy/persistent/keys"
)

// iterItem is either a subtree still to be considered or an entry to yield.
type iterItem[K, V any] struct {
	considerLink *Node[K, V]
	yield        *Node[K, V]
}

type iterItemStack[K, V any] struct {
	things []iterItem[K, V]
}

func newIterItemStack[K, V any](root *Node[K, V]) iterItemStack[K, V] {
	var stack iterItemStack[K, V]
	stack.pushLink(root)
	return stack
}

func (stack *iterItemStack[K, V]) pop() *iterItem[K, V] {
	if len(stack.things) > 0 {
		popped := stack.things[len(stack.things)-1]
		stack.things = stack.things[0 : len(stack.things)-1]
		return &popped
	}
	return nil
}

// pushNode expands a subtree so that its left side pops first.
func (stack *iterItemStack[K, V]) pushNode(node *Node[K, V]) {
	stack.pushLink(node.right)
	stack.things = append(stack.things, iterItem[K, V]{yield: node})
	stack.pushLink(node.left)
}

func (stack *iterItemStack[K, V]) pushLink(link *Node[K, V]) {
	if link != nil {
		stack.things = append(stack.things, iterItem[K, V]{considerLink: link})
	}
}

func (stack *iterItemStack[K, V]) push(item *iterItem[K, V]) {
	stack.things = append(stack.things, *item)
}

// Diff calls f, in ascending key order, for every key whose entry differs
// between oldRoot and newRoot. For an added key added is true, for a
// removed key removed is true, and for a changed value both are. Subtrees
// shared by both versions are skipped without being walked. Diff stops
// early when f returns false.
func Diff[K, V any](
	cfg *keys.Order[K],
	oldRoot, newRoot *Node[K, V],
	f func(added, removed bool, key K, addedValue, removedValue V) bool,
) {
	var zero V
	oldStack := newIterItemStack(oldRoot)
	newStack := newIterItemStack(newRoot)
	for {
		o := oldStack.pop()
		n := newStack.pop()
		switch {
		case o == nil && n == nil:
			return
		case o == nil:
			if n.considerLink != nil {
				newStack.pushNode(n.considerLink)
			} else if !f(true, false, n.yield.key, n.yield.val, zero) {
				return
			}
		case n == nil:
			if o.considerLink != nil {
				oldStack.pushNode(o.considerLink)
			} else if !f(false, true, o.yield.key, zero, o.yield.val) {
				return
			}
		case o.considerLink != nil && n.considerLink != nil:
			if o.considerLink == n.considerLink {
				continue
			}
			cmp := cfg.Compare(o.considerLink.key, n.considerLink.key)
			if cmp <= 0 {
				oldStack.pushNode(o.considerLink)
			} else {
				oldStack.push(o)
			}
			if cmp >= 0 {
				newStack.pushNode(n.considerLink)
			} else {
				newStack.push(n)
			}
		case o.considerLink != nil:
			oldStack.pushNode(o.considerLink)
			newStack.push(n)
		case n.considerLink != nil:
			oldStack.push(o)
			newStack.pushNode(n.considerLink)
		default:
			// both yields
			cmp := cfg.Compare(o.yield.key, n.yield.key)
			switch {
			case cmp < 0:
				newStack.push(n)
				if !f(false, true, o.yield.key, zero, o.yield.val) {
					return
				}
			case cmp > 0:
				oldStack.push(o)
				if !f(true, false, n.yield.key, n.yield.val, zero) {
					return
				}
			case o.yield != n.yield && !same.Value(o.yield.val, n.yield.val):
				if !f(true, true, n.yield.key, n.yield.val, o.yield.val) {
					return
				}
			}
		}
	}
}
