package tree

import (
	"fmt"
	"strings"

	"github.com/jrhy/persistent/internal/invariant"
	"github.com/jrhy/persistent/keys"
)

// Check verifies that every node's size is right, that every node is
// weight-balanced and that keys are in strictly ascending order.
func Check[K, V any](cfg *keys.Order[K], root *Node[K, V]) error {
	_, err := check(cfg, root, nil, nil)
	return err
}

func check[K, V any](cfg *keys.Order[K], n *Node[K, V], lo, hi *K) (int, error) {
	if n == nil {
		return 0, nil
	}
	if lo != nil && cfg.Compare(*lo, n.key) >= 0 {
		return 0, fmt.Errorf("key %v not above %v", n.key, *lo)
	}
	if hi != nil && cfg.Compare(n.key, *hi) >= 0 {
		return 0, fmt.Errorf("key %v not below %v", n.key, *hi)
	}
	ln, err := check(cfg, n.left, lo, &n.key)
	if err != nil {
		return 0, fmt.Errorf("left of %v: %w", n.key, err)
	}
	rn, err := check(cfg, n.right, &n.key, hi)
	if err != nil {
		return 0, fmt.Errorf("right of %v: %w", n.key, err)
	}
	if n.size != 1+ln+rn {
		return 0, fmt.Errorf("key %v: size %d, have %d entries", n.key, n.size, 1+ln+rn)
	}
	if ln+rn > 1 && (ln > delta*rn || rn > delta*ln) {
		return 0, fmt.Errorf("key %v: unbalanced, %d left and %d right", n.key, ln, rn)
	}
	return n.size, nil
}

// MustCheck panics if Check fails.
func MustCheck[K, V any](cfg *keys.Order[K], root *Node[K, V]) {
	if err := Check(cfg, root); err != nil {
		invariant.Panicf(log, "%v", err)
	}
}

// Dump renders the tree sideways, one entry per line, for debugging.
func Dump[K, V any](root *Node[K, V]) string {
	var b strings.Builder
	dump(&b, root, 0)
	return b.String()
}

func dump[K, V any](b *strings.Builder, n *Node[K, V], depth int) {
	if n == nil {
		return
	}
	dump(b, n.right, depth+1)
	fmt.Fprintf(b, "%s%v: %v (%d)\n", strings.Repeat("  ", depth), n.key, n.val, n.size)
	dump(b, n.left, depth+1)
}
