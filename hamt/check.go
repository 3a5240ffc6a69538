package hamt

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

// Check verifies that root is a well-formed trie and returns its size. Every
// key must sit at the path spelled by its hash, collision nodes must hold at
// least two keys sharing one hash, bitmap nodes must agree with their child
// count, hold fewer than 32 children and never a lone leaf or collision, and
// full nodes must have all 32 children.
func Check[K, V any](cfg *keys.Hasher[K], root Node[K, V]) (int, error) {
	return check(cfg, root, 0, 0)
}

func check[K, V any](cfg *keys.Hasher[K], n Node[K, V], shift uint, prefix uint32) (int, error) {
	mask := uint32(1)<<shift - 1
	if shift >= 32 {
		mask = ^uint32(0)
	}
	switch t := n.(type) {
	case nil:
		return 0, nil
	case *leaf[K, V]:
		if h := cfg.Hash(t.key); h != t.hash {
			return 0, fmt.Errorf("leaf %v: stored hash %08x, key hashes to %08x", t.key, t.hash, h)
		}
		if t.hash&mask != prefix {
			return 0, fmt.Errorf("leaf %v: hash %08x misplaced under prefix %08x", t.key, t.hash, prefix)
		}
		return 1, nil
	case *collision[K, V]:
		if t.entries.Len() < 2 {
			return 0, fmt.Errorf("collision %08x: %d entries", t.hash, t.entries.Len())
		}
		if t.hash&mask != prefix {
			return 0, fmt.Errorf("collision %08x misplaced under prefix %08x", t.hash, prefix)
		}
		if err := tree.Check(&cfg.Order, t.entries); err != nil {
			return 0, fmt.Errorf("collision %08x: %w", t.hash, err)
		}
		var err error
		tree.ForEach(t.entries, func(k K, _ V) bool {
			if h := cfg.Hash(k); h != t.hash {
				err = fmt.Errorf("collision %08x: key %v hashes to %08x", t.hash, k, h)
			}
			return err == nil
		})
		return t.entries.Len(), err
	case *bitmap[K, V]:
		if shift > maxShift {
			return 0, fmt.Errorf("bitmap node below the last level")
		}
		count := bits.OnesCount32(t.bitmap)
		switch {
		case count != len(t.children):
			return 0, fmt.Errorf("bitmap %032b has %d children", t.bitmap, len(t.children))
		case count == 0:
			return 0, fmt.Errorf("empty bitmap node")
		case count == branching:
			return 0, fmt.Errorf("bitmap node with every slot set")
		case count == 1 && terminal(t.children[0]):
			return 0, fmt.Errorf("bitmap node with a lone %T", t.children[0])
		}
		size := 0
		for i, rest := 0, t.bitmap; rest != 0; i, rest = i+1, rest&(rest-1) {
			c := uint32(bits.TrailingZeros32(rest))
			if t.children[i] == nil {
				return 0, fmt.Errorf("bitmap slot %d is nil", c)
			}
			n, err := check(cfg, t.children[i], shift+bitsPerLevel, prefix|c<<shift)
			if err != nil {
				return 0, fmt.Errorf("slot %d: %w", c, err)
			}
			size += n
		}
		return size, nil
	case *full[K, V]:
		if shift > maxShift {
			return 0, fmt.Errorf("full node below the last level")
		}
		size := 0
		for c, child := range t.children {
			if child == nil {
				return 0, fmt.Errorf("full slot %d is nil", c)
			}
			n, err := check(cfg, child, shift+bitsPerLevel, prefix|uint32(c)<<shift)
			if err != nil {
				return 0, fmt.Errorf("slot %d: %w", c, err)
			}
			size += n
		}
		return size, nil
	}
	return 0, fmt.Errorf("unknown node %T", n)
}

// Dump renders the trie structure, one node per line, for debugging.
func Dump[K, V any](root Node[K, V]) string {
	var b strings.Builder
	dump(&b, root, 0)
	return b.String()
}

func dump[K, V any](b *strings.Builder, n Node[K, V], depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := n.(type) {
	case nil:
		fmt.Fprintf(b, "%s<empty>\n", indent)
	case *leaf[K, V]:
		fmt.Fprintf(b, "%sleaf %08x %v: %v\n", indent, t.hash, t.key, t.val)
	case *collision[K, V]:
		fmt.Fprintf(b, "%scollision %08x\n", indent, t.hash)
		tree.ForEach(t.entries, func(k K, v V) bool {
			fmt.Fprintf(b, "%s  %v: %v\n", indent, k, v)
			return true
		})
	case *bitmap[K, V]:
		fmt.Fprintf(b, "%sbitmap %032b\n", indent, t.bitmap)
		for _, c := range t.children {
			dump(b, c, depth+1)
		}
	case *full[K, V]:
		fmt.Fprintf(b, "%sfull\n", indent)
		for _, c := range t.children {
			dump(b, c, depth+1)
		}
	}
}
