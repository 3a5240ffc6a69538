package hamt

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrhy/persistent/keys"
	"github.com/jrhy/persistent/tree"
)

var (
	defaultGopterParameters = gopter.DefaultTestParameters()

	ints = keys.NaturalHash[int]()

	// identity places small keys at predictable slots.
	identity = &keys.Hasher[int]{
		Order: ints.Order,
		Hash:  func(k int) uint32 { return uint32(k) },
		Equal: func(a, b int) bool { return a == b },
	}

	// weak sends every key to one of seven hashes.
	weak = &keys.Hasher[int]{
		Order: ints.Order,
		Hash:  func(k int) uint32 { return uint32(k%7) * 0x9e3779b1 },
		Equal: func(a, b int) bool { return a == b },
	}

	hashers = map[string]*keys.Hasher[int]{
		"natural":  ints,
		"identity": identity,
		"weak":     weak,
	}
)

func fromMap(cfg *keys.Hasher[int], m map[int]int) (Node[int, int], int) {
	var root Node[int, int]
	size := 0
	for k, v := range m {
		var inserted bool
		root, inserted = Set(cfg, k, v, root)
		if inserted {
			size++
		}
	}
	return root, size
}

func toMap(root Node[int, int]) map[int]int {
	m := map[int]int{}
	ForEach(root, func(k, v int) bool {
		m[k] = v
		return true
	})
	return m
}

func matches(m map[int]int, root Node[int, int]) bool {
	got := toMap(root)
	if len(got) != len(m) {
		return false
	}
	for k, v := range m {
		if gv, ok := got[k]; !ok || gv != v {
			return false
		}
	}
	return true
}

func requireValid(t *testing.T, cfg *keys.Hasher[int], root Node[int, int], size int) {
	t.Helper()
	n, err := Check(cfg, root)
	require.NoError(t, err, Dump(root))
	require.Equal(t, size, n, spew.Sdump(root))
}

func first(a, _ int, _ int) int { return a }

func TestEmpty(t *testing.T) {
	t.Parallel()
	var root Node[int, int]
	_, ok := Lookup(ints, 1, root)
	require.False(t, ok)
	n, removed := Remove(ints, 1, root)
	require.Nil(t, n)
	require.False(t, removed)
	_, _, ok = Iterate(root).Next()
	require.False(t, ok)
	requireValid(t, ints, root, 0)
}

func TestInsertLookupRemove(t *testing.T) {
	t.Parallel()
	for name, cfg := range hashers {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var root Node[int, int]
			for i := 0; i < 2000; i++ {
				var inserted bool
				root, inserted = Set(cfg, i, i*10, root)
				require.True(t, inserted)
			}
			requireValid(t, cfg, root, 2000)
			for i := 0; i < 2000; i++ {
				v, ok := Lookup(cfg, i, root)
				require.True(t, ok)
				require.Equal(t, i*10, v)
			}
			_, ok := Lookup(cfg, 2000, root)
			require.False(t, ok)

			before := root
			for i := 0; i < 2000; i += 2 {
				var removed bool
				root, removed = Remove(cfg, i, root)
				require.True(t, removed)
			}
			requireValid(t, cfg, root, 1000)
			requireValid(t, cfg, before, 2000)
			for i := 0; i < 2000; i++ {
				_, ok := Lookup(cfg, i, root)
				require.Equal(t, i%2 == 1, ok)
			}
			for i := 1; i < 2000; i += 2 {
				root, _ = Remove(cfg, i, root)
			}
			require.Nil(t, root)
		})
	}
}

func TestIdentity(t *testing.T) {
	t.Parallel()
	root, _ := fromMap(weak, map[int]int{1: 1, 8: 8, 15: 15, 2: 2, 3: 3})
	n, removed := Remove(weak, 99, root)
	require.False(t, removed)
	require.True(t, n == root)
	n, inserted := Set(weak, 8, 8, root)
	require.False(t, inserted)
	require.True(t, n == root)
	n, delta := Alter(weak, 50, func(int, bool) (int, bool) { return 0, false }, root)
	require.Equal(t, 0, delta)
	require.True(t, n == root)
	require.True(t, MapValues(func(_, v int) int { return v }, root) == root)
	n, dropped := CollectValues(func(_, v int) (int, bool) { return v, true }, false, root)
	require.Equal(t, 0, dropped)
	require.True(t, n == root)
	n, _ = Set(weak, 8, 80, root)
	require.False(t, n == root)
}

func TestCollisionScenario(t *testing.T) {
	t.Parallel()
	collide := &keys.Hasher[string]{
		Order: *keys.NaturalOrder[string](),
		Hash:  func(string) uint32 { return 0xfeedface },
		Equal: func(a, b string) bool { return a == b },
	}
	for _, order := range [][]string{{"a", "b", "c"}, {"c", "a", "b"}, {"b", "c", "a"}} {
		var root Node[string, int]
		for i, k := range order {
			root, _ = Set(collide, k, i, root)
		}
		c, ok := root.(*collision[string, int])
		require.True(t, ok, "%T", root)
		require.Equal(t, 3, c.entries.Len())
		for i, k := range order {
			v, ok := Lookup(collide, k, root)
			require.True(t, ok)
			require.Equal(t, i, v)
		}
		for _, gone := range order {
			n, removed := Remove(collide, gone, root)
			require.True(t, removed)
			_, ok := Lookup(collide, gone, n)
			require.False(t, ok)
			for _, k := range order {
				if k != gone {
					_, ok := Lookup(collide, k, n)
					require.True(t, ok)
				}
			}
			_, isCollision := n.(*collision[string, int])
			require.True(t, isCollision)
		}
		n, _ := Remove(collide, order[0], root)
		n, _ = Remove(collide, order[1], n)
		l, ok := n.(*leaf[string, int])
		require.True(t, ok, "%T", n)
		require.Equal(t, order[2], l.key)
	}
}

func TestCollisionBelowBranch(t *testing.T) {
	t.Parallel()
	// 0, 7 and 14 collide under weak; 1 does not.
	root, size := fromMap(weak, map[int]int{0: 0, 7: 7, 14: 14, 1: 1})
	requireValid(t, weak, root, size)
	n, _ := Set(weak, 21, 21, root)
	requireValid(t, weak, n, 5)
	n, _ = Remove(weak, 1, n)
	_, ok := n.(*collision[int, int])
	require.True(t, ok, Dump(n))
}

func TestFullnessTransition(t *testing.T) {
	t.Parallel()
	var root Node[int, int]
	for i := 0; i < branching-1; i++ {
		root, _ = Set(identity, i, i, root)
	}
	b, ok := root.(*bitmap[int, int])
	require.True(t, ok, "%T", root)
	require.Equal(t, branching-1, len(b.children))

	root, _ = Set(identity, branching-1, 0, root)
	f, ok := root.(*full[int, int])
	require.True(t, ok, "%T", root)
	for i, c := range f.children {
		require.NotNil(t, c, "slot %d", i)
	}
	requireValid(t, identity, root, branching)

	demoted, removed := Remove(identity, 17, root)
	require.True(t, removed)
	b, ok = demoted.(*bitmap[int, int])
	require.True(t, ok, "%T", demoted)
	require.Equal(t, branching-1, len(b.children))
	require.Equal(t, ^uint32(1<<17), b.bitmap)
	requireValid(t, identity, demoted, branching-1)
}

func TestCollapseHaltsAtBranch(t *testing.T) {
	t.Parallel()
	// 0 and 1<<20 share four levels of slots; 1<<10 branches off at the third.
	root, size := fromMap(identity, map[int]int{0: 0, 1 << 20: 1, 1 << 10: 2})
	requireValid(t, identity, root, size)

	n, removed := Remove(identity, 1<<20, root)
	require.True(t, removed)
	requireValid(t, identity, n, 2)
	require.Equal(t, map[int]int{0: 0, 1 << 10: 2}, toMap(n))

	// the two survivors sit side by side at the branching level
	var depth int
	for cur := n; ; depth++ {
		b, ok := cur.(*bitmap[int, int])
		require.True(t, ok, Dump(n))
		if len(b.children) == 2 {
			require.True(t, terminal(b.children[0]) && terminal(b.children[1]), Dump(n))
			break
		}
		cur = b.children[0]
	}
	require.Equal(t, 2, depth)

	n, _ = Remove(identity, 1<<10, n)
	l, ok := n.(*leaf[int, int])
	require.True(t, ok, Dump(n))
	require.Equal(t, 0, l.key)
}

func TestSetOperations(t *testing.T) {
	t.Parallel()
	sum := func(x, y, _ int) int { return x + y }
	for name, cfg := range hashers {
		a, _ := fromMap(cfg, map[int]int{1: 1, 2: 2, 3: 3, 4: 4, 8: 8})
		b, _ := fromMap(cfg, map[int]int{3: 30, 4: 40, 5: 50, 15: 150})

		u, matched := Union(cfg, sum, a, b)
		require.Equal(t, 2, matched, name)
		require.Equal(t, map[int]int{1: 1, 2: 2, 3: 33, 4: 44, 5: 50, 8: 8, 15: 150}, toMap(u), name)
		requireValid(t, cfg, u, 7)

		i, size := Intersection(cfg, sum, a, b)
		require.Equal(t, 2, size, name)
		require.Equal(t, map[int]int{3: 33, 4: 44}, toMap(i), name)
		requireValid(t, cfg, i, 2)

		d, removed := Difference(cfg, a, b)
		require.Equal(t, 2, removed, name)
		require.Equal(t, map[int]int{1: 1, 2: 2, 8: 8}, toMap(d), name)
		requireValid(t, cfg, d, 3)

		same, _ := Union(cfg, first, a, a)
		require.True(t, same == a, name)
		empty, _ := Intersection(cfg, first, a, nil)
		require.Nil(t, empty, name)
		unchanged, removed := Difference(cfg, a, Node[int, string](&leaf[int, string]{hash: cfg.Hash(99), key: 99}))
		require.Equal(t, 0, removed)
		require.True(t, unchanged == a, name)
	}
}

func TestAdjust(t *testing.T) {
	t.Parallel()
	for name, cfg := range hashers {
		a, _ := fromMap(cfg, map[int]int{1: 1, 2: 2, 3: 3, 4: 4})
		var helper Node[int, string]
		helper, _ = Set(cfg, 1, "drop", helper)
		helper, _ = Set(cfg, 2, "double", helper)
		helper, _ = Set(cfg, 9, "new", helper)
		adjusted, delta := Adjust(cfg, func(old int, ok bool, h string, k int) (int, bool) {
			switch h {
			case "drop":
				return 0, false
			case "double":
				return old * 2, true
			}
			return k * 100, !ok
		}, a, helper)
		require.Equal(t, 0, delta, name)
		require.Equal(t, map[int]int{2: 4, 3: 3, 4: 4, 9: 900}, toMap(adjusted), name)
		requireValid(t, cfg, adjusted, 4)

		keep := func(old int, ok bool, _ string, _ int) (int, bool) { return old, ok }
		same, delta := Adjust(cfg, keep, a, helper)
		require.Equal(t, 0, delta, name)
		require.True(t, same == a, name)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	words := []string{"pear", "apple", "plum", "avocado", "peach", "kiwi"}
	root, size := Build(keys.NaturalHash[byte](), words,
		func(w string) byte { return w[0] },
		func(old int, _ bool, _ string) int { return old + 1 })
	require.Equal(t, 3, size)
	v, ok := Lookup(keys.NaturalHash[byte](), 'p', root)
	require.True(t, ok)
	require.Equal(t, 3, v)

	var entries []tree.Entry[int, int]
	for i := 0; i < 5000; i++ {
		entries = append(entries, tree.Entry[int, int]{Key: i % 4000, Value: 1})
	}
	for name, cfg := range hashers {
		built, size := From(cfg, entries, func(a, b, _ int) int { return a + b })
		require.Equal(t, 4000, size, name)
		requireValid(t, cfg, built, 4000)
		for _, k := range []int{0, 999, 1000, 3999} {
			v, ok := Lookup(cfg, k, built)
			require.True(t, ok)
			require.Equal(t, map[bool]int{true: 2, false: 1}[k < 1000], v, "%s %d", name, k)
		}
		more, inserted := Set(cfg, 4000, 1, built)
		require.True(t, inserted)
		requireValid(t, cfg, more, 4001)
		requireValid(t, cfg, built, 4000)
	}
}

func TestTransientFullPromotion(t *testing.T) {
	t.Parallel()
	var entries []tree.Entry[int, int]
	for i := 0; i < branching; i++ {
		entries = append(entries, tree.Entry[int, int]{Key: i, Value: i})
	}
	root, size := From(identity, entries, nil)
	require.Equal(t, branching, size)
	_, ok := root.(*full[int, int])
	require.True(t, ok, "%T", root)
	requireValid(t, identity, root, branching)

	root, size = From(identity, entries[:1], nil)
	require.Equal(t, 1, size)
	_, ok = root.(*leaf[int, int])
	require.True(t, ok, "%T", root)

	root, size = From[int, int](identity, nil, nil)
	require.Nil(t, root)
	require.Equal(t, 0, size)
}

func TestFreezeKeepsTerminals(t *testing.T) {
	t.Parallel()
	l := &leaf[int, int]{hash: identity.Hash(3), key: 3, val: 30}
	require.Same(t, l, freeze[int, int](l))

	entries := tree.From(&weak.Order, []tree.Entry[int, int]{{Key: 0, Value: 0}, {Key: 7, Value: 70}}, nil)
	c := &collision[int, int]{hash: weak.Hash(0), entries: entries}
	require.Same(t, c, freeze[int, int](c))

	m := &mutBitmap[int, int]{bitmap: 1<<3 | 1<<5, children: []mutNode[int, int]{
		l,
		&leaf[int, int]{hash: identity.Hash(5), key: 5, val: 50},
	}}
	root := freeze[int, int](m)
	b, ok := root.(*bitmap[int, int])
	require.True(t, ok, "%T", root)
	require.Same(t, l, b.children[0])
	requireValid(t, identity, root, 2)
}

func TestBuiltTrieIsPersistent(t *testing.T) {
	t.Parallel()
	var entries []tree.Entry[int, int]
	for i := 0; i < 100; i++ {
		entries = append(entries, tree.Entry[int, int]{Key: i, Value: i})
	}
	built, size := From(weak, entries, nil)
	require.Equal(t, 100, size)
	updated, inserted := Set(weak, 7, -7, built)
	require.False(t, inserted)

	v, _ := Lookup(weak, 7, built)
	assert.Equal(t, 7, v)
	v, _ = Lookup(weak, 7, updated)
	assert.Equal(t, -7, v)
	requireValid(t, weak, built, 100)
	requireValid(t, weak, updated, 100)
}

func TestTypeArgumentsFollowNodes(t *testing.T) {
	t.Parallel()
	cfg := keys.NaturalHash[string]()
	var root Node[string, int]
	for i, k := range []string{"a", "b", "c"} {
		root, _ = Set(cfg, k, i, root)
	}
	n, err := Check(cfg, root)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, Len(root))
	assert.Equal(t, 3, Fold(func(acc int, _ string, v int) int { return acc + v }, 0, root))
	assert.True(t, ForEach(root, func(string, int) bool { return true }))
	assert.Contains(t, Dump(root), "leaf")
	k, _, ok := Iterate(root).Next()
	assert.True(t, ok)
	assert.Contains(t, []string{"a", "b", "c"}, k)

	doubled := MapValues(func(_ string, v int) int { return 2 * v }, root)
	evens, dropped := CollectValues(func(_ string, v int) (int, bool) { return v, v%2 == 0 }, false, root)
	assert.Equal(t, 1, dropped)
	u, matched := Union(cfg, func(a, b int, _ string) int { return a + b }, root, doubled)
	assert.Equal(t, 3, matched)
	d, removed := Difference(cfg, u, evens)
	assert.Equal(t, 2, removed)
	v, _ := Lookup(cfg, "b", d)
	assert.Equal(t, 3, v)
}

func TestMapAndCollect(t *testing.T) {
	t.Parallel()
	m := map[int]int{}
	for i := 0; i < 300; i++ {
		m[i] = i
	}
	for name, cfg := range hashers {
		root, _ := fromMap(cfg, m)
		doubled := MapValues(func(_, v int) int { return v * 2 }, root)
		requireValid(t, cfg, doubled, 300)
		v, _ := Lookup(cfg, 21, doubled)
		require.Equal(t, 42, v, name)

		odds, dropped := CollectValues(func(k, v int) (int, bool) { return v, k%2 == 1 }, false, root)
		require.Equal(t, 150, dropped, name)
		requireValid(t, cfg, odds, 150)
	}

	var ptrs Node[int, *int]
	one := 1
	ptrs, _ = Set(ints, 1, &one, ptrs)
	ptrs, _ = Set(ints, 2, nil, ptrs)
	kept, dropped := CollectValues(func(_ int, v *int) (*int, bool) { return v, true }, true, ptrs)
	require.Equal(t, 1, dropped)
	require.Equal(t, 1, Len(kept))
}

func TestIterate(t *testing.T) {
	t.Parallel()
	root, _ := fromMap(weak, map[int]int{1: 10, 2: 20, 8: 80, 15: 150})
	var got []int
	it := Iterate(root)
	for k, _, ok := it.Next(); ok; k, _, ok = it.Next() {
		got = append(got, k)
	}
	assert.ElementsMatch(t, []int{1, 2, 8, 15}, got)
	require.Equal(t, 280, Fold(func(acc, _, v int) int { return acc + v }, 20, root))
	visited := 0
	require.False(t, ForEach(root, func(int, int) bool {
		visited++
		return visited < 2
	}))
	require.Equal(t, 2, visited)
}

func TestCheckDetectsCorruption(t *testing.T) {
	t.Parallel()
	l := &leaf[int, int]{hash: 3, key: 3}
	_, err := Check(identity, Node[int, int](&bitmap[int, int]{bitmap: 1 << 3, children: []Node[int, int]{l}}))
	require.Error(t, err)
	_, err = Check(identity, Node[int, int](&bitmap[int, int]{bitmap: 1<<3 | 1<<4, children: []Node[int, int]{l}}))
	require.Error(t, err)
	_, err = Check(identity, Node[int, int](&bitmap[int, int]{bitmap: 1<<2 | 1<<4, children: []Node[int, int]{l, &leaf[int, int]{hash: 4, key: 4}}}))
	require.Error(t, err)
	_, err = Check(identity, Node[int, int](&leaf[int, int]{hash: 5, key: 3}))
	require.Error(t, err)
	_, err = Check(identity, Node[int, int](&collision[int, int]{hash: 3, entries: tree.Singleton(3, 3)}))
	require.Error(t, err)
	_, err = Check(identity, Node[int, int](&full[int, int]{}))
	require.Error(t, err)
	require.Panics(t, func() { join[int, int](0, l, l) })
}

func TestProperties(t *testing.T) {
	t.Parallel()
	properties := gopter.NewProperties(defaultGopterParameters)
	entries := gen.MapOf(gen.IntRange(-300, 300), gen.Int())

	for name, cfg := range hashers {
		cfg := cfg
		properties.Property(name+": agrees with a map", prop.ForAll(
			func(m map[int]int, drop []int) bool {
				root, size := fromMap(cfg, m)
				for _, k := range drop {
					var removed bool
					root, removed = Remove(cfg, k, root)
					_, had := m[k]
					if removed != had {
						return false
					}
					if removed {
						size--
					}
					delete(m, k)
				}
				n, err := Check(cfg, root)
				return err == nil && n == size && matches(m, root)
			},
			entries, gen.SliceOf(gen.IntRange(-300, 300)),
		))

		properties.Property(name+": identity", prop.ForAll(
			func(m map[int]int, k int) bool {
				root, _ := fromMap(cfg, m)
				if v, ok := m[k]; ok {
					n, _ := Set(cfg, k, v, root)
					return n == root
				}
				n, _ := Remove(cfg, k, root)
				return n == root
			},
			entries, gen.IntRange(-300, 300),
		))

		properties.Property(name+": union and intersection sizes", prop.ForAll(
			func(ma, mb map[int]int) bool {
				a, sa := fromMap(cfg, ma)
				b, sb := fromMap(cfg, mb)
				u, matched := Union(cfg, first, a, b)
				i, si := Intersection(cfg, first, a, b)
				nu, err := Check(cfg, u)
				if err != nil {
					return false
				}
				ni, err := Check(cfg, i)
				if err != nil {
					return false
				}
				gone, removed := Difference(cfg, a, u)
				self, _ := Union(cfg, first, a, a)
				return nu+ni == sa+sb && ni == si && matched == si && nu == sa+sb-matched &&
					gone == nil && removed == sa && self == a
			},
			entries, entries,
		))

		properties.Property(name+": build matches repeated insert", prop.ForAll(
			func(m map[int]int) bool {
				var list []tree.Entry[int, int]
				for k, v := range m {
					list = append(list, tree.Entry[int, int]{Key: k, Value: v})
				}
				built, size := From(cfg, list, nil)
				n, err := Check(cfg, built)
				return err == nil && n == size && matches(m, built)
			},
			entries,
		))
	}

	properties.Property("collapse halts at the first branch", prop.ForAll(
		func(depth, branch int) bool {
			branch %= depth
			deep, side := 1<<(bitsPerLevel*depth), 1<<(bitsPerLevel*branch)
			root, _ := fromMap(identity, map[int]int{0: 0, deep: 1, side: 2})
			n, removed := Remove(identity, deep, root)
			if !removed {
				return false
			}
			size, err := Check(identity, n)
			if err != nil || size != 2 {
				return false
			}
			_, okZero := Lookup(identity, 0, n)
			_, okSide := Lookup(identity, side, n)
			return okZero && okSide
		},
		gen.IntRange(1, 6), gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

func ExampleDump() {
	root, _ := fromMap(identity, map[int]int{1: 10, 33: 330})
	fmt.Print(Dump(root))
	// Output:
	// bitmap 00000000000000000000000000000010
	//   bitmap 00000000000000000000000000000011
	//     leaf 00000001 1: 10
	//     leaf 00000021 33: 330
}
