// Package keys provides the key contracts the engines are parameterized by:
// a three-way comparator for ordered keys, and a hash with equality for
// hashed keys. Contracts are plain immutable values, built once per
// container family and passed explicitly to every engine call.
package keys

import (
	"errors"
	"reflect"

	"golang.org/x/exp/constraints"
)

var (
	// ErrNoOrder is returned when a key type has no known total order.
	ErrNoOrder = errors.New("key type has no total order")
	// ErrNoHash is returned when a key type has no known hash and equality.
	ErrNoHash = errors.New("key type has no hash and equality")
)

// Order is the contract for ordered keys.
type Order[K any] struct {
	// Compare returns a negative number when a < b, zero when a == b and a
	// positive number when a > b.
	Compare func(a, b K) int
}

// Hasher is the contract for hashed keys. Equal must agree with Compare:
// Compare(a, b) == 0 exactly when Equal(a, b). Compare orders keys whose
// hashes collide.
type Hasher[K any] struct {
	Order[K]
	Hash  func(K) uint32
	Equal func(a, b K) bool
}

// Ordered is implemented by user key types that carry their own order.
type Ordered[K any] interface {
	Compare(other K) int
}

// Hashable is implemented by user key types that carry their own hash and
// equality. Compare is the tie-break order among colliding keys.
type Hashable[K any] interface {
	Ordered[K]
	Hash() uint32
	Equal(other K) bool
}

// NaturalOrder returns the order of a built-in ordered type, including types
// defined over one. NaN sorts below every other float and equal to itself.
func NaturalOrder[K constraints.Ordered]() *Order[K] {
	return &Order[K]{Compare: compareOrdered[K]}
}

// NaturalHash returns the hash contract of a built-in ordered type.
func NaturalHash[K constraints.Ordered]() *Hasher[K] {
	hash := builtinHash[K]()
	if hash == nil {
		hash = hashReflect[K](reflect.TypeOf(*new(K)).Kind())
	}
	return &Hasher[K]{
		Order: Order[K]{Compare: compareOrdered[K]},
		Hash:  hash,
		Equal: func(a, b K) bool { return compareOrdered(a, b) == 0 },
	}
}

func compareOrdered[K constraints.Ordered](a, b K) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	}
	// at least one NaN
	aNaN, bNaN := a != a, b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	default:
		return 1
	}
}
