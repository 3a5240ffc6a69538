package keys

import (
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/cespare/xxhash/v2"
)

var timeType = reflect.TypeOf(time.Time{})

// HashOf derives the hash contract for K. A K implementing Hashable[K] uses
// its own methods. time.Time hashes and compares by instant, ignoring
// location. Otherwise K must be, or be defined over, an integer, float,
// string, bool or []byte type; floats treat -0 and +0 as one key and every
// NaN as one key. Any other type fails with ErrNoHash.
func HashOf[K any]() (*Hasher[K], error) {
	t := typeOf[K]()
	if t.Implements(reflect.TypeOf((*Hashable[K])(nil)).Elem()) {
		log.Debugf("hash for %v: Hash method", t)
		return &Hasher[K]{
			Order: Order[K]{Compare: func(a, b K) int {
				return any(a).(Hashable[K]).Compare(b)
			}},
			Hash: func(k K) uint32 {
				return any(k).(Hashable[K]).Hash()
			},
			Equal: func(a, b K) bool {
				return any(a).(Hashable[K]).Equal(b)
			},
		}, nil
	}
	if t == timeType {
		var h interface{} = &Hasher[time.Time]{
			Order: Order[time.Time]{Compare: time.Time.Compare},
			Hash:  hashTime,
			Equal: time.Time.Equal,
		}
		return h.(*Hasher[K]), nil
	}
	hash := builtinHash[K]()
	compare := builtinCompare[K]()
	if hash == nil || compare == nil {
		hash = hashReflect[K](t.Kind())
		compare = compareReflect[K](t)
		if hash != nil && compare != nil {
			log.Debugf("hash for %v: underlying %v", t, t.Kind())
		}
	}
	if hash == nil || compare == nil {
		return nil, fmt.Errorf("%v: %w", t, ErrNoHash)
	}
	return &Hasher[K]{
		Order: Order[K]{Compare: compare},
		Hash:  hash,
		Equal: func(a, b K) bool { return compare(a, b) == 0 },
	}, nil
}

// MustHashOf is like HashOf but panics if K cannot be hashed.
func MustHashOf[K any]() *Hasher[K] {
	h, err := HashOf[K]()
	if err != nil {
		panic(err)
	}
	return h
}

func builtinHash[K any]() func(K) uint32 {
	var f interface{}
	switch any(*new(K)).(type) {
	case int:
		f = func(k int) uint32 { return hashUint64(uint64(k)) }
	case int8:
		f = func(k int8) uint32 { return hashUint64(uint64(k)) }
	case int16:
		f = func(k int16) uint32 { return hashUint64(uint64(k)) }
	case int32:
		f = func(k int32) uint32 { return hashUint64(uint64(k)) }
	case int64:
		f = func(k int64) uint32 { return hashUint64(uint64(k)) }
	case uint:
		f = func(k uint) uint32 { return hashUint64(uint64(k)) }
	case uint8:
		f = func(k uint8) uint32 { return hashUint64(uint64(k)) }
	case uint16:
		f = func(k uint16) uint32 { return hashUint64(uint64(k)) }
	case uint32:
		f = func(k uint32) uint32 { return hashUint64(uint64(k)) }
	case uint64:
		f = hashUint64
	case uintptr:
		f = func(k uintptr) uint32 { return hashUint64(uint64(k)) }
	case float32:
		f = func(k float32) uint32 { return hashFloat(float64(k)) }
	case float64:
		f = hashFloat
	case string:
		f = hashString
	case bool:
		f = hashBool
	case []byte:
		f = hashBytes
	}
	if f == nil {
		return nil
	}
	return f.(func(K) uint32)
}

func hashReflect[K any](kind reflect.Kind) func(K) uint32 {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(k K) uint32 { return hashUint64(uint64(reflect.ValueOf(k).Int())) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(k K) uint32 { return hashUint64(reflect.ValueOf(k).Uint()) }
	case reflect.Float32, reflect.Float64:
		return func(k K) uint32 { return hashFloat(reflect.ValueOf(k).Float()) }
	case reflect.String:
		return func(k K) uint32 { return hashString(reflect.ValueOf(k).String()) }
	case reflect.Bool:
		return func(k K) uint32 { return hashBool(reflect.ValueOf(k).Bool()) }
	case reflect.Slice:
		return func(k K) uint32 { return hashBytes(reflect.ValueOf(k).Bytes()) }
	}
	return nil
}

// hashUint64 is the splitmix64 finalizer folded to 32 bits.
func hashUint64(x uint64) uint32 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return fold(x)
}

func hashFloat(f float64) uint32 {
	switch {
	case f != f:
		return 0x7ff80001
	case f == 0:
		return hashUint64(0)
	}
	return hashUint64(math.Float64bits(f))
}

func hashBool(b bool) uint32 {
	if b {
		return hashUint64(1)
	}
	return hashUint64(0)
}

func hashString(s string) uint32 {
	return fold(xxhash.Sum64String(s))
}

func hashBytes(b []byte) uint32 {
	return fold(xxhash.Sum64(b))
}

func hashTime(t time.Time) uint32 {
	return hashUint64(uint64(t.Unix())<<30 ^ uint64(t.Nanosecond()))
}

func fold(x uint64) uint32 {
	return uint32(x) ^ uint32(x>>32)
}
