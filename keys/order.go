package keys

import (
	"bytes"
	"fmt"
	"reflect"
)

// OrderOf derives the order contract for K. A K implementing Ordered[K]
// uses its own Compare. Otherwise K must be, or be defined over, an integer,
// float, string, bool or []byte type. time.Time orders chronologically.
// Any other type fails with ErrNoOrder.
func OrderOf[K any]() (*Order[K], error) {
	t := typeOf[K]()
	if t.Implements(reflect.TypeOf((*Ordered[K])(nil)).Elem()) {
		log.Debugf("order for %v: Compare method", t)
		return &Order[K]{Compare: func(a, b K) int {
			return any(a).(Ordered[K]).Compare(b)
		}}, nil
	}
	if compare := builtinCompare[K](); compare != nil {
		return &Order[K]{Compare: compare}, nil
	}
	if compare := compareReflect[K](t); compare != nil {
		log.Debugf("order for %v: underlying %v", t, t.Kind())
		return &Order[K]{Compare: compare}, nil
	}
	return nil, fmt.Errorf("%v: %w", t, ErrNoOrder)
}

// MustOrderOf is like OrderOf but panics if K has no order.
func MustOrderOf[K any]() *Order[K] {
	order, err := OrderOf[K]()
	if err != nil {
		panic(err)
	}
	return order
}

func typeOf[K any]() reflect.Type {
	return reflect.TypeOf((*K)(nil)).Elem()
}

func builtinCompare[K any]() func(a, b K) int {
	var f interface{}
	switch any(*new(K)).(type) {
	case int:
		f = compareOrdered[int]
	case int8:
		f = compareOrdered[int8]
	case int16:
		f = compareOrdered[int16]
	case int32:
		f = compareOrdered[int32]
	case int64:
		f = compareOrdered[int64]
	case uint:
		f = compareOrdered[uint]
	case uint8:
		f = compareOrdered[uint8]
	case uint16:
		f = compareOrdered[uint16]
	case uint32:
		f = compareOrdered[uint32]
	case uint64:
		f = compareOrdered[uint64]
	case uintptr:
		f = compareOrdered[uintptr]
	case float32:
		f = compareOrdered[float32]
	case float64:
		f = compareOrdered[float64]
	case string:
		f = compareOrdered[string]
	case bool:
		f = compareBool
	case []byte:
		f = bytes.Compare
	}
	if f == nil {
		return nil
	}
	return f.(func(a, b K) int)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

// compareReflect orders defined types by their underlying kind.
func compareReflect[K any](t reflect.Type) func(a, b K) int {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b K) int {
			return compareOrdered(reflect.ValueOf(a).Int(), reflect.ValueOf(b).Int())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b K) int {
			return compareOrdered(reflect.ValueOf(a).Uint(), reflect.ValueOf(b).Uint())
		}
	case reflect.Float32, reflect.Float64:
		return func(a, b K) int {
			return compareOrdered(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float())
		}
	case reflect.String:
		return func(a, b K) int {
			return compareOrdered(reflect.ValueOf(a).String(), reflect.ValueOf(b).String())
		}
	case reflect.Bool:
		return func(a, b K) int {
			return compareBool(reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool())
		}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return func(a, b K) int {
				return bytes.Compare(reflect.ValueOf(a).Bytes(), reflect.ValueOf(b).Bytes())
			}
		}
	}
	return nil
}
