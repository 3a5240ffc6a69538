// Package same decides when a value handed back by an updater callback is
// the value already stored, so unchanged nodes can be returned as-is.
package same

import "reflect"

// Value reports whether a and b are the same value. Comparable values are
// compared with ==. Slices are the same when they share a backing array and
// length, maps when they are the same map. Functions are never the same.
func Value[V any](a, b V) bool {
	x, y := any(a), any(b)
	if x == nil || y == nil {
		return x == nil && y == nil
	}
	rx, ry := reflect.ValueOf(x), reflect.ValueOf(y)
	if rx.Type() != ry.Type() {
		return false
	}
	switch rx.Kind() {
	case reflect.Slice:
		return rx.Pointer() == ry.Pointer() && rx.Len() == ry.Len()
	case reflect.Map:
		return rx.Pointer() == ry.Pointer()
	case reflect.Func:
		return false
	}
	if !rx.Type().Comparable() {
		return false
	}
	return equal(x, y)
}

// equal compares two interface values, treating a comparison that panics
// (a struct holding an incomparable interface value, say) as unequal.
func equal(x, y any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return x == y
}

// IsNil reports whether v is nil or a nil pointer, map, slice, channel,
// function or interface.
func IsNil[V any](v V) bool {
	x := any(v)
	if x == nil {
		return true
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
