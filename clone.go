package executor

import "reflect"

// ShallowClone is the default Cloner: primitives and other values Go
// already copies by value pass through unchanged (a struct parameter
// assigned to a new variable can never alias the caller's copy); maps
// and slices — the two built-in reference types a caller could mutate
// out from under the context — are copied one level deep. Pointers to
// structs are copied to a fresh struct carrying the same field values,
// matching the spec's "arrays/plain objects spread-copied" rule for the
// nearest Go equivalent of a plain object reference.
func ShallowClone[T any](v T) T {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface().(T)
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Cap())
		reflect.Copy(out, rv)
		return out.Interface().(T)
	case reflect.Ptr:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return v
		}
		out := reflect.New(rv.Elem().Type())
		out.Elem().Set(rv.Elem())
		return out.Interface().(T)
	default:
		// Structs, primitives, and everything else already copy by
		// value through the function's argument passing.
		return v
	}
}

// sameConcreteType reports whether a and b share a dynamic type, the Go
// stand-in for "equal constructor/prototype identity".
func sameConcreteType(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}
