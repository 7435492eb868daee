// Package overrides implements the layering rules for prefab payloads: a
// stronger layer keeps what it explicitly declares and everything else falls
// through to the weaker layer underneath.
//
// Two layerings exist. Attribute maps merge key-wise before decoding, so an
// instance only has to name the fields it changes. Decoded Go payloads merge
// field-wise for programmatic spawn overrides.
package overrides

import (
	"reflect"

	"github.com/hashicorp/hcl/v2"
)

// Attrs merges raw attribute expressions key-wise, strongest first. Keys the
// strong layer declares shadow the weak layer's; the inputs are not mutated.
func Attrs(strong, weak map[string]hcl.Expression) map[string]hcl.Expression {
	if len(strong) == 0 {
		return weak
	}
	if len(weak) == 0 {
		return strong
	}
	out := make(map[string]hcl.Expression, len(weak)+len(strong))
	for k, v := range weak {
		out[k] = v
	}
	for k, v := range strong {
		out[k] = v
	}
	return out
}

// MergeLayers composes payload values ordered from strongest to weakest,
// returning a new value that keeps explicit settings from stronger layers
// while filling missing data from weaker ones.
func MergeLayers[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	merged := layers[len(layers)-1]
	for i := len(layers) - 2; i >= 0; i-- {
		merged = Merge(layers[i], merged).(T)
	}
	return merged
}

// Merge composes two payload values of the same dynamic type, strongest
// first. Nil pointers, nil maps and slices, and zero scalars in the strong
// value fall through to the weak one; declared values win.
func Merge(strong, weak any) any {
	sv := reflect.ValueOf(strong)
	wv := reflect.ValueOf(weak)
	out := mergeValue(sv, wv)
	if !out.IsValid() {
		return weak
	}
	return out.Interface()
}

func mergeValue(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return weak
	}
	if !weak.IsValid() {
		return strong
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return weak
		}
		if weak.Kind() != reflect.Pointer || weak.IsNil() {
			return strong
		}
		merged := mergeValue(strong.Elem(), weak.Elem())
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(merged)
		return out

	case reflect.Interface:
		if strong.IsNil() {
			return weak
		}
		if weak.IsNil() {
			return strong
		}
		merged := mergeValue(strong.Elem(), weak.Elem())
		out := reflect.New(strong.Type()).Elem()
		out.Set(merged)
		return out

	case reflect.Struct:
		if weak.Type() != strong.Type() {
			return strong
		}
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(mergeValue(strong.Field(i), weak.Field(i)))
		}
		return out

	case reflect.Map:
		if strong.IsNil() {
			return weak
		}
		if weak.Kind() != reflect.Map || weak.IsNil() || weak.Type() != strong.Type() {
			return strong
		}
		out := reflect.MakeMapWithSize(strong.Type(), weak.Len()+strong.Len())
		for it := weak.MapRange(); it.Next(); {
			out.SetMapIndex(it.Key(), it.Value())
		}
		for it := strong.MapRange(); it.Next(); {
			out.SetMapIndex(it.Key(), it.Value())
		}
		return out

	case reflect.Slice:
		// Slices replace wholesale; element-wise merging of scene lists
		// would silently reorder overrides.
		if strong.IsNil() {
			return weak
		}
		return strong

	default:
		if strong.IsZero() {
			return weak
		}
		return strong
	}
}
