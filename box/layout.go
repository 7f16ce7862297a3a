package box

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/joshuapare/boxkit/alloc"
)

// Layout is the size and alignment of a payload type.
type Layout struct {
	Size  uintptr
	Align uintptr
}

// zeroBase is the address handed out for zero-size payloads, which own no
// storage but must still be dereferenceable.
var zeroBase [0]uint64

// checked caches the payload check per type: reflect.Type -> error.
var checked sync.Map

// LayoutOf returns the layout of T. It panics if T cannot live in
// allocator memory: T contains Go pointers, or needs more alignment than
// alloc.Alignment.
func LayoutOf[T any]() Layout {
	var zero T
	l := Layout{Size: unsafe.Sizeof(zero), Align: unsafe.Alignof(zero)}
	if err := checkPayload(reflect.TypeFor[T](), l); err != nil {
		panic(err)
	}
	return l
}

func checkPayload(t reflect.Type, l Layout) error {
	if v, ok := checked.Load(t); ok {
		err, _ := v.(error)
		return err
	}
	var err error
	switch {
	case hasPointers(t):
		err = fmt.Errorf("box: payload type %v contains Go pointers", t)
	case l.Align > alloc.Alignment:
		err = fmt.Errorf("box: payload type %v needs %d-byte alignment, allocators guarantee %d", t, l.Align, alloc.Alignment)
	}
	checked.Store(t, err)
	return err
}

// hasPointers reports whether values of t hold anything the garbage
// collector would need to see.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
