package box

import "unsafe"

// Dropper is implemented by payloads that need cleanup before their storage
// is released.
type Dropper interface {
	Drop()
}

// Cloner is implemented by payloads whose copy can fail.
type Cloner[T any] interface {
	TryClone() (T, error)
}

// dropInPlace runs the payload destructor at p, if T has one.
func dropInPlace[T any](p unsafe.Pointer) {
	if d, ok := any((*T)(p)).(Dropper); ok {
		d.Drop()
	}
}

// cloneValue copies *p, going through Cloner when T implements it.
func cloneValue[T any](p *T) (T, error) {
	if c, ok := any(p).(Cloner[T]); ok {
		return c.TryClone()
	}
	return *p, nil
}
