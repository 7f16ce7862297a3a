package box

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/tagptr"
)

// Box owns one value of type T stored in memory obtained from an
// alloc.Allocator.
//
// A Box must not be copied; pass *Box[T] around and end ownership with Drop.
type Box[T any] struct {
	_ noCopy
	owner
}

// New moves v into fresh storage from a.
//
// Zero-size types never touch the allocator and always succeed. Otherwise
// New requests exactly LayoutOf[T]().Size bytes and returns an error
// wrapping ErrAlloc when a declines; nothing is held in that case.
func New[T any](a alloc.Allocator, v T) (*Box[T], error) {
	l := LayoutOf[T]()
	if l.Size == 0 {
		return &Box[T]{owner: owner{ptr: released(), alloc: a}}, nil
	}

	p := a.Alloc(l.Size)
	if p == nil {
		return nil, fmt.Errorf("new %v (%d bytes): %w", reflect.TypeFor[T](), l.Size, ErrAlloc)
	}
	// The storage is uninitialised and T is pointer-free, so a plain store
	// is a raw placement.
	*(*T)(p) = v
	return &Box[T]{owner: owner{ptr: tagptr.FromPointer(p), alloc: a}}, nil
}

// FromRaw adopts p, including the ownership state its flag encodes.
//
// The caller guarantees that p came from IntoRaw (or Raw) of a Box[T] whose
// storage belongs to a, and that no other owner is responsible for it.
func FromRaw[T any](a alloc.Allocator, p tagptr.Ptr) *Box[T] {
	LayoutOf[T]()
	return &Box[T]{owner: owner{ptr: p, alloc: a}}
}

// Get returns a copy of the owned value.
func (b *Box[T]) Get() T {
	return *b.AsRef()
}

// Set overwrites the owned value.
func (b *Box[T]) Set(v T) {
	*b.AsMut() = v
}

// AsRef returns a pointer to the owned value for reading.
// The result is undefined once the Box has released its storage.
func (b *Box[T]) AsRef() *T {
	return b.AsMut()
}

// AsMut returns a pointer to the owned value for writing.
// The result is undefined once the Box has released its storage.
func (b *Box[T]) AsMut() *T {
	if p := b.ptr.Pointer(); p != nil {
		return (*T)(p)
	}
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		return (*T)(unsafe.Pointer(&zeroBase))
	}
	return nil
}

// Drop destroys the value and releases its storage if this Box is still
// responsible for them. It is a no-op for zero-size, leaked and already
// dropped boxes.
func (b *Box[T]) Drop() {
	b.drop(dropInPlace[T])
}

// TryClone copies the value into a new Box on the same allocator. The copy
// goes through Cloner when *T implements it; its error is returned as is.
func (b *Box[T]) TryClone() (*Box[T], error) {
	v, err := cloneValue(b.AsRef())
	if err != nil {
		return nil, err
	}
	return New(b.alloc, v)
}

// Leak gives up destruction responsibility without destroying or releasing
// anything. Drop becomes a no-op; the caller now owns the storage.
func (b *Box[T]) Leak() {
	b.leak()
}

// Unleak takes destruction responsibility back. The caller guarantees the
// storage is still valid and owned by nobody else.
//
// A Box with a null address (a zero-size value, or one adopted from a null
// raw pointer) owns nothing to take back, so it stays released: Released
// keeps reporting true after Unleak. Drop is a no-op for it either way.
func (b *Box[T]) Unleak() {
	b.unleak()
}

// IntoRaw exports ownership. The Box is leaked and must not be used again;
// the returned pointer carries the released flag as it was before the call,
// so FromRaw restores exactly the same responsibility.
func (b *Box[T]) IntoRaw() tagptr.Ptr {
	return b.intoRaw()
}

// Raw returns the tagged pointer without changing ownership.
func (b *Box[T]) Raw() tagptr.Ptr {
	return b.ptr
}

// Addr returns the storage address, 0 for zero-size payloads.
func (b *Box[T]) Addr() uintptr {
	return b.ptr.Addr()
}

// Released reports whether this Box is no longer responsible for its storage.
func (b *Box[T]) Released() bool {
	return b.ptr.Bit()
}

// Allocator returns the allocator the storage belongs to.
func (b *Box[T]) Allocator() alloc.Allocator {
	return b.alloc
}

func (b *Box[T]) String() string {
	return fmt.Sprintf("Box[%v](%v)", reflect.TypeFor[T](), b.ptr)
}
