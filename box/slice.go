package box

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/internal/buf"
	"github.com/joshuapare/boxkit/tagptr"
)

// Slice owns a contiguous run of Len values of type E in allocator memory.
// It follows Box's ownership protocol; an empty Slice or one of zero-size
// elements owns no storage and starts out released.
type Slice[E any] struct {
	_ noCopy
	owner
	n int
}

// RawSlice is the exported form of a Slice.
type RawSlice struct {
	Ptr tagptr.Ptr
	Len int
}

// NewSlice copies elems into fresh storage from a.
func NewSlice[E any](a alloc.Allocator, elems []E) (*Slice[E], error) {
	l := LayoutOf[E]()
	size, ok := buf.MulUintptr(l.Size, uintptr(len(elems)))
	if !ok {
		return nil, fmt.Errorf("new []%v of %d elements: size overflows: %w", reflect.TypeFor[E](), len(elems), ErrAlloc)
	}
	if size == 0 {
		return &Slice[E]{owner: owner{ptr: released(), alloc: a}, n: len(elems)}, nil
	}

	p := a.Alloc(size)
	if p == nil {
		return nil, fmt.Errorf("new []%v (%d bytes): %w", reflect.TypeFor[E](), size, ErrAlloc)
	}
	copy(unsafe.Slice((*E)(p), len(elems)), elems)
	return &Slice[E]{owner: owner{ptr: tagptr.FromPointer(p), alloc: a}, n: len(elems)}, nil
}

// UpcastArray reinterprets a Box of [N]E as a Slice of N elements, without
// copying. b is consumed. It panics unless A is an array type of E.
func UpcastArray[E, A any](b *Box[A]) *Slice[E] {
	at, et := reflect.TypeFor[A](), reflect.TypeFor[E]()
	if at.Kind() != reflect.Array || at.Elem() != et {
		panic(fmt.Sprintf("box: %v is not an array of %v", at, et))
	}
	return &Slice[E]{owner: owner{ptr: b.intoRaw(), alloc: b.alloc}, n: at.Len()}
}

// FromRawSlice adopts a raw handle produced by IntoRaw, including its
// ownership state. The caller guarantees the storage belongs to a.
func FromRawSlice[E any](a alloc.Allocator, r RawSlice) *Slice[E] {
	LayoutOf[E]()
	return &Slice[E]{owner: owner{ptr: r.Ptr, alloc: a}, n: r.Len}
}

// Len returns the number of elements.
func (s *Slice[E]) Len() int {
	return s.n
}

// Elems returns the owned elements as a Go slice aliasing the storage. It is
// only valid while the Slice is.
func (s *Slice[E]) Elems() []E {
	if s.n == 0 {
		return []E{}
	}
	p := s.ptr.Pointer()
	if p == nil {
		var zero E
		if unsafe.Sizeof(zero) != 0 {
			return nil
		}
		p = unsafe.Pointer(&zeroBase)
	}
	return unsafe.Slice((*E)(p), s.n)
}

// At returns a copy of element i. It panics if i is out of range.
func (s *Slice[E]) At(i int) E {
	return s.Elems()[i]
}

// SetAt overwrites element i. It panics if i is out of range.
func (s *Slice[E]) SetAt(i int, v E) {
	s.Elems()[i] = v
}

// Drop destroys every element and releases the storage if this Slice is
// still responsible for them.
func (s *Slice[E]) Drop() {
	s.drop(func(p unsafe.Pointer) {
		var zero E
		size := unsafe.Sizeof(zero)
		for i := range s.n {
			dropInPlace[E](unsafe.Add(p, uintptr(i)*size))
		}
	})
}

// TryClone copies every element into a new Slice on the same allocator.
func (s *Slice[E]) TryClone() (*Slice[E], error) {
	src := s.Elems()
	dst := make([]E, len(src))
	for i := range src {
		v, err := cloneValue(&src[i])
		if err != nil {
			return nil, fmt.Errorf("clone element %d: %w", i, err)
		}
		dst[i] = v
	}
	return NewSlice(s.alloc, dst)
}

// Leak gives up destruction responsibility. See Box.Leak.
func (s *Slice[E]) Leak() {
	s.leak()
}

// Unleak takes destruction responsibility back. A null address stays
// released. See Box.Unleak.
func (s *Slice[E]) Unleak() {
	s.unleak()
}

// IntoRaw exports ownership together with the length. See Box.IntoRaw.
func (s *Slice[E]) IntoRaw() RawSlice {
	return RawSlice{Ptr: s.intoRaw(), Len: s.n}
}

// Released reports whether this Slice is no longer responsible for its storage.
func (s *Slice[E]) Released() bool {
	return s.ptr.Bit()
}

// Addr returns the storage address, 0 when no storage is owned.
func (s *Slice[E]) Addr() uintptr {
	return s.ptr.Addr()
}
