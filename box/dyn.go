package box

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/tagptr"
)

// Descriptor carries what a Dyn needs to use and destroy a value whose
// concrete type it no longer knows.
type Descriptor[I any] struct {
	typ    reflect.Type
	layout Layout
	drop   func(unsafe.Pointer)
	view   func(unsafe.Pointer) I
}

// Type returns the concrete payload type.
func (d *Descriptor[I]) Type() reflect.Type { return d.typ }

// Layout returns the concrete payload layout.
func (d *Descriptor[I]) Layout() Layout { return d.layout }

// DescriptorOf builds the descriptor for viewing a T through I.
// It panics unless I is an interface type implemented by *T.
func DescriptorOf[I, T any]() *Descriptor[I] {
	l := LayoutOf[T]()
	it, tt := reflect.TypeFor[I](), reflect.TypeFor[T]()
	if it.Kind() != reflect.Interface {
		panic(fmt.Sprintf("box: upcast target %v is not an interface", it))
	}
	if !reflect.PointerTo(tt).Implements(it) {
		panic(fmt.Sprintf("box: *%v does not implement %v", tt, it))
	}
	return &Descriptor[I]{
		typ:    tt,
		layout: l,
		drop:   dropInPlace[T],
		view: func(p unsafe.Pointer) I {
			return any((*T)(p)).(I)
		},
	}
}

// Dyn owns a value through the interface I. It shares Box's ownership
// protocol; only the static type is forgotten.
type Dyn[I any] struct {
	_ noCopy
	owner
	desc *Descriptor[I]
}

// RawDyn is the exported form of a Dyn: the tagged pointer plus the
// descriptor needed to use and destroy it.
type RawDyn[I any] struct {
	Ptr  tagptr.Ptr
	desc *Descriptor[I]
}

// Descriptor returns the descriptor travelling with the raw handle.
func (r RawDyn[I]) Descriptor() *Descriptor[I] { return r.desc }

// Upcast moves b's ownership into a view through I, without copying or
// reallocating. b is consumed: it is leaked and must not be used again.
func Upcast[I, T any](b *Box[T]) *Dyn[I] {
	desc := DescriptorOf[I, T]()
	return &Dyn[I]{owner: owner{ptr: b.intoRaw(), alloc: b.alloc}, desc: desc}
}

// FromRawDyn adopts a raw handle produced by IntoRaw, including its
// ownership state. The caller guarantees the storage belongs to a.
func FromRawDyn[I any](a alloc.Allocator, r RawDyn[I]) *Dyn[I] {
	if r.desc == nil {
		panic("box: raw dyn handle without descriptor")
	}
	return &Dyn[I]{owner: owner{ptr: r.Ptr, alloc: a}, desc: r.desc}
}

// Get returns the owned value as an I. The interface holds a pointer into
// the owned storage, so it is only valid while the Dyn is.
func (d *Dyn[I]) Get() I {
	p := d.ptr.Pointer()
	if p == nil && d.desc.layout.Size == 0 {
		p = unsafe.Pointer(&zeroBase)
	}
	return d.desc.view(p)
}

// Drop destroys the value and releases its storage if this Dyn is still
// responsible for them.
func (d *Dyn[I]) Drop() {
	d.drop(d.desc.drop)
}

// Leak gives up destruction responsibility. See Box.Leak.
func (d *Dyn[I]) Leak() {
	d.leak()
}

// Unleak takes destruction responsibility back. A null address stays
// released. See Box.Unleak.
func (d *Dyn[I]) Unleak() {
	d.unleak()
}

// IntoRaw exports ownership together with the descriptor. See Box.IntoRaw.
func (d *Dyn[I]) IntoRaw() RawDyn[I] {
	return RawDyn[I]{Ptr: d.intoRaw(), desc: d.desc}
}

// Released reports whether this Dyn is no longer responsible for its storage.
func (d *Dyn[I]) Released() bool {
	return d.ptr.Bit()
}

// Addr returns the storage address, 0 for zero-size payloads.
func (d *Dyn[I]) Addr() uintptr {
	return d.ptr.Addr()
}

// Descriptor returns the type descriptor of the owned value.
func (d *Dyn[I]) Descriptor() *Descriptor[I] {
	return d.desc
}

// Downcast returns a pointer to the owned value if its concrete type is T.
func Downcast[T, I any](d *Dyn[I]) (*T, bool) {
	if d.desc.typ != reflect.TypeFor[T]() {
		return nil, false
	}
	p := d.ptr.Pointer()
	if p == nil && d.desc.layout.Size == 0 {
		p = unsafe.Pointer(&zeroBase)
	}
	return (*T)(p), true
}
