package box

import (
	"unsafe"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/tagptr"
)

// owner is the state shared by Box, Dyn and Slice: the tagged address and
// the allocator it must be released to.
type owner struct {
	ptr   tagptr.Ptr
	alloc alloc.Allocator
}

// released is the address-0, released-flag-set pointer every zero-size
// payload starts with.
func released() tagptr.Ptr {
	return tagptr.Null(true)
}

// drop runs destroy and releases the storage, at most once.
func (o *owner) drop(destroy func(unsafe.Pointer)) {
	if o.ptr.Bit() {
		return
	}
	p := o.ptr.Pointer()
	if p == nil {
		return
	}
	if destroy != nil {
		destroy(p)
	}
	o.alloc.Release(p)
	o.ptr.SetBit(true)
}

func (o *owner) leak() {
	o.ptr.SetBit(true)
}

// unleak clears the released flag. A null address never carries
// responsibility, so it stays released.
func (o *owner) unleak() {
	if o.ptr.IsNull() {
		return
	}
	o.ptr.SetBit(false)
}

// intoRaw leaks the owner and returns the pointer as it was before the leak.
func (o *owner) intoRaw() tagptr.Ptr {
	raw := o.ptr
	o.leak()
	return raw
}
