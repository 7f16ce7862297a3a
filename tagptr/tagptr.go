// Package tagptr pairs an address with one flag bit.
//
// The address is held as an unsafe.Pointer, never as an integer, so blocks
// on the Go heap stay visible to the garbage collector and pointer checks
// (-race, -d=checkptr) accept every conversion. Setting or clearing the bit
// never alters the address.
package tagptr

import (
	"fmt"
	"unsafe"
)

// Ptr is an address plus one tag bit.
// The zero value is the null address with the bit cleared.
type Ptr struct {
	p   unsafe.Pointer
	bit bool
}

// FromPointer builds a tagged pointer for p with the bit cleared.
func FromPointer(p unsafe.Pointer) Ptr {
	return Ptr{p: p}
}

// Null returns the null address with the bit set to v.
func Null(v bool) Ptr {
	return Ptr{bit: v}
}

// Addr returns the address as an integer, for display and comparison only.
func (p Ptr) Addr() uintptr {
	return uintptr(p.p)
}

// Pointer returns the address, or nil for the null address.
func (p Ptr) Pointer() unsafe.Pointer {
	return p.p
}

// IsNull reports whether the address is nil.
func (p Ptr) IsNull() bool {
	return p.p == nil
}

// Bit reports the tag bit.
func (p Ptr) Bit() bool {
	return p.bit
}

// SetBit sets or clears the tag bit in place.
func (p *Ptr) SetBit(v bool) {
	p.bit = v
}

// WithBit returns a copy of p with the tag bit set to v.
func (p Ptr) WithBit(v bool) Ptr {
	p.bit = v
	return p
}

// String formats the pointer as address plus bit, e.g. "0xc000010000+1".
func (p Ptr) String() string {
	bit := 0
	if p.bit {
		bit = 1
	}
	return fmt.Sprintf("%#x+%d", p.Addr(), bit)
}
