package alloc

import (
	"fmt"
	"unsafe"
)

// Failing is an Allocator that declines every request.
type Failing struct{}

// Alloc always returns nil.
func (Failing) Alloc(uintptr) unsafe.Pointer { return nil }

// Release panics: a Failing allocator never hands out pointers.
func (Failing) Release(p unsafe.Pointer) {
	panic(fmt.Errorf("failing release %p: %w", p, ErrBadRelease))
}

// Limited forwards to another allocator until a fixed number of allocations
// have succeeded, then declines every further request.
type Limited struct {
	inner     Allocator
	remaining int
}

// Limit wraps inner so that at most n allocations succeed.
func Limit(inner Allocator, n int) *Limited {
	return &Limited{inner: inner, remaining: n}
}

// Alloc forwards to the wrapped allocator while the budget lasts.
func (l *Limited) Alloc(size uintptr) unsafe.Pointer {
	if l.remaining <= 0 {
		return nil
	}
	p := l.inner.Alloc(size)
	if p != nil {
		l.remaining--
	}
	return p
}

// Release forwards to the wrapped allocator. Releasing does not refill the budget.
func (l *Limited) Release(p unsafe.Pointer) {
	l.inner.Release(p)
}

// Remaining reports how many more allocations may succeed.
func (l *Limited) Remaining() int {
	return l.remaining
}

var (
	_ Allocator = Failing{}
	_ Allocator = (*Limited)(nil)
)
