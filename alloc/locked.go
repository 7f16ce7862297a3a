package alloc

import (
	"sync"
	"unsafe"
)

// Locked serialises every call to the wrapped allocator with a mutex.
type Locked struct {
	mu    sync.Mutex
	inner Allocator
}

// NewLocked wraps inner for use from several goroutines.
func NewLocked(inner Allocator) *Locked {
	return &Locked{inner: inner}
}

func (l *Locked) Alloc(size uintptr) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Alloc(size)
}

func (l *Locked) Release(p unsafe.Pointer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Release(p)
}

// With runs fn with the lock held, for reading state of the wrapped
// allocator (stats, event logs) consistently.
func (l *Locked) With(fn func(inner Allocator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.inner)
}

var _ Allocator = (*Locked)(nil)
