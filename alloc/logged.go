package alloc

import (
	"unsafe"

	"go.uber.org/zap"
)

// Logged reports every call to the wrapped allocator through a zap.Logger:
// allocations and releases at debug level, failed allocations at warn.
type Logged struct {
	inner Allocator
	log   *zap.Logger
}

// NewLogged wraps inner. A nil logger discards everything.
func NewLogged(inner Allocator, log *zap.Logger) *Logged {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logged{inner: inner, log: log.Named("alloc")}
}

func (l *Logged) Alloc(size uintptr) unsafe.Pointer {
	p := l.inner.Alloc(size)
	if p == nil {
		l.log.Warn("allocation failed", zap.Uintptr("size", size))
		return nil
	}
	l.log.Debug("alloc", zap.Uintptr("addr", uintptr(p)), zap.Uintptr("size", size))
	return p
}

func (l *Logged) Release(p unsafe.Pointer) {
	l.log.Debug("release", zap.Uintptr("addr", uintptr(p)))
	l.inner.Release(p)
}

var _ Allocator = (*Logged)(nil)
