package alloc

import (
	"fmt"
	"unsafe"
)

// Op identifies a tracked allocator call.
type Op uint8

const (
	OpAlloc Op = iota + 1
	OpFail
	OpRelease
	OpViolation
)

func (o Op) String() string {
	switch o {
	case OpAlloc:
		return "alloc"
	case OpFail:
		return "fail"
	case OpRelease:
		return "release"
	case OpViolation:
		return "violation"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Event is one recorded allocator call. Addr and Size are widened to uint64
// so events encode with msgpack, which has no uintptr codec.
type Event struct {
	Seq  uint64 `json:"seq" msgpack:"seq"`
	Op   Op     `json:"op" msgpack:"op"`
	Addr uint64 `json:"addr" msgpack:"addr"`
	Size uint64 `json:"size" msgpack:"size"`
}

// Violation describes a Release that broke the allocator contract.
type Violation struct {
	Addr uintptr
	Err  error
}

func (v Violation) Error() string {
	return fmt.Sprintf("release %#x: %v", v.Addr, v.Err)
}

func (v Violation) Unwrap() error { return v.Err }

// TrackingOption configures a Tracking allocator.
type TrackingOption func(*Tracking)

// WithEvents records every call in an in-memory event log.
func WithEvents() TrackingOption {
	return func(t *Tracking) { t.record = true }
}

// WithViolationHook calls fn for every contract violation.
func WithViolationHook(fn func(Violation)) TrackingOption {
	return func(t *Tracking) { t.onViolation = fn }
}

// Tracking wraps an allocator and accounts for every pointer it hands out.
//
// Releases of pointers that are not currently live are never forwarded to
// the wrapped allocator; they are recorded as violations instead, with
// ErrDoubleRelease for pointers released before and ErrBadRelease for
// pointers never seen.
type Tracking struct {
	inner Allocator

	live     map[uintptr]uintptr
	released map[uintptr]struct{}

	stats       Stats
	violations  []Violation
	onViolation func(Violation)

	record bool
	events []Event
	seq    uint64
}

// NewTracking wraps inner.
func NewTracking(inner Allocator, opts ...TrackingOption) *Tracking {
	t := &Tracking{
		inner:    inner,
		live:     make(map[uintptr]uintptr),
		released: make(map[uintptr]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracking) Alloc(size uintptr) unsafe.Pointer {
	p := t.inner.Alloc(size)
	if p == nil {
		t.stats.Failed++
		t.emit(OpFail, 0, size)
		return nil
	}
	addr := uintptr(p)
	t.live[addr] = size
	delete(t.released, addr)
	t.stats.recordAlloc(int64(size))
	t.emit(OpAlloc, addr, size)
	return p
}

func (t *Tracking) Release(p unsafe.Pointer) {
	addr := uintptr(p)
	size, ok := t.live[addr]
	if !ok {
		err := ErrBadRelease
		if _, seen := t.released[addr]; seen {
			err = ErrDoubleRelease
		}
		t.violate(Violation{Addr: addr, Err: err})
		return
	}
	delete(t.live, addr)
	t.released[addr] = struct{}{}
	t.stats.recordRelease(int64(size))
	t.emit(OpRelease, addr, size)
	t.inner.Release(p)
}

func (t *Tracking) violate(v Violation) {
	t.violations = append(t.violations, v)
	t.emit(OpViolation, v.Addr, 0)
	if t.onViolation != nil {
		t.onViolation(v)
	}
}

func (t *Tracking) emit(op Op, addr, size uintptr) {
	t.seq++
	if t.record {
		t.events = append(t.events, Event{Seq: t.seq, Op: op, Addr: uint64(addr), Size: uint64(size)})
	}
}

// Stats returns a snapshot of the counters.
func (t *Tracking) Stats() Stats { return t.stats }

// IsLive reports whether p was allocated and not yet released.
func (t *Tracking) IsLive(p unsafe.Pointer) bool {
	_, ok := t.live[uintptr(p)]
	return ok
}

// Violations returns the contract violations seen so far.
func (t *Tracking) Violations() []Violation {
	return append([]Violation(nil), t.violations...)
}

// Events returns the recorded event log. It is empty unless WithEvents was given.
func (t *Tracking) Events() []Event {
	return append([]Event(nil), t.events...)
}

// Calls reports how many calls reached the tracker, recorded or not.
func (t *Tracking) Calls() uint64 { return t.seq }

var _ Allocator = (*Tracking)(nil)
