package main

import (
	"errors"
	"fmt"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/joshuapare/boxkit/box"
)

// check is one ownership scenario run against a fresh tracker.
type check struct {
	name string
	desc string
	run  func(env *checkEnv) error
}

type checkEnv struct {
	base alloc.Allocator
	tr   *alloc.Tracking
}

// track replaces the tracker with one wrapping inner and returns it.
func (e *checkEnv) track(inner alloc.Allocator) *alloc.Tracking {
	e.tr = alloc.NewTracking(inner)
	return e.tr
}

var checks = []check{
	{"new", "new(42) reads back 42 and releases exactly once", scenarioNew},
	{"zero-size", "zero-size payload never reaches the allocator", scenarioZeroSize},
	{"alloc-failure", "failing allocator yields ErrAlloc and no release", scenarioAllocFailure},
	{"leak", "leaked storage survives and is released once after re-adoption", scenarioLeak},
	{"drop-once", "destruction runs at most once", propertyNoDoubleFree},
	{"zero-size-ops", "zero-size operations never allocate", propertyZeroSize},
	{"raw-round-trip", "into-raw then from-raw preserves address, value and responsibility", propertyRawRoundTrip},
	{"leak-unleak", "leak then unleak restores a single release", propertyLeakUnleak},
	{"failure-clean", "failed construction holds nothing", propertyFailureClean},
	{"access", "mutations through the box are visible to later reads", propertyAccess},
}

// runCheck runs c on a fresh tracker over base and then requires that no
// contract was violated and nothing is left allocated.
func runCheck(c check, base alloc.Allocator) (err error) {
	env := &checkEnv{base: base}
	env.track(base)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := c.run(env); err != nil {
		return err
	}
	if v := env.tr.Violations(); len(v) > 0 {
		return fmt.Errorf("%d contract violations, first: %w", len(v), v[0])
	}
	if live := env.tr.Stats().Live; live != 0 {
		return fmt.Errorf("%d blocks still live", live)
	}
	return nil
}

type pair struct {
	X, Y int32
}

// drops counts destructor runs of counted values.
var drops int

type counted struct {
	N int32
}

func (*counted) Drop() { drops++ }

type marker struct{}

func (*marker) Drop() { drops++ }

func expectReleases(tr *alloc.Tracking, want int64) error {
	if got := tr.Stats().Releases; got != want {
		return fmt.Errorf("%d releases, want %d", got, want)
	}
	return nil
}

func expectDrops(want int) error {
	if drops != want {
		return fmt.Errorf("destructor ran %d times, want %d", drops, want)
	}
	return nil
}

func scenarioNew(env *checkEnv) error {
	b, err := box.New(env.tr, int32(42))
	if err != nil {
		return err
	}
	if got := *b.AsRef(); got != 42 {
		b.Drop()
		return fmt.Errorf("deref = %d, want 42", got)
	}
	if err := expectReleases(env.tr, 0); err != nil {
		return err
	}
	b.Drop()
	return expectReleases(env.tr, 1)
}

func scenarioZeroSize(env *checkEnv) error {
	drops = 0
	b, err := box.New(env.tr, marker{})
	if err != nil {
		return err
	}
	b.Drop()
	if n := env.tr.Calls(); n != 0 {
		return fmt.Errorf("allocator called %d times, want 0", n)
	}
	return expectDrops(0)
}

func scenarioAllocFailure(env *checkEnv) error {
	tr := env.track(alloc.Failing{})
	b, err := box.New(tr, int32(42))
	if !errors.Is(err, box.ErrAlloc) {
		return fmt.Errorf("err = %v, want %v", err, box.ErrAlloc)
	}
	if b != nil {
		return errors.New("failed construction returned a box")
	}
	if s := tr.Stats(); s.Failed != 1 {
		return fmt.Errorf("%d failed allocations recorded, want 1", s.Failed)
	}
	return expectReleases(tr, 0)
}

func scenarioLeak(env *checkEnv) error {
	b, err := box.New(env.tr, int32(42))
	if err != nil {
		return err
	}
	b.Leak()
	b.Drop()
	if err := expectReleases(env.tr, 0); err != nil {
		return err
	}
	if !env.tr.IsLive(b.Raw().Pointer()) {
		return errors.New("leaked storage was released")
	}

	c := box.FromRaw[int32](env.tr, b.IntoRaw())
	c.Unleak()
	if got := c.Get(); got != 42 {
		c.Drop()
		return fmt.Errorf("re-adopted value = %d, want 42", got)
	}
	c.Drop()
	return expectReleases(env.tr, 1)
}

func propertyNoDoubleFree(env *checkEnv) error {
	drops = 0
	b, err := box.New(env.tr, counted{N: 1})
	if err != nil {
		return err
	}
	b.Drop()
	b.Drop()
	if err := expectDrops(1); err != nil {
		return err
	}

	l, err := box.New(env.tr, counted{N: 2})
	if err != nil {
		return err
	}
	l.Leak()
	l.Drop()
	if err := expectDrops(1); err != nil {
		return err
	}
	if err := expectReleases(env.tr, 1); err != nil {
		return err
	}

	// Take the leaked value back so nothing outlives the check.
	box.FromRaw[counted](env.tr, l.IntoRaw().WithBit(false)).Drop()
	if err := expectDrops(2); err != nil {
		return err
	}
	return expectReleases(env.tr, 2)
}

func propertyZeroSize(env *checkEnv) error {
	z, err := box.New(env.tr, struct{}{})
	if err != nil {
		return err
	}
	c, err := z.TryClone()
	if err != nil {
		return err
	}
	z.Leak()
	z.Unleak()
	z.Drop()
	c.Drop()

	e, err := box.New(env.tr, [0]int64{})
	if err != nil {
		return err
	}
	r := box.FromRaw[[0]int64](env.tr, e.IntoRaw())
	r.Unleak()
	r.Drop()

	s, err := box.NewSlice(env.tr, make([]struct{}, 8))
	if err != nil {
		return err
	}
	s.Drop()

	if n := env.tr.Calls(); n != 0 {
		return fmt.Errorf("allocator called %d times, want 0", n)
	}
	return nil
}

func propertyRawRoundTrip(env *checkEnv) error {
	b, err := box.New(env.tr, pair{X: 3, Y: 4})
	if err != nil {
		return err
	}
	addr := b.Addr()
	c := box.FromRaw[pair](env.tr, b.IntoRaw())
	defer c.Drop()

	switch {
	case c.Addr() != addr:
		return fmt.Errorf("address %#x, want %#x", c.Addr(), addr)
	case c.Get() != (pair{X: 3, Y: 4}):
		return fmt.Errorf("value %+v, want {X:3 Y:4}", c.Get())
	case c.Released():
		return errors.New("re-adopted box is not responsible for its storage")
	}
	return expectReleases(env.tr, 0)
}

func propertyLeakUnleak(env *checkEnv) error {
	b, err := box.New(env.tr, pair{X: 1, Y: 2})
	if err != nil {
		return err
	}
	b.Leak()
	b.Unleak()
	b.Drop()
	b.Drop()
	return expectReleases(env.tr, 1)
}

func propertyFailureClean(env *checkEnv) error {
	tr := env.track(alloc.Limit(env.base, 1))
	first, err := box.New(tr, pair{X: 1})
	if err != nil {
		return err
	}
	defer first.Drop()

	second, err := box.New(tr, pair{X: 2})
	if !errors.Is(err, box.ErrAlloc) {
		if second != nil {
			second.Drop()
		}
		return fmt.Errorf("err = %v, want %v", err, box.ErrAlloc)
	}
	if live := tr.Stats().Live; live != 1 {
		return fmt.Errorf("%d blocks live after failure, want 1", live)
	}
	return nil
}

func propertyAccess(env *checkEnv) error {
	b, err := box.New(env.tr, pair{X: 1, Y: 2})
	if err != nil {
		return err
	}
	defer b.Drop()

	if got := b.Get(); got != (pair{X: 1, Y: 2}) {
		return fmt.Errorf("initial value %+v", got)
	}
	b.AsMut().X = 10
	if got := b.AsRef().X; got != 10 {
		return fmt.Errorf("X = %d after mutation, want 10", got)
	}
	b.Set(pair{X: -1, Y: -2})
	if got := b.Get(); got != (pair{X: -1, Y: -2}) {
		return fmt.Errorf("value %+v after Set", got)
	}
	return nil
}
