package box

import (
	"errors"
	"testing"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int32
}

// dropLog records ids of dropped tracked values, in order.
var dropLog []int32

type tracked struct {
	ID int32
}

func (t *tracked) Drop() { dropLog = append(dropLog, t.ID) }

// marker is zero-size but has a destructor, which must never run.
type marker struct{}

func (*marker) Drop() { dropLog = append(dropLog, -1) }

var errCloneFailed = errors.New("clone failed")

type fallible struct {
	V    int32
	Fail bool
}

func (f *fallible) TryClone() (fallible, error) {
	if f.Fail {
		return fallible{}, errCloneFailed
	}
	return fallible{V: f.V + 1000}, nil
}

type shape interface {
	Area() float64
	Scale(f float64)
}

type square struct {
	Side float64
}

func (s *square) Area() float64   { return s.Side * s.Side }
func (s *square) Scale(f float64) { s.Side *= f }

type rect struct {
	W, H float64
	ID   int32
}

func (r *rect) Area() float64   { return r.W * r.H }
func (r *rect) Scale(f float64) { r.W *= f; r.H *= f }
func (r *rect) Drop()           { dropLog = append(dropLog, r.ID) }

type unit struct{}

func (*unit) Area() float64 { return 0 }
func (*unit) Scale(float64) {}

// newTracker returns a tracking allocator over a fresh Go heap and resets
// the drop log. It fails the test at cleanup if any release broke the
// allocator contract.
func newTracker(t *testing.T) *alloc.Tracking {
	t.Helper()
	dropLog = nil
	tr := alloc.NewTracking(alloc.NewHeap(), alloc.WithEvents())
	t.Cleanup(func() {
		require.Empty(t, tr.Violations(), "allocator contract violated")
	})
	return tr
}
