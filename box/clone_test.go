package box

import (
	"testing"

	"github.com/joshuapare/boxkit/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClone_Bitwise(t *testing.T) {
	tr := newTracker(t)

	b, err := New(tr, point{X: 1, Y: 2})
	require.NoError(t, err)
	defer b.Drop()

	c, err := b.TryClone()
	require.NoError(t, err)
	defer c.Drop()

	assert.Equal(t, b.Get(), c.Get())
	assert.NotEqual(t, b.Addr(), c.Addr(), "clone must own fresh storage")
	c.AsMut().X = 99
	assert.Equal(t, int32(1), b.Get().X, "clone must be independent")
}

func TestTryClone_UsesCloner(t *testing.T) {
	tr := newTracker(t)

	b, err := New(tr, fallible{V: 5})
	require.NoError(t, err)
	defer b.Drop()

	c, err := b.TryClone()
	require.NoError(t, err)
	defer c.Drop()
	assert.Equal(t, int32(1005), c.Get().V)
}

func TestTryClone_PayloadFailure(t *testing.T) {
	tr := newTracker(t)

	b, err := New(tr, fallible{Fail: true})
	require.NoError(t, err)
	defer b.Drop()

	c, err := b.TryClone()
	require.ErrorIs(t, err, errCloneFailed)
	assert.Nil(t, c)
	assert.Equal(t, int64(1), tr.Stats().Allocs, "a failed payload clone must not allocate")
}

func TestTryClone_AllocFailure(t *testing.T) {
	tr := alloc.NewTracking(alloc.NewHeap())
	lim := alloc.Limit(tr, 1)

	b, err := New(lim, point{X: 1})
	require.NoError(t, err)

	c, err := b.TryClone()
	require.ErrorIs(t, err, ErrAlloc)
	assert.Nil(t, c)
	assert.Equal(t, int64(1), tr.Stats().Live, "failed clone holds nothing")

	b.Drop()
	assert.Zero(t, tr.Stats().Live)
	assert.Empty(t, tr.Violations())
}

func TestTryClone_ZeroSize(t *testing.T) {
	b, err := New(alloc.Failing{}, struct{}{})
	require.NoError(t, err)
	c, err := b.TryClone()
	require.NoError(t, err)
	assert.True(t, c.Released())
}
