package alloc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapRegion(t *testing.T) {
	r := NewHeapRegion(100)
	assert.Len(t, r.Bytes(), 100)
	require.NoError(t, r.Close())
	assert.Empty(t, r.Bytes())

	assert.Empty(t, NewHeapRegion(0).Bytes())
}

func TestMapFileRegion_Arena(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	path := filepath.Join(t.TempDir(), "arena.bin")

	r, err := MapFileRegion(path, 1<<14)
	require.NoError(t, err)
	a, err := NewArena(r)
	require.NoError(t, err)

	p := a.Alloc(256)
	requireAligned(t, p)
	fill(p, 256, 9)
	a.Release(p)
	require.NoError(t, a.Verify())
	require.NoError(t, a.Close())
}
