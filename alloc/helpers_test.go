package alloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// newTestArena builds a heap-backed arena and closes it when the test ends.
func newTestArena(t *testing.T, size int) *Arena {
	t.Helper()
	a, err := NewHeapArena(size)
	require.NoError(t, err, "NewHeapArena(%d)", size)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// requireAligned fails the test if p is not Alignment-aligned.
func requireAligned(t *testing.T, p unsafe.Pointer) {
	t.Helper()
	require.NotNil(t, p)
	require.Zero(t, uintptr(p)%Alignment, "pointer %p should be %d-byte aligned", p, Alignment)
}

// fill writes a recognisable pattern over n bytes at p.
func fill(p unsafe.Pointer, n int, seed byte) {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = seed + byte(i)
	}
}

// check reports whether the pattern written by fill is intact.
func check(p unsafe.Pointer, n int, seed byte) bool {
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}
