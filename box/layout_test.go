package box

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/joshuapare/boxkit/tagptr"
)

func TestLayoutOf(t *testing.T) {
	assert.Equal(t, Layout{Size: 4, Align: 4}, LayoutOf[int32]())
	assert.Equal(t, Layout{Size: 8, Align: 4}, LayoutOf[point]())
	assert.Equal(t, Layout{Size: 0, Align: 1}, LayoutOf[struct{}]())
	assert.Equal(t, uintptr(0), LayoutOf[[0]*int]().Size, "empty array of pointers holds no pointers")
}

func TestLayoutOf_PointerTypes(t *testing.T) {
	assert.Panics(t, func() { LayoutOf[*int]() })
	assert.Panics(t, func() { LayoutOf[string]() })
	assert.Panics(t, func() { LayoutOf[map[int]int]() })
	assert.Panics(t, func() { LayoutOf[chan int]() })
	assert.Panics(t, func() { LayoutOf[func()]() })
	assert.Panics(t, func() { LayoutOf[unsafe.Pointer]() })
	assert.Panics(t, func() { LayoutOf[[2]struct{ S []byte }]() })
	assert.Panics(t, func() { LayoutOf[struct{ Next tagptr.Ptr }]() }, "tagged pointers hold a Go pointer")
}

func TestHasPointers(t *testing.T) {
	type nested struct {
		A [4]int64
		B struct {
			C complex128
			D bool
		}
	}
	assert.NotPanics(t, func() { LayoutOf[nested]() })

	// Second lookup comes from the cache and must agree.
	assert.Panics(t, func() { LayoutOf[*nested]() })
	assert.Panics(t, func() { LayoutOf[*nested]() })
}
