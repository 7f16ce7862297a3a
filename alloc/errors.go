package alloc

import "errors"

var (
	// ErrBadRelease indicates a release of a pointer the allocator never handed out.
	ErrBadRelease = errors.New("alloc: release of unknown pointer")

	// ErrDoubleRelease indicates a release of a block that is already free.
	ErrDoubleRelease = errors.New("alloc: block already released")

	// ErrRegionTooSmall indicates a region that cannot hold a single block.
	ErrRegionTooSmall = errors.New("alloc: region too small")

	// ErrClosed indicates use of an arena after Close.
	ErrClosed = errors.New("alloc: arena closed")
)
