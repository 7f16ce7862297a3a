package box

import "errors"

// ErrAlloc indicates that the allocator declined a storage request.
var ErrAlloc = errors.New("box: allocation failed")
