//go:build !unix

package mmfile

import (
	"fmt"
	"os"
	"unsafe"
)

// MapAnon allocates size bytes from the Go heap when mmap is not available.
// The returned slice is 16-byte aligned.
func MapAnon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	words := make([]uint64, (size+15)/8+1)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*8)
	skip := int(-uintptr(unsafe.Pointer(&raw[0])) & 15)
	return raw[skip : skip+size : skip+size], func() error { return nil }, nil
}

// MapFile reads the file into memory when mmap is not available.
// The cleanup function writes the contents back.
func MapFile(path string, size int) ([]byte, func() error, error) {
	data, cleanup, err := MapAnon(size)
	if err != nil {
		return nil, nil, err
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		_ = cleanup()
		return nil, nil, err
	}
	copy(data, existing)
	return data, func() error {
		return os.WriteFile(path, data, 0o644)
	}, nil
}
