package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulUintptr multiplies a and b, returning ok = false when the result would overflow uintptr.
// This is used for count * elementSize calculations when sizing slice storage.
func MulUintptr(a, b uintptr) (uintptr, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint/b {
		return 0, false
	}
	return a * b, true
}

// AddUintptr adds a and b, returning ok = false when the result would overflow uintptr.
func AddUintptr(a, b uintptr) (uintptr, bool) {
	if a > math.MaxUint-b {
		return 0, false
	}
	return a + b, true
}

// AlignUp rounds n up to a multiple of align, which must be a power of two.
// Returns ok = false when rounding would overflow.
func AlignUp(n, align uintptr) (uintptr, bool) {
	sum, ok := AddUintptr(n, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}
