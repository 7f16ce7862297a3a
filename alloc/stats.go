package alloc

// Stats holds allocation counters. Byte counts are requested sizes, not
// including block headers or alignment padding.
type Stats struct {
	Capacity int64 `json:"capacity,omitempty" msgpack:"capacity"` // usable bytes, 0 when unbounded
	InUse    int64 `json:"in_use" msgpack:"in_use"`               // bytes currently allocated
	Peak     int64 `json:"peak" msgpack:"peak"`                   // high-water mark of InUse
	Live     int64 `json:"live" msgpack:"live"`                   // blocks currently allocated
	Allocs   int64 `json:"allocs" msgpack:"allocs"`               // successful Alloc calls
	Releases int64 `json:"releases" msgpack:"releases"`           // successful Release calls
	Failed   int64 `json:"failed" msgpack:"failed"`               // Alloc calls that returned nil

	// Arena only.
	FreeBlocks  int   `json:"free_blocks,omitempty" msgpack:"free_blocks"`
	LargestFree int64 `json:"largest_free,omitempty" msgpack:"largest_free"`
}

func (s *Stats) recordAlloc(size int64) {
	s.Allocs++
	s.Live++
	s.InUse += size
	if s.InUse > s.Peak {
		s.Peak = s.InUse
	}
}

func (s *Stats) recordRelease(size int64) {
	s.Releases++
	s.Live--
	s.InUse -= size
}
