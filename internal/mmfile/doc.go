// Package mmfile provides platform-specific helpers for mapping arena memory.
//
// On unix the mappings come from mmap(2) and live outside the Go heap, so
// addresses into them are stable and never scanned by the garbage collector.
package mmfile
