// Package writer exposes sinks for encoded documents such as allocator
// traces.
package writer

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives one complete encoded document.
type Sink interface {
	Put(data []byte) error
}

// FileWriter writes documents to a filesystem path atomically, so readers
// never observe a partially written file.
type FileWriter struct {
	Path string
}

// Put writes data to the configured path via temp file + rename.
func (w *FileWriter) Put(data []byte) error {
	// Temp file in the same directory keeps the rename on one filesystem.
	dir := filepath.Dir(w.Path)
	tmpFile, err := os.CreateTemp(dir, ".boxkit-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, writeErr := tmpFile.Write(data); writeErr != nil {
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if syncErr := tmpFile.Sync(); syncErr != nil {
		return fmt.Errorf("sync temp file: %w", syncErr)
	}
	if closeErr := tmpFile.Close(); closeErr != nil {
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	tmpFile = nil

	if renameErr := os.Rename(tmpPath, w.Path); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", renameErr)
	}
	return nil
}

var _ Sink = (*FileWriter)(nil)
