package writer

// MemWriter keeps the last document it received in memory.
type MemWriter struct {
	Buf  []byte
	Puts int
}

// Put replaces Buf with a copy of data.
func (w *MemWriter) Put(data []byte) error {
	w.Buf = append(w.Buf[:0], data...)
	w.Puts++
	return nil
}

var _ Sink = (*MemWriter)(nil)
