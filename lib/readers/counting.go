package readers

import (
	"io"
	"sync/atomic"
)

// CountingReader counts the bytes read through it.
type CountingReader struct {
	in   io.Reader
	read uint64
}

// NewCountingReader returns a new CountingReader reading from in
func NewCountingReader(in io.Reader) *CountingReader {
	return &CountingReader{in: in}
}

// Read reads from the underlying reader.
func (cr *CountingReader) Read(b []byte) (int, error) {
	n, err := cr.in.Read(b)
	atomic.AddUint64(&cr.read, uint64(n))
	return n, err
}

// BytesRead returns how many bytes have been read so far.
func (cr *CountingReader) BytesRead() uint64 {
	return atomic.LoadUint64(&cr.read)
}
