// Package readers holds io.Reader wrappers used when streaming data
// to a device.
package readers

import (
	"context"
	"io"
)

// ReaderFunc adapts a function to an io.Reader
type ReaderFunc func(p []byte) (int, error)

// Read calls f
func (f ReaderFunc) Read(p []byte) (int, error) {
	return f(p)
}

// NewContextReader returns a reader which fails with ctx.Err() once
// ctx is done, so a long upload stops at the next read.
func NewContextReader(ctx context.Context, r io.Reader) io.Reader {
	return ReaderFunc(func(p []byte) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return r.Read(p)
	})
}
