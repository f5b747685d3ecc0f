// Package pool holds reusable fixed size buffers shared between
// concurrent protocol operations.
package pool

import (
	"fmt"
	"sync/atomic"
)

// Pool hands out buffers of one size. At most poolSize idle buffers
// are kept, extra ones returned with Put are left to the GC.
type Pool struct {
	size    int
	idle    chan []byte
	inUse   int64
	alloced int64
}

// New makes a pool of bufferSize byte buffers keeping up to poolSize
// idle.
func New(bufferSize, poolSize int) *Pool {
	return &Pool{
		size: bufferSize,
		idle: make(chan []byte, poolSize),
	}
}

// BufferSize is the length of the buffers returned by Get
func (p *Pool) BufferSize() int {
	return p.size
}

// Get returns an idle buffer, allocating one if there are none. Its
// contents are whatever the last user left.
func (p *Pool) Get() []byte {
	atomic.AddInt64(&p.inUse, 1)
	select {
	case buf := <-p.idle:
		return buf
	default:
	}
	atomic.AddInt64(&p.alloced, 1)
	return make([]byte, p.size)
}

// Put gives buf back. It panics if buf didn't come from a pool of
// this size.
func (p *Pool) Put(buf []byte) {
	buf = buf[:cap(buf)]
	if len(buf) != p.size {
		panic(fmt.Sprintf("pool: returned buffer of %d bytes to pool of %d", len(buf), p.size))
	}
	atomic.AddInt64(&p.inUse, -1)
	select {
	case p.idle <- buf:
	default:
		atomic.AddInt64(&p.alloced, -1)
	}
}

// Flush drops every idle buffer
func (p *Pool) Flush() {
	for {
		select {
		case <-p.idle:
			atomic.AddInt64(&p.alloced, -1)
		default:
			return
		}
	}
}

// InUse is the number of buffers given out and not yet Put
func (p *Pool) InUse() int {
	return int(atomic.LoadInt64(&p.inUse))
}

// InPool is the number of idle buffers
func (p *Pool) InPool() int {
	return len(p.idle)
}

// Alloced is the number of buffers the pool knows of, in use or idle
func (p *Pool) Alloced() int {
	return int(atomic.LoadInt64(&p.alloced))
}
