package neterrors

import (
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func makeNetErr(errno syscall.Errno) error {
	return &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: &os.SyscallError{
			Syscall: "connect",
			Err:     errno,
		},
	}
}

func TestIsRetriable(t *testing.T) {
	for i, test := range []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("potato"), false},
		{makeNetErr(syscall.ECONNREFUSED), true},
		{errors.Wrap(makeNetErr(syscall.ECONNRESET), "reading status"), true},
		{makeNetErr(syscall.EINVAL), false},
		{errors.Wrap(syscall.EPIPE, "writing request"), true},
	} {
		assert.Equal(t, test.want, IsRetriable(test.err), "test %d: %v", i, test.err)
	}
}

func TestIsConnRefused(t *testing.T) {
	assert.True(t, IsConnRefused(makeNetErr(syscall.ECONNREFUSED)))
	assert.True(t, IsConnRefused(errors.Wrap(makeNetErr(syscall.ECONNREFUSED), "dial")))
	assert.False(t, IsConnRefused(makeNetErr(syscall.ECONNRESET)))
	assert.False(t, IsConnRefused(nil))
}

func TestIsClosedConn(t *testing.T) {
	assert.True(t, IsClosedConn(errors.Wrap(net.ErrClosed, "read")))
	assert.False(t, IsClosedConn(errors.New("closed")))
}
