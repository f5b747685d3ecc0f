package host

import (
	"context"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type myTimeout struct{}

func (myTimeout) Error() string   { return "i/o timeout" }
func (myTimeout) Timeout() bool   { return true }
func (myTimeout) Temporary() bool { return false }

func TestRetryError(t *testing.T) {
	err := RetryError(errors.New("server starting"))
	assert.True(t, IsRetryError(err))
	assert.True(t, IsRetryError(errors.Wrap(err, "dial")))
	assert.Equal(t, "server starting", err.Error())
	assert.True(t, IsRetryError(RetryError(nil)))
	assert.True(t, IsRetryError(RetryErrorf("try %d", 2)))
	assert.False(t, IsRetryError(errors.New("plain")))
}

func TestFatalError(t *testing.T) {
	err := FatalError(errors.New("no adb binary"))
	assert.True(t, IsFatalError(err))
	assert.True(t, IsFatalError(errors.Wrap(err, "start-server")))
	assert.False(t, IsFatalError(errors.New("plain")))
}

func TestShouldRetry(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}
	for i, test := range []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("potato"), false},
		{context.Canceled, false},
		{errors.Wrap(context.Canceled, "dial"), false},
		{refused, true},
		{errors.Wrap(refused, "connecting to adb server"), true},
		{myTimeout{}, true},
		{RetryError(errors.New("again")), true},
	} {
		assert.Equal(t, test.want, ShouldRetry(test.err), "test %d: %v", i, test.err)
	}
}
