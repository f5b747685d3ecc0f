// Package neterrors classifies socket errors seen while talking to
// the ADB server.
package neterrors

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// retriableErrors are what the server, or the socket to it, returns
// while it is starting up or shutting down
var retriableErrors = []error{
	io.EOF,
	io.ErrUnexpectedEOF,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.EPIPE,
	syscall.ETIMEDOUT,
	syscall.EHOSTUNREACH,
	syscall.EAGAIN,
}

// IsRetriable returns true if err, or anything it wraps, is a socket
// error which is likely to go away if the dial is attempted again.
// A refused connection falls in this category because the server
// may still be starting.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	for _, retriableErr := range retriableErrors {
		if errors.Is(err, retriableErr) {
			return true
		}
	}
	return false
}

// IsConnRefused returns true if err means nothing is listening on
// the ADB server port.
func IsConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return strings.Contains(opErr.Error(), "refused")
	}
	return false
}

// IsClosedConn returns true if err is what a read or write returns
// after the connection has been closed locally.
func IsClosedConn(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
