package wire

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Handshake status words
const (
	StatusOkay = "OKAY"
	StatusFail = "FAIL"
)

// MaxFrameLength is the largest payload a 4 hex digit length prefix
// can describe
const MaxFrameLength = 0xFFFF

// EncodeLength returns n as 4 uppercase hex digits
func EncodeLength(n int) (string, error) {
	if n < 0 || n > MaxFrameLength {
		return "", protocolErrorf("length %d doesn't fit in a 4 digit hex prefix", n)
	}
	return fmt.Sprintf("%04X", n), nil
}

// EncodeFrame returns payload prefixed with its length
func EncodeFrame(payload []byte) ([]byte, error) {
	prefix, err := EncodeLength(len(payload))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4+len(payload))
	out = append(out, prefix...)
	return append(out, payload...), nil
}

// ParseLength parses a 4 byte hex length prefix
func ParseLength(prefix []byte) (int, error) {
	if len(prefix) != 4 {
		return 0, protocolErrorf("length prefix %q is not 4 bytes", prefix)
	}
	n, err := strconv.ParseUint(string(prefix), 16, 16)
	if err != nil {
		return 0, protocolErrorf("invalid length prefix %q", prefix)
	}
	return int(n), nil
}

// WriteFrame writes payload as one length prefixed frame
func (c *Conn) WriteFrame(payload []byte, t *TimeoutTracker) error {
	frame, err := EncodeFrame(payload)
	if err != nil {
		return err
	}
	return c.WriteExactly(frame, t)
}

// WriteRequest sends a service request
func (c *Conn) WriteRequest(service string, t *TimeoutTracker) error {
	if err := c.WriteFrame([]byte(service), t); err != nil {
		return errors.Wrapf(err, "sending request %q", service)
	}
	return nil
}

// ReadStatus reads the 4 byte handshake status. It returns
// StatusOkay or StatusFail, anything else is a *ProtocolError.
func (c *Conn) ReadStatus(t *TimeoutTracker) (string, error) {
	buf := headerPool.Get()
	defer headerPool.Put(buf)
	if err := c.ReadExactly(buf, t); err != nil {
		return "", err
	}
	switch {
	case bytes.Equal(buf, []byte(StatusOkay)):
		return StatusOkay, nil
	case bytes.Equal(buf, []byte(StatusFail)):
		return StatusFail, nil
	}
	return "", protocolErrorf("expected OKAY or FAIL, got %q", buf)
}

// ReadOkay completes the handshake for service. OKAY returns nil,
// FAIL returns a *FailResponseError carrying the server's message.
func (c *Conn) ReadOkay(service string, t *TimeoutTracker) error {
	status, err := c.ReadStatus(t)
	if err != nil {
		return err
	}
	if status == StatusOkay {
		return nil
	}
	msg, err := c.ReadLengthPrefixed(t)
	if err != nil {
		return errors.Wrap(err, "reading FAIL message")
	}
	return &FailResponseError{Service: service, Message: string(msg)}
}

// ReadLengthPrefixed reads one frame and returns its payload
func (c *Conn) ReadLengthPrefixed(t *TimeoutTracker) ([]byte, error) {
	buf := headerPool.Get()
	defer headerPool.Put(buf)
	if err := c.ReadExactly(buf, t); err != nil {
		return nil, err
	}
	n, err := ParseLength(buf)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	if err := c.ReadExactly(payload, t); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// ReadLengthPrefixedString reads one frame as UTF-8 text
func (c *Conn) ReadLengthPrefixedString(t *TimeoutTracker) (string, error) {
	payload, err := c.ReadLengthPrefixed(t)
	return string(payload), err
}
