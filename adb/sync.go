package adb

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/lib/pool"
	"github.com/adbctl/adbctl/lib/readers"
	"github.com/adbctl/adbctl/wire"
)

// syncMaxChunk is the largest DATA payload the device accepts
const syncMaxChunk = 64 * 1024

// syncHeaderSize is the 4 byte id and the little endian length
const syncHeaderSize = 8

// syncPool holds buffers big enough for a header and a full chunk
var syncPool = pool.New(syncHeaderSize+syncMaxChunk, 4)

// regular file type bit sent with the mode
const syncRegularFile = 0100000

// syncHeader fills the first 8 bytes of buf with id and n
func syncHeader(buf []byte, id string, n int) {
	copy(buf, id)
	binary.LittleEndian.PutUint32(buf[4:], uint32(n))
}

// writeSyncRequest sends id followed by the length of payload and
// payload itself
func writeSyncRequest(conn *wire.Conn, id string, payload []byte, t *wire.TimeoutTracker) error {
	buf := make([]byte, syncHeaderSize+len(payload))
	syncHeader(buf, id, len(payload))
	copy(buf[syncHeaderSize:], payload)
	return conn.WriteExactly(buf, t)
}

// readSyncStatus reads the OKAY or FAIL which ends a SEND
func readSyncStatus(conn *wire.Conn, t *wire.TimeoutTracker) error {
	var header [syncHeaderSize]byte
	if err := conn.ReadExactly(header[:], t); err != nil {
		return err
	}
	id := string(header[:4])
	n := binary.LittleEndian.Uint32(header[4:])
	switch id {
	case wire.StatusOkay:
		return nil
	case wire.StatusFail:
		return readSyncFail(conn, "SEND", n, t)
	}
	return &wire.ProtocolError{Msg: fmt.Sprintf("expected sync OKAY or FAIL, got %q", id)}
}

// readSyncFail reads the n byte message of a FAIL answer to request
func readSyncFail(conn *wire.Conn, request string, n uint32, t *wire.TimeoutTracker) error {
	if n > syncMaxChunk {
		return &wire.ProtocolError{Msg: fmt.Sprintf("sync FAIL message of %d bytes is too long", n)}
	}
	msg := make([]byte, n)
	if err := conn.ReadExactly(msg, t); err != nil {
		return err
	}
	return &wire.FailResponseError{Service: "sync:" + request, Message: string(msg)}
}

// Push copies r to remotePath on device with the given permissions
// and modification time using the sync protocol.
func (ds *DeviceServices) Push(ctx context.Context, device DeviceSelector, r io.Reader, remotePath string, mode os.FileMode, mtime time.Time, timeout time.Duration) (written int64, err error) {
	t := ds.s.newTracker(timeout)
	conn, err := ds.s.runner.startQuery(ctx, t, device.TransportService(), "sync:")
	if err != nil {
		return 0, err
	}
	err = withConn(ctx, conn, func() error {
		pathAndMode := fmt.Sprintf("%s,%d", remotePath, syncRegularFile|uint32(mode.Perm()))
		if len(pathAndMode) > 1024 {
			return errors.Errorf("remote path %q too long", remotePath)
		}
		if err := writeSyncRequest(conn, "SEND", []byte(pathAndMode), t); err != nil {
			return err
		}
		buf := syncPool.Get()
		defer syncPool.Put(buf)
		in := readers.NewCountingReader(readers.NewContextReader(ctx, r))
		for {
			n, err := io.ReadFull(in, buf[syncHeaderSize:])
			if n > 0 {
				syncHeader(buf, "DATA", n)
				if werr := conn.WriteExactly(buf[:syncHeaderSize+n], t); werr != nil {
					return werr
				}
			}
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			if err != nil {
				return errors.Wrap(err, "reading source")
			}
		}
		written = int64(in.BytesRead())
		var done [syncHeaderSize]byte
		syncHeader(done[:], "DONE", int(mtime.Unix()))
		if err := conn.WriteExactly(done[:], t); err != nil {
			return err
		}
		if err := readSyncStatus(conn, t); err != nil {
			return err
		}
		return writeSyncRequest(conn, "QUIT", nil, t)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "pushing %q to %v", remotePath, device)
	}
	host.Debugf(device, "Pushed %d bytes to %q", written, remotePath)
	return written, nil
}

// Pull copies remotePath on device to w using the sync protocol and
// returns the number of bytes written.
func (ds *DeviceServices) Pull(ctx context.Context, device DeviceSelector, remotePath string, w io.Writer, timeout time.Duration) (read int64, err error) {
	t := ds.s.newTracker(timeout)
	conn, err := ds.s.runner.startQuery(ctx, t, device.TransportService(), "sync:")
	if err != nil {
		return 0, err
	}
	err = withConn(ctx, conn, func() error {
		if len(remotePath) > 1024 {
			return errors.Errorf("remote path %q too long", remotePath)
		}
		if err := writeSyncRequest(conn, "RECV", []byte(remotePath), t); err != nil {
			return err
		}
		buf := syncPool.Get()
		defer syncPool.Put(buf)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			header := buf[:syncHeaderSize]
			if err := conn.ReadExactly(header, t); err != nil {
				return err
			}
			id := string(header[:4])
			n := binary.LittleEndian.Uint32(header[4:])
			switch id {
			case "DATA":
				if n > syncMaxChunk {
					return &wire.ProtocolError{Msg: fmt.Sprintf("sync DATA chunk of %d bytes is too long", n)}
				}
				chunk := buf[syncHeaderSize : syncHeaderSize+int(n)]
				if err := conn.ReadExactly(chunk, t); err != nil {
					return err
				}
				if _, err := w.Write(chunk); err != nil {
					return errors.Wrap(err, "writing destination")
				}
				read += int64(n)
			case "DONE":
				return writeSyncRequest(conn, "QUIT", nil, t)
			case wire.StatusFail:
				return readSyncFail(conn, "RECV", n, t)
			default:
				return &wire.ProtocolError{Msg: fmt.Sprintf("expected sync DATA, DONE or FAIL, got %q", id)}
			}
		}
	})
	if err != nil {
		return 0, errors.Wrapf(err, "pulling %q from %v", remotePath, device)
	}
	host.Debugf(device, "Pulled %d bytes from %q", read, remotePath)
	return read, nil
}
