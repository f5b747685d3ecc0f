package adb

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/lib/readers"
	"github.com/adbctl/adbctl/wire"
)

// Shell v2 packet ids
const (
	shellStdin      = 0
	shellStdout     = 1
	shellStderr     = 2
	shellExit       = 3
	shellCloseStdin = 4
)

// shellHeaderSize is the id byte and the little endian length
const shellHeaderSize = 5

// shellMaxPacket is the largest stdin packet sent
const shellMaxPacket = 32 * 1024

// ShellOutput is the result of ShellV2
type ShellOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// writeShellPacket sends one shell v2 packet
func writeShellPacket(conn *wire.Conn, id byte, payload []byte, t *wire.TimeoutTracker) error {
	packet := make([]byte, shellHeaderSize+len(payload))
	packet[0] = id
	binary.LittleEndian.PutUint32(packet[1:], uint32(len(payload)))
	copy(packet[shellHeaderSize:], payload)
	return conn.WriteExactly(packet, t)
}

// readShellPacket reads one shell v2 packet
func readShellPacket(conn *wire.Conn, t *wire.TimeoutTracker) (id byte, payload []byte, err error) {
	var header [shellHeaderSize]byte
	if err = conn.ReadExactly(header[:], t); err != nil {
		return 0, nil, err
	}
	n := binary.LittleEndian.Uint32(header[1:])
	payload = make([]byte, n)
	if err = conn.ReadExactly(payload, t); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, err
	}
	return header[0], payload, nil
}

// sendShellStdin copies stdin as stdin packets then closes stdin
func sendShellStdin(ctx context.Context, conn *wire.Conn, stdin io.Reader, t *wire.TimeoutTracker) error {
	if stdin != nil {
		buf := make([]byte, shellMaxPacket)
		in := readers.NewContextReader(ctx, stdin)
		for {
			n, err := in.Read(buf)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if n > 0 {
				if werr := writeShellPacket(conn, shellStdin, buf[:n], t); werr != nil {
					return werr
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
	}
	return writeShellPacket(conn, shellCloseStdin, nil, t)
}

// ShellV2 runs command with the shell v2 protocol which keeps stdout
// and stderr apart and returns the exit code.
//
// stdin is copied from a goroutine which stops at its next read once
// ShellV2 returns. A Read already blocked in stdin, eg on os.Stdin,
// is not interrupted: the goroutine lingers until that Read returns
// and then exits without sending anything.
func (ds *DeviceServices) ShellV2(ctx context.Context, device DeviceSelector, command string, stdin io.Reader, timeout time.Duration) (*ShellOutput, error) {
	r := ds.s.runner
	t := ds.s.newTracker(timeout)
	conn, err := r.startQuery(ctx, t, device.TransportService(), "shell,v2,raw:"+command)
	if err != nil {
		return nil, err
	}
	out := &ShellOutput{ExitCode: -1}
	err = withConn(ctx, conn, func() error {
		stdinCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		writeErr := make(chan error, 1)
		go func() {
			writeErr <- sendShellStdin(stdinCtx, conn, stdin, t)
		}()
		var stdout, stderr bytes.Buffer
		exited := false
		for !exited {
			id, payload, err := readShellPacket(conn, t)
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			switch id {
			case shellStdout:
				stdout.Write(payload)
			case shellStderr:
				stderr.Write(payload)
			case shellExit:
				if len(payload) != 1 {
					return &wire.ProtocolError{Msg: "shell exit packet must be 1 byte"}
				}
				out.ExitCode = int(payload[0])
				exited = true
			default:
				// ignore window size and unknown packets
			}
		}
		out.Stdout = stdout.Bytes()
		out.Stderr = stderr.Bytes()
		if !exited {
			select {
			case err := <-writeErr:
				if err != nil {
					return errors.Wrap(err, "sending input")
				}
			default:
			}
			return errors.New("shell exited without an exit code")
		}
		// the writer is unblocked by the close if the command exited
		// without reading all of stdin
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "running %q on %v", command, device)
	}
	return out, nil
}
