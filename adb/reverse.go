package adb

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ReverseEntry is one reverse forward set up on a device. Remote is
// the socket the device listens on and Local the host socket it
// connects to.
type ReverseEntry struct {
	Transport string
	Remote    string
	Local     string
}

// ReverseList is the result of ReverseListForward
type ReverseList struct {
	Entries []ReverseEntry
	Errors  []ErrorLine
}

// ReverseForward makes the device listen on remote (eg "tcp:0" or
// "localabstract:foo") and forward each connection to local on the
// host. Unless rebind is set it fails if remote is already forwarded.
//
// local is not checked by the device until a client connects.
//
// When remote is a tcp port the device returns it, which gives the
// port it picked for "tcp:0".
func (ds *DeviceServices) ReverseForward(ctx context.Context, device DeviceSelector, remote, local string, rebind bool) (port string, err error) {
	service := "reverse:forward:"
	if !rebind {
		service += "norebind:"
	}
	service += remote + ";" + local
	port, err = ds.s.runner.runStatusQuery(ctx, strings.HasPrefix(remote, "tcp:"), ds.s.commandTimeout(), device.TransportService(), service)
	if err != nil {
		return "", errors.Wrapf(err, "reverse forwarding %s to %s on %v", remote, local, device)
	}
	return port, nil
}

// ReverseKillForward removes the reverse forward of remote
func (ds *DeviceServices) ReverseKillForward(ctx context.Context, device DeviceSelector, remote string) error {
	_, err := ds.s.runner.runStatusQuery(ctx, false, ds.s.commandTimeout(), device.TransportService(), "reverse:killforward:"+remote)
	return err
}

// ReverseKillForwardAll removes all the reverse forwards of device
func (ds *DeviceServices) ReverseKillForwardAll(ctx context.Context, device DeviceSelector) error {
	_, err := ds.s.runner.runStatusQuery(ctx, false, ds.s.commandTimeout(), device.TransportService(), "reverse:killforward-all")
	return err
}

// ReverseListForward returns the reverse forwards active on device
func (ds *DeviceServices) ReverseListForward(ctx context.Context, device DeviceSelector) (*ReverseList, error) {
	r := ds.s.runner
	t := ds.s.newTracker(ds.s.commandTimeout())
	conn, err := r.startQuery(ctx, t, device.TransportService(), "reverse:list-forward")
	if err != nil {
		return nil, err
	}
	var reply []byte
	err = withConn(ctx, conn, func() error {
		reply, err = r.readFrame(conn, t)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing reverse forwards of %v", device)
	}
	return ParseReverseList(string(reply)), nil
}

// ParseReverseList parses lines of "<transport> <remote> <local>"
func ParseReverseList(text string) *ReverseList {
	list := &ReverseList{}
	for i, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			list.Errors = append(list.Errors, ErrorLine{LineIndex: i, RawLine: line, Msg: "expected <transport> <remote> <local>"})
			continue
		}
		list.Entries = append(list.Entries, ReverseEntry{Transport: fields[0], Remote: fields[1], Local: fields[2]})
	}
	return list
}
