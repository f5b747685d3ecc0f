package adb

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ForwardEntry is one port forward set up on the server
type ForwardEntry struct {
	Serial string
	Local  string
	Remote string
}

// ForwardList is the result of ListForward
type ForwardList struct {
	Entries []ForwardEntry
	Errors  []ErrorLine
}

// Forward makes the server forward connections to local (eg "tcp:0"
// or "tcp:6100") to remote on the device (eg "tcp:8700" or
// "jdwp:1234"). Unless rebind is set it fails if local is already
// forwarded.
//
// When local is a tcp port the server returns it, which gives the
// port it picked for "tcp:0".
func (hs *HostServices) Forward(ctx context.Context, device DeviceSelector, local, remote string, rebind bool) (port string, err error) {
	service := device.HostPrefix() + ":forward:"
	if !rebind {
		service += "norebind:"
	}
	service += local + ";" + remote
	port, err = hs.s.runner.runStatusQuery(ctx, strings.HasPrefix(local, "tcp:"), hs.s.commandTimeout(), service)
	if err != nil {
		return "", errors.Wrapf(err, "forwarding %s to %s", local, remote)
	}
	return port, nil
}

// KillForward removes the forward of local
func (hs *HostServices) KillForward(ctx context.Context, device DeviceSelector, local string) error {
	_, err := hs.s.runner.runStatusQuery(ctx, false, hs.s.commandTimeout(), device.HostPrefix()+":killforward:"+local)
	return err
}

// KillForwardAll removes all the forwards of device
func (hs *HostServices) KillForwardAll(ctx context.Context, device DeviceSelector) error {
	_, err := hs.s.runner.runStatusQuery(ctx, false, hs.s.commandTimeout(), device.HostPrefix()+":killforward-all")
	return err
}

// ListForward returns every forward known to the server
func (hs *HostServices) ListForward(ctx context.Context) (*ForwardList, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, "host:list-forward", hs.s.commandTimeout())
	if err != nil {
		return nil, err
	}
	return ParseForwardList(reply), nil
}

// ParseForwardList parses lines of "<serial> <local> <remote>"
func ParseForwardList(text string) *ForwardList {
	list := &ForwardList{}
	for i, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			list.Errors = append(list.Errors, ErrorLine{LineIndex: i, RawLine: line, Msg: "expected <serial> <local> <remote>"})
			continue
		}
		list.Entries = append(list.Entries, ForwardEntry{Serial: fields[0], Local: fields[1], Remote: fields[2]})
	}
	return list
}
