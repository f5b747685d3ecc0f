package adb

import (
	"fmt"
	"strings"
)

// DeviceState is the connection state of a device as reported by the
// server
type DeviceState int

// Device states
const (
	StateUnknown DeviceState = iota
	StateOnline
	StateOffline
	StateUnauthorized
	StateAuthorizing
	StateConnecting
	StateBootloader
	StateRecovery
	StateRescue
	StateSideload
	StateHost
	StateNoPermissions
	StateDetached
)

var stateNames = map[string]DeviceState{
	"device":         StateOnline,
	"offline":        StateOffline,
	"unauthorized":   StateUnauthorized,
	"authorizing":    StateAuthorizing,
	"connecting":     StateConnecting,
	"bootloader":     StateBootloader,
	"recovery":       StateRecovery,
	"rescue":         StateRescue,
	"sideload":       StateSideload,
	"host":           StateHost,
	"no permissions": StateNoPermissions,
	"detached":       StateDetached,
}

// ParseDeviceState turns the text the server uses into a DeviceState.
// "no permissions" may be followed by an explanation.
func ParseDeviceState(s string) DeviceState {
	if state, ok := stateNames[s]; ok {
		return state
	}
	if strings.HasPrefix(s, "no permissions") {
		return StateNoPermissions
	}
	return StateUnknown
}

// String returns the name the server uses
func (s DeviceState) String() string {
	for name, state := range stateNames {
		if state == s {
			return name
		}
	}
	return "unknown"
}

// DeviceFormat selects the SHORT or LONG device list
type DeviceFormat int

// Device list formats
const (
	ShortFormat DeviceFormat = iota
	LongFormat
)

// suffix returns the service name suffix for the format
func (f DeviceFormat) suffix() string {
	if f == LongFormat {
		return "-l"
	}
	return ""
}

// DeviceInfo is one entry of a device list. The optional fields are
// only filled by the LONG format.
type DeviceInfo struct {
	Serial      string
	State       DeviceState
	StateText   string // as sent, useful when State is StateUnknown
	Product     string
	Model       string
	Device      string
	TransportID string
	USB         string
	Extra       map[string]string // key:value fields not listed above
}

// ErrorLine records a line which couldn't be parsed
type ErrorLine struct {
	LineIndex int
	RawLine   string
	Msg       string
}

// Error satisfies the error interface
func (e ErrorLine) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.LineIndex, e.RawLine, e.Msg)
}

// DeviceList is one snapshot of the connected devices
type DeviceList struct {
	Devices []DeviceInfo
	Errors  []ErrorLine
}

// Len returns the number of devices
func (l *DeviceList) Len() int {
	return len(l.Devices)
}

// Find returns the device with serial or nil
func (l *DeviceList) Find(serial string) *DeviceInfo {
	for i := range l.Devices {
		if l.Devices[i].Serial == serial {
			return &l.Devices[i]
		}
	}
	return nil
}

// splitLines splits text into lines dropping the line endings
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// ParseDeviceList parses the payload of host:devices or
// host:track-devices in format.
//
// Lines which can't be parsed are recorded in Errors and the rest of
// the list is still returned.
func ParseDeviceList(text string, format DeviceFormat) *DeviceList {
	list := &DeviceList{}
	for i, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var (
			info DeviceInfo
			msg  string
		)
		if format == LongFormat {
			info, msg = parseLongLine(line)
		} else {
			info, msg = parseShortLine(line)
		}
		if msg != "" {
			list.Errors = append(list.Errors, ErrorLine{LineIndex: i, RawLine: line, Msg: msg})
			continue
		}
		list.Devices = append(list.Devices, info)
	}
	return list
}

// parseShortLine parses "<serial>\t<state>"
func parseShortLine(line string) (info DeviceInfo, msg string) {
	fields := strings.Split(line, "\t")
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return info, "expected <serial> TAB <state>"
	}
	info.Serial = fields[0]
	info.StateText = fields[1]
	info.State = ParseDeviceState(fields[1])
	return info, ""
}

// isLongField returns true for a "key:value" field of the LONG format
func isLongField(field string) bool {
	i := strings.IndexByte(field, ':')
	if i <= 0 {
		return false
	}
	for _, c := range field[:i] {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// parseLongLine parses
//
//	<serial> <state> [usb:<x>] [product:<p>] [model:<m>] [device:<d>] [transport_id:<n>]
//
// The state may contain spaces as "no permissions (...)" does, so it
// runs until the first key:value field.
func parseLongLine(line string) (info DeviceInfo, msg string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return info, "expected <serial> <state> [key:value...]"
	}
	info.Serial = fields[0]
	i := 1
	var state []string
	for ; i < len(fields) && !isLongField(fields[i]); i++ {
		state = append(state, fields[i])
	}
	if len(state) == 0 {
		return info, "missing device state"
	}
	info.StateText = strings.Join(state, " ")
	info.State = ParseDeviceState(info.StateText)
	for ; i < len(fields); i++ {
		field := fields[i]
		if !isLongField(field) {
			return info, fmt.Sprintf("unexpected field %q", field)
		}
		colon := strings.IndexByte(field, ':')
		key, value := field[:colon], field[colon+1:]
		switch key {
		case "usb":
			info.USB = value
		case "product":
			info.Product = value
		case "model":
			info.Model = value
		case "device":
			info.Device = value
		case "transport_id":
			info.TransportID = value
		default:
			if info.Extra == nil {
				info.Extra = make(map[string]string)
			}
			info.Extra[key] = value
		}
	}
	return info, ""
}
