package adb

import (
	"strconv"
)

type selectorKind int

const (
	selectAny selectorKind = iota
	selectSerial
	selectTransportID
	selectUSB
	selectLocal
)

// DeviceSelector picks the device a device service runs on
type DeviceSelector struct {
	kind        selectorKind
	serial      string
	transportID int64
}

// Serial selects the device with serial number s
func Serial(s string) DeviceSelector {
	return DeviceSelector{kind: selectSerial, serial: s}
}

// TransportID selects the device by the transport id the server gave it
func TransportID(id int64) DeviceSelector {
	return DeviceSelector{kind: selectTransportID, transportID: id}
}

// USB selects the only device connected over USB
func USB() DeviceSelector {
	return DeviceSelector{kind: selectUSB}
}

// Local selects the only emulator or TCP connected device
func Local() DeviceSelector {
	return DeviceSelector{kind: selectLocal}
}

// Any selects the only connected device
func Any() DeviceSelector {
	return DeviceSelector{kind: selectAny}
}

// String returns a description for logging
func (d DeviceSelector) String() string {
	switch d.kind {
	case selectSerial:
		return d.serial
	case selectTransportID:
		return "transport-id:" + strconv.FormatInt(d.transportID, 10)
	case selectUSB:
		return "usb"
	case selectLocal:
		return "local"
	}
	return "any"
}

// HostPrefix returns the prefix of host services scoped to the
// device, eg "host-serial:emulator-5554" in
// "host-serial:emulator-5554:features"
func (d DeviceSelector) HostPrefix() string {
	switch d.kind {
	case selectSerial:
		return "host-serial:" + d.serial
	case selectTransportID:
		return "host-transport-id:" + strconv.FormatInt(d.transportID, 10)
	case selectUSB:
		return "host-usb"
	case selectLocal:
		return "host-local"
	}
	return "host"
}

// TransportService returns the request which switches a channel to
// the device
func (d DeviceSelector) TransportService() string {
	switch d.kind {
	case selectSerial:
		return "host:transport:" + d.serial
	case selectTransportID:
		return "host:transport-id:" + strconv.FormatInt(d.transportID, 10)
	case selectUSB:
		return "host:transport-usb"
	case selectLocal:
		return "host:transport-local"
	}
	return "host:transport-any"
}
