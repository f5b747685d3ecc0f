package adb

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/adbctl/adbctl/host"
	"github.com/adbctl/adbctl/wire"
)

// HostServices are the services answered by the ADB server itself
type HostServices struct {
	s *Session
}

// Version returns the internal version of the server
func (hs *HostServices) Version(ctx context.Context) (int, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, "host:version", hs.s.commandTimeout())
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(reply, 16, 32)
	if err != nil {
		return 0, &wire.ProtocolError{Msg: "invalid server version " + strconv.Quote(reply)}
	}
	return int(v), nil
}

// Kill asks the server to exit
func (hs *HostServices) Kill(ctx context.Context) error {
	return hs.s.runner.RunHostQueryNoResponse(ctx, "host:kill", hs.s.commandTimeout())
}

// parseFeatures splits a comma separated feature list
func parseFeatures(reply string) []string {
	var features []string
	for _, f := range strings.Split(strings.TrimSpace(reply), ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			features = append(features, f)
		}
	}
	return features
}

// HostFeatures returns the features the server supports
func (hs *HostServices) HostFeatures(ctx context.Context) ([]string, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, "host:host-features", hs.s.commandTimeout())
	if err != nil {
		return nil, err
	}
	return parseFeatures(reply), nil
}

// Features returns the features device supports
func (hs *HostServices) Features(ctx context.Context, device DeviceSelector) ([]string, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, device.HostPrefix()+":features", hs.s.commandTimeout())
	if err != nil {
		return nil, err
	}
	return parseFeatures(reply), nil
}

// intersectFeatures returns the device features the host also has, in
// device order
func intersectFeatures(hostFeatures, deviceFeatures []string) []string {
	have := make(map[string]struct{}, len(hostFeatures))
	for _, f := range hostFeatures {
		have[f] = struct{}{}
	}
	var out []string
	for _, f := range deviceFeatures {
		if _, ok := have[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// AvailableFeatures returns the features both the server and device
// support. The result is cached per device for features_cache_ttl.
func (hs *HostServices) AvailableFeatures(ctx context.Context, device DeviceSelector) ([]string, error) {
	key := cacheKey(device, "features")
	if v, ok := hs.s.cacheGet(key); ok {
		return v.([]string), nil
	}
	hostFeatures, err := hs.HostFeatures(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading host features")
	}
	deviceFeatures, err := hs.Features(ctx, device)
	if err != nil {
		return nil, errors.Wrapf(err, "reading features of %v", device)
	}
	features := intersectFeatures(hostFeatures, deviceFeatures)
	host.Debugf(device, "Available features: %s", strings.Join(features, ","))
	hs.s.cacheSet(key, features)
	return features, nil
}

// HasFeature returns true if feature is available on device
func (hs *HostServices) HasFeature(ctx context.Context, device DeviceSelector, feature string) (bool, error) {
	features, err := hs.AvailableFeatures(ctx, device)
	if err != nil {
		return false, err
	}
	for _, f := range features {
		if f == feature {
			return true, nil
		}
	}
	return false, nil
}

// Devices returns the connected devices
func (hs *HostServices) Devices(ctx context.Context, format DeviceFormat) (*DeviceList, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, "host:devices"+format.suffix(), hs.s.commandTimeout())
	if err != nil {
		return nil, err
	}
	return ParseDeviceList(reply, format), nil
}

// TrackDevices returns a Tracker yielding a new device list every time
// the set of devices or their state changes. The first snapshot is
// the current list.
func (hs *HostServices) TrackDevices(ctx context.Context, format DeviceFormat) *Tracker[*DeviceList] {
	service := "host:track-devices" + format.suffix()
	return newTracker(ctx, hs.s.runner, service,
		func(ctx context.Context) (*wire.Conn, error) {
			return hs.s.runner.StartHostQuery(ctx, service, hs.s.commandTimeout())
		},
		func(text string) (*DeviceList, error) {
			return ParseDeviceList(text, format), nil
		})
}

// GetState returns the state of device
func (hs *HostServices) GetState(ctx context.Context, device DeviceSelector) (DeviceState, error) {
	reply, err := hs.s.runner.RunHostQuery(ctx, device.HostPrefix()+":get-state", hs.s.commandTimeout())
	if err != nil {
		return StateUnknown, err
	}
	return ParseDeviceState(strings.TrimSpace(reply)), nil
}

// GetSerialNo returns the serial number of device
func (hs *HostServices) GetSerialNo(ctx context.Context, device DeviceSelector) (string, error) {
	return hs.s.runner.RunHostQuery(ctx, device.HostPrefix()+":get-serialno", hs.s.commandTimeout())
}

// GetDevPath returns the device path of device
func (hs *HostServices) GetDevPath(ctx context.Context, device DeviceSelector) (string, error) {
	return hs.s.runner.RunHostQuery(ctx, device.HostPrefix()+":get-devpath", hs.s.commandTimeout())
}
