package buildinfo

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// GetOSVersion describes the machine adbctl runs on, eg
// ("ubuntu 22.04 (64 bit)", "5.15.0-41-generic (x86_64)"). Either is
// "" if gopsutil can't find out.
func GetOSVersion() (osVersion, osKernel string) {
	info, err := host.Info()
	if err != nil || info == nil {
		return "", ""
	}
	osVersion = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	osKernel = info.KernelVersion
	arch := info.KernelArch
	if arch == "" {
		return osVersion, osKernel
	}
	if osVersion != "" && strings.HasSuffix(arch, "64") {
		osVersion += " (64 bit)"
	}
	if osKernel != "" {
		osKernel += " (" + arch + ")"
	}
	return osVersion, osKernel
}
