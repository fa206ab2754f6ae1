package backends

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pbnjay/memory"
	"github.com/pkg/errors"
)

// DeviceKind selects the execution target of the accelerated backend.
type DeviceKind int

const (
	// DeviceCPU runs on the host CPU. Always available.
	DeviceCPU DeviceKind = iota

	// DeviceGPU runs on a GPU, when one is detected. Backends downgrade to
	// DeviceCPU (with a warning) when GPU execution is requested but no GPU is
	// found.
	DeviceGPU
)

// String implements fmt.Stringer.
func (k DeviceKind) String() string {
	switch k {
	case DeviceCPU:
		return "cpu"
	case DeviceGPU:
		return "gpu"
	}
	return fmt.Sprintf("DeviceKind(%d)", int(k))
}

// ParseDeviceKind converts "cpu" or "gpu" (case-insensitive) to a DeviceKind.
func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cpu":
		return DeviceCPU, nil
	case "gpu":
		return DeviceGPU, nil
	}
	return DeviceCPU, errors.Errorf("unknown device kind %q, valid values are \"cpu\" and \"gpu\"", s)
}

// DeviceConfig is the process-wide device selection, read once at startup.
type DeviceConfig struct {
	// Kind is the selected execution target.
	Kind DeviceKind

	// AvailableMemory is the free host memory, in bytes, sampled when the
	// device was selected.
	AvailableMemory uint64
}

// String pretty-prints the selection, e.g. "cpu, with 12 GiB available memory".
func (c DeviceConfig) String() string {
	return fmt.Sprintf("%s, with %s available memory", c.Kind, humanize.IBytes(c.AvailableMemory))
}

var (
	currentDevice    DeviceConfig
	deviceConfigured bool
)

// SetDevice records the process-wide device selection and samples the free host
// memory at that moment. Backends call it during construction; calling it again
// overrides the selection.
func SetDevice(kind DeviceKind) DeviceConfig {
	currentDevice = DeviceConfig{
		Kind:            kind,
		AvailableMemory: memory.FreeMemory(),
	}
	deviceConfigured = true
	return currentDevice
}

// Device returns the process-wide device selection, defaulting to the CPU if
// none was recorded yet.
func Device() DeviceConfig {
	if !deviceConfigured {
		return SetDevice(DeviceCPU)
	}
	return currentDevice
}
