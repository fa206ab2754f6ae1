package backends_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	"github.com/YigitElma/zernigo/backends"
	_ "github.com/YigitElma/zernigo/backends/numgo"
)

func init() {
	klog.InitFlags(nil)
	// A backend whose constructor always fails, standing in for accelerated
	// kernels that are not available in this environment.
	backends.Register("boom", func(config string) backends.Backend {
		exceptions.Panicf("backend %q is never available", "boom")
		return nil
	})
}

func TestList(t *testing.T) {
	require.Contains(t, backends.List(), "numgo")
	require.Contains(t, backends.List(), "boom")
}

func TestNewWithConfig(t *testing.T) {
	b := backends.NewWithConfig("numgo")
	require.Equal(t, "numgo", b.Name())
	require.False(t, b.Accelerated())
	b.Finalize()

	// Name and backend-specific configuration are colon separated.
	b = backends.NewWithConfig("numgo:cpu")
	require.Equal(t, "numgo", b.Name())
	b.Finalize()

	require.Panics(t, func() { backends.NewWithConfig("no-such-backend") })
	require.Panics(t, func() { backends.NewWithConfig("boom") })
}

func TestNewFallsBackWhenPreferredFails(t *testing.T) {
	must.M(os.Setenv(backends.ConfigEnvVar, "boom"))
	defer func() { must.M(os.Unsetenv(backends.ConfigEnvVar)) }()

	b, err := backends.New()
	require.NoError(t, err)
	require.Equal(t, "numgo", b.Name())
	b.Finalize()
}

func TestNewHonorsEnvVar(t *testing.T) {
	must.M(os.Setenv(backends.ConfigEnvVar, "numgo:cpu"))
	defer func() { must.M(os.Unsetenv(backends.ConfigEnvVar)) }()

	b := backends.MustNew()
	require.Equal(t, "numgo", b.Name())
	b.Finalize()
}

func TestParseDeviceKind(t *testing.T) {
	for _, s := range []string{"", "cpu", "CPU", " cpu "} {
		kind := must.M1(backends.ParseDeviceKind(s))
		require.Equal(t, backends.DeviceCPU, kind)
	}
	kind := must.M1(backends.ParseDeviceKind("gpu"))
	require.Equal(t, backends.DeviceGPU, kind)

	_, err := backends.ParseDeviceKind("tpu")
	require.Error(t, err)
}

func TestDeviceConfig(t *testing.T) {
	device := backends.SetDevice(backends.DeviceCPU)
	require.Equal(t, backends.DeviceCPU, device.Kind)
	require.NotZero(t, device.AvailableMemory)
	require.Contains(t, device.String(), "cpu, with ")
	require.Contains(t, device.String(), "available memory")
	require.Equal(t, device, backends.Device())
}

func TestFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zernigo.yaml")
	must.M(os.WriteFile(path, []byte("backend: numgo\ndevice: cpu\n"), 0o644))

	cfg := must.M1(backends.LoadFileConfig(path))
	require.Equal(t, "numgo", cfg.Backend)
	require.Equal(t, "cpu", cfg.Device)
	require.Equal(t, "numgo:cpu", cfg.ConfigString())

	_, err := backends.LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	// Defaults apply when no file is configured.
	must.M(os.Unsetenv(backends.ConfigFileEnvVar))
	cfg = must.M1(backends.FileConfigFromEnv())
	require.Equal(t, "", cfg.Backend)
	require.Equal(t, "cpu", cfg.Device)
}

func TestFileConfigDrivesSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zernigo.yaml")
	must.M(os.WriteFile(path, []byte("backend: numgo\n"), 0o644))
	must.M(os.Setenv(backends.ConfigFileEnvVar, path))
	defer func() { must.M(os.Unsetenv(backends.ConfigFileEnvVar)) }()

	b := backends.MustNew()
	require.Equal(t, "numgo", b.Name())
	b.Finalize()
}
