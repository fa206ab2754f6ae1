package backends

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnvVar optionally points at a yaml file with the startup
// preferences. It is consulted by New after ZERNIGO_BACKEND and DefaultConfig.
const ConfigFileEnvVar = "ZERNIGO_CONFIG"

// FileConfig are the startup preferences that can be given in a yaml file:
//
//	backend: blas
//	device: gpu
type FileConfig struct {
	// Backend is the name of the backend to select, e.g. "blas" or "numgo".
	// Empty selects the first registered backend.
	Backend string `yaml:"backend"`

	// Device is the device preference passed to the backend, "cpu" or "gpu".
	Device string `yaml:"device"`
}

// DefaultFileConfig returns the preferences used when no config file is given.
func DefaultFileConfig() *FileConfig {
	return &FileConfig{Device: "cpu"}
}

// LoadFileConfig reads and parses the yaml preferences file at path.
// Missing fields keep their defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessagef(err, "reading config file %q", path)
	}
	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithMessagef(err, "parsing config file %q", path)
	}
	return cfg, nil
}

// FileConfigFromEnv loads the preferences file pointed at by ZERNIGO_CONFIG, or
// the defaults if the variable is not set.
func FileConfigFromEnv() (*FileConfig, error) {
	path, found := os.LookupEnv(ConfigFileEnvVar)
	if !found {
		return DefaultFileConfig(), nil
	}
	return LoadFileConfig(path)
}

// ConfigString converts the file preferences to the "<backend>:<config>" string
// accepted by NewWithConfig.
func (c *FileConfig) ConfigString() string {
	if c.Backend == "" && c.Device == "" {
		return ""
	}
	return c.Backend + ":" + c.Device
}
