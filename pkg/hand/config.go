package hand

import (
	"encoding/json"
	"os"

	"github.com/gwillem/bionichand/pkg/scs"
	"github.com/gwillem/bionichand/pkg/servo"
	"github.com/pkg/errors"
)

const DefaultConfigFile = "bionichand.json"

// Config holds the hand configuration
type Config struct {
	Port        string      `json:"port"`
	BaudRate    int         `json:"baud_rate,omitempty"`
	Profile     string      `json:"profile,omitempty"`
	Ring        RingConfig  `json:"ring"`
	Calibration Calibration `json:"calibration,omitempty"`
}

// RingConfig identifies the Colmi ring used for following
type RingConfig struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
}

// DefaultConfig returns a configuration with the reference calibration.
func DefaultConfig() *Config {
	return &Config{
		BaudRate:    scs.DefaultBaudRate,
		Profile:     servo.NarrowProfile.Name,
		Calibration: DefaultCalibration(),
	}
}

// IsCalibrated returns true if the config carries calibration data
func (c *Config) IsCalibrated() bool {
	return len(c.Calibration) > 0
}

// ServoProfile returns the degree mapping named by Profile.
func (c *Config) ServoProfile() (servo.Profile, error) {
	if c.Profile == "" {
		return servo.NarrowProfile, nil
	}
	p, ok := servo.ProfileByName(c.Profile)
	if !ok {
		return servo.Profile{}, errors.Errorf("unknown profile %q", c.Profile)
	}
	return p, nil
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Missing fields
// fall back to DefaultConfig.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	cfg.Calibration = nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if !cfg.IsCalibrated() {
		cfg.Calibration = DefaultCalibration()
	}
	if _, err := cfg.ServoProfile(); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	return ConfigExistsAt(DefaultConfigFile)
}

// ConfigExistsAt returns true if path exists
func ConfigExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
