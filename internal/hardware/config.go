package hardware

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults used when a device is created implicitly.
const (
	DefaultDevice    = "default"
	DefaultChannels  = 1
	DefaultRate      = 48000
	DefaultLatencyUs = 500000

	maxChannels = 32
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid device config")

// Config describes the requested output parameters of a device.
type Config struct {
	Device    string
	Channels  int
	Rate      int
	LatencyUs int
}

// DefaultConfig returns the configuration used for auto-created devices.
func DefaultConfig() Config {
	return Config{
		Device:    DefaultDevice,
		Channels:  DefaultChannels,
		Rate:      DefaultRate,
		LatencyUs: DefaultLatencyUs,
	}
}

// Validate checks that the configuration can be handed to a backend.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Device) == "":
		return fmt.Errorf("%w: empty device name", ErrInvalidConfig)
	case c.Channels < 1 || c.Channels > maxChannels:
		return fmt.Errorf("%w: channels %d out of range [1, %d]", ErrInvalidConfig, c.Channels, maxChannels)
	case c.Rate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.Rate)
	case c.LatencyUs < 0:
		return fmt.Errorf("%w: latency %dus", ErrInvalidConfig, c.LatencyUs)
	}
	return nil
}

// String renders the config for logs.
func (c Config) String() string {
	return fmt.Sprintf("%s %dch %dHz %dus", c.Device, c.Channels, c.Rate, c.LatencyUs)
}
