package config

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/logging"
)

// RuntimeConfig is the part of the config file applied without a restart.
type RuntimeConfig struct {
	Logging logging.Config
	// Audio is the configuration for devices created on first use.
	Audio hardware.Config
}

type fileSections struct {
	Logging map[string]string `toml:"logging"`
	Audio   struct {
		Device    *string `toml:"device"`
		Channels  *int    `toml:"channels"`
		Rate      *int    `toml:"rate"`
		LatencyUs *int    `toml:"latency_us"`
	} `toml:"audio"`
}

func (f *fileSections) applyLogging(cfg *logging.Config) {
	for key, value := range f.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		default:
			cfg.Modules[key] = value
		}
	}
}

func (f *fileSections) applyAudio(cfg *hardware.Config) {
	a := f.Audio
	if a.Device != nil {
		cfg.Device = *a.Device
	}
	if a.Channels != nil {
		cfg.Channels = *a.Channels
	}
	if a.Rate != nil {
		cfg.Rate = *a.Rate
	}
	if a.LatencyUs != nil {
		cfg.LatencyUs = *a.LatencyUs
	}
}

// LoadRuntimeConfig reads the logging and audio sections of path. Unlike
// LoadLoggingConfig it fails on unreadable files, bad TOML and invalid
// audio settings, so a watcher can keep the previous configuration.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := RuntimeConfig{
		Logging: defaultLogging(),
		Audio:   hardware.DefaultConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw fileSections
	if err := toml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	raw.applyLogging(&cfg.Logging)
	raw.applyAudio(&cfg.Audio)
	if err := cfg.Audio.Validate(); err != nil {
		return cfg, fmt.Errorf("audio section: %w", err)
	}
	return cfg, nil
}

// Pin copies the values of pinned keys from startup, so settings given on
// the command line or in the environment survive a reload of the file.
func (rc *RuntimeConfig) Pin(startup RuntimeConfig, pinned map[string]bool) {
	rc.Logging.Modules = maps.Clone(rc.Logging.Modules)
	if rc.Logging.Modules == nil {
		rc.Logging.Modules = make(map[string]string)
	}

	for key := range pinned {
		switch key {
		case "audio.device":
			rc.Audio.Device = startup.Audio.Device
		case "audio.channels":
			rc.Audio.Channels = startup.Audio.Channels
		case "audio.rate":
			rc.Audio.Rate = startup.Audio.Rate
		case "audio.latency_us":
			rc.Audio.LatencyUs = startup.Audio.LatencyUs
		case "logging.level":
			rc.Logging.Level = startup.Logging.Level
		case "logging.format":
			rc.Logging.Format = startup.Logging.Format
		default:
			if module, ok := strings.CutPrefix(key, "logging."); ok {
				if level, set := startup.Logging.Modules[module]; set {
					rc.Logging.Modules[module] = level
				}
			}
		}
	}
}
