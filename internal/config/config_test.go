package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/logging"
	"github.com/spf13/cobra"
)

// testOptions mirrors the shape of the command option structs.
type testOptions struct {
	Config string

	AudioDevice    string        `toml:"audio.device" env:"AUDIO_DEVICE"`
	AudioChannels  int           `toml:"audio.channels" env:"AUDIO_CHANNELS"`
	AudioCheck     bool          `toml:"audio.check_avail" env:"AUDIO_CHECK_AVAIL"`
	AudioID        int32         `toml:"audio.id" env:"AUDIO_ID"`
	AudioAmplitude float64       `toml:"audio.amplitude" env:"AUDIO_AMPLITUDE"`
	AudioDuration  time.Duration `toml:"audio.duration" env:"AUDIO_DURATION"`
	Modules        []string      `toml:"logging.modules" env:"LOGGING_MODULES"`
	MetricsAddr    string        `toml:"metrics.addr" env:"METRICS_ADDR"`
}

func writeTOML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

const sampleTOML = `
[audio]
device = "hw:1,0"
channels = 2
check_avail = true
id = 7
amplitude = 0.5
duration = "250ms"

[logging]
modules = ["playback", "alsa"]

[metrics]
addr = ":9100"
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeTOML(t, sampleTOML)}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:         opts.Config,
		AudioDevice:    "hw:1,0",
		AudioChannels:  2,
		AudioCheck:     true,
		AudioID:        7,
		AudioAmplitude: 0.5,
		AudioDuration:  250 * time.Millisecond,
		Modules:        []string{"playback", "alsa"},
		MetricsAddr:    ":9100",
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("LoadConfig = %+v, want %+v", *opts, want)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("SOUNDNODE_AUDIO_DEVICE", "plughw:0,0")
	t.Setenv("SOUNDNODE_AUDIO_CHANNELS", "1")
	t.Setenv("SOUNDNODE_AUDIO_CHECK_AVAIL", "false")
	t.Setenv("SOUNDNODE_AUDIO_AMPLITUDE", "0.25")
	t.Setenv("SOUNDNODE_AUDIO_DURATION", "2s")
	t.Setenv("SOUNDNODE_LOGGING_MODULES", " sound , hardware ")

	opts := &testOptions{AudioCheck: true}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.AudioDevice != "plughw:0,0" || opts.AudioChannels != 1 || opts.AudioCheck {
		t.Errorf("Unexpected audio options: %+v", opts)
	}
	if opts.AudioAmplitude != 0.25 || opts.AudioDuration != 2*time.Second {
		t.Errorf("Unexpected numeric options: %+v", opts)
	}
	if !reflect.DeepEqual(opts.Modules, []string{"sound", "hardware"}) {
		t.Errorf("Modules = %v", opts.Modules)
	}
}

func TestLoadConfigEnvOverridesToml(t *testing.T) {
	t.Setenv("SOUNDNODE_AUDIO_DEVICE", "default")
	t.Setenv("SOUNDNODE_AUDIO_CHANNELS", "not a number")

	opts := &testOptions{Config: writeTOML(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.AudioDevice != "default" {
		t.Errorf("AudioDevice = %q, want env override", opts.AudioDevice)
	}
	if opts.AudioChannels != 2 {
		t.Errorf("AudioChannels = %d, want TOML value kept on bad env", opts.AudioChannels)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	t.Setenv("SOUNDNODE_METRICS_ADDR", ":9300")

	opts := &testOptions{Config: writeTOML(t, sampleTOML)}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.AudioDevice, "audio-device", "default", "")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "")
	if err := cmd.Flags().Parse([]string{"--audio-device=hw:2,0", "--metrics-addr=:9200"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.AudioDevice != "hw:2,0" {
		t.Errorf("AudioDevice = %q, want flag value", opts.AudioDevice)
	}
	if opts.MetricsAddr != ":9200" {
		t.Errorf("MetricsAddr = %q, want flag value over env", opts.MetricsAddr)
	}
	if opts.AudioChannels != 2 {
		t.Errorf("AudioChannels = %d, want TOML value", opts.AudioChannels)
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Error("LoadConfig should reject a struct value")
	}
	n := 3
	if err := LoadConfig(&n, nil); err == nil {
		t.Error("LoadConfig should reject a non-struct pointer")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeTOML(t, "[audio\ninvalid toml syntax\n")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"audio": map[string]any{
			"alsa": map[string]any{"period": int64(4)},
			"rate": int64(44100),
		},
		"root": "value",
	}

	tests := []struct {
		path string
		want any
	}{
		{"root", "value"},
		{"audio.rate", int64(44100)},
		{"audio.alsa.period", int64(4)},
		{"missing", nil},
		{"audio.missing", nil},
		{"root.child", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Config":         "config",
		"AudioLatencyUs": "audio-latency-us",
		"MetricsAddr":    "metrics-addr",
		"LoggingAPI":     "logging-api",
		"HTTPPort":       "http-port",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetFieldValueTypeMismatch(t *testing.T) {
	s := &testOptions{AudioDevice: "keep", AudioChannels: 3}
	v := reflect.ValueOf(s).Elem()

	setFieldValue(v.FieldByName("AudioDevice"), int64(1))
	setFieldValue(v.FieldByName("AudioChannels"), "two")
	setFieldValue(v.FieldByName("AudioDuration"), "forever")

	if s.AudioDevice != "keep" || s.AudioChannels != 3 || s.AudioDuration != 0 {
		t.Errorf("mismatched values should be ignored: %+v", s)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeTOML(t, `
[logging]
level = "warn"
format = "json"
playback = "debug"
alsa = "error"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("Unexpected global settings: %+v", cfg)
	}
	want := map[string]string{"playback": "debug", "alsa": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	if got := LoadLoggingConfig(""); got.Level != "info" || got.Format != "text" {
		t.Errorf("empty path should give defaults, got %+v", got)
	}
	if got := LoadLoggingConfig(writeTOML(t, "not [toml")); got.Level != "info" {
		t.Errorf("invalid file should give defaults, got %+v", got)
	}
}

func TestLoadRuntimeConfig(t *testing.T) {
	path := writeTOML(t, `
[audio]
rate = 22050
latency_us = 20000

[logging]
level = "debug"
sound = "warn"
`)

	cfg, err := LoadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("LoadRuntimeConfig failed: %v", err)
	}
	if cfg.Audio.Rate != 22050 || cfg.Audio.LatencyUs != 20000 {
		t.Errorf("Audio = %+v", cfg.Audio)
	}
	if cfg.Audio.Device != "default" || cfg.Audio.Channels != 1 {
		t.Errorf("unset audio keys should keep defaults: %+v", cfg.Audio)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Modules["sound"] != "warn" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadRuntimeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(t.TempDir(), "missing.toml")},
		{name: "invalid toml", path: writeTOML(t, "[audio\n")},
		{name: "invalid audio", path: writeTOML(t, "[audio]\nchannels = 0\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadRuntimeConfig(tt.path); err == nil {
				t.Error("LoadRuntimeConfig should fail")
			}
		})
	}
}

func TestPinnedKeys(t *testing.T) {
	t.Setenv("SOUNDNODE_AUDIO_CHANNELS", "2")

	opts := &testOptions{}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.AudioDevice, "audio-device", "default", "")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "")
	if err := cmd.Flags().Parse([]string{"--audio-device=hw:1,0"}); err != nil {
		t.Fatal(err)
	}

	pinned := PinnedKeys(opts, cmd)
	want := map[string]bool{"audio.device": true, "audio.channels": true}
	if len(pinned) != len(want) {
		t.Errorf("PinnedKeys = %v, want %v", pinned, want)
	}
	for key := range want {
		if !pinned[key] {
			t.Errorf("key %q not pinned", key)
		}
	}

	if got := PinnedKeys(*opts, cmd); len(got) != 0 {
		t.Errorf("non-pointer options should pin nothing, got %v", got)
	}
}

func TestRuntimeConfigPinKeepsStartupValues(t *testing.T) {
	path := writeTOML(t, `
[logging]
level = "debug"
sound = "warn"
api = "error"
`)
	rc, err := LoadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("LoadRuntimeConfig failed: %v", err)
	}

	startup := RuntimeConfig{
		Logging: logging.Config{Level: "info", Format: "json", Modules: map[string]string{"sound": "debug"}},
		Audio:   hardware.Config{Device: "hw:1,0", Channels: 2, Rate: 44100, LatencyUs: 20000},
	}
	rc.Pin(startup, map[string]bool{
		"audio.device":   true,
		"audio.rate":     true,
		"logging.format": true,
		"logging.sound":  true,
		"server.port":    true,
	})

	if rc.Audio.Device != "hw:1,0" || rc.Audio.Rate != 44100 {
		t.Errorf("pinned audio values lost: %+v", rc.Audio)
	}
	if rc.Audio.Channels != hardware.DefaultChannels || rc.Audio.LatencyUs != hardware.DefaultLatencyUs {
		t.Errorf("unpinned audio values should come from the file or defaults: %+v", rc.Audio)
	}
	if rc.Logging.Level != "debug" || rc.Logging.Format != "json" {
		t.Errorf("logging = %+v, want file level and pinned format", rc.Logging)
	}
	if rc.Logging.Modules["sound"] != "debug" || rc.Logging.Modules["api"] != "error" {
		t.Errorf("modules = %v", rc.Logging.Modules)
	}
	if startup.Logging.Modules["api"] != "" {
		t.Error("Pin modified the startup configuration")
	}
}
