package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/soundnode/cmd"
	"github.com/smazurov/soundnode/internal/api"
	"github.com/smazurov/soundnode/internal/config"
	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/logging"
	"github.com/smazurov/soundnode/internal/metrics/exporters"
	"github.com/smazurov/soundnode/internal/playback"
	"github.com/smazurov/soundnode/internal/sound"
	"github.com/smazurov/soundnode/internal/systemd"
	"github.com/smazurov/soundnode/internal/wavdump"
	"github.com/smazurov/soundnode/pkg/linuxav/hotplug"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8091" toml:"server.port" env:"SERVER_PORT"`

	// Audio settings
	AudioBackend    string `help:"Output backend (alsa, null)" default:"alsa" toml:"audio.backend" env:"AUDIO_BACKEND"`
	AudioDevice     string `help:"Device for auto-created outputs" default:"default" toml:"audio.device" env:"AUDIO_DEVICE"`
	AudioChannels   int    `help:"Channels for auto-created outputs" default:"1" toml:"audio.channels" env:"AUDIO_CHANNELS"`
	AudioRate       int    `help:"Sample rate for auto-created outputs" default:"48000" toml:"audio.rate" env:"AUDIO_RATE"`
	AudioLatencyUs  int    `help:"Latency for auto-created outputs in microseconds" default:"500000" toml:"audio.latency_us" env:"AUDIO_LATENCY_US"`
	AudioCheckAvail bool   `help:"Drop blocks the device has no room for" default:"true" toml:"audio.check_avail" env:"AUDIO_CHECK_AVAIL"`
	AudioWriteLoops int    `help:"Times each block is submitted" default:"1" toml:"audio.write_loops" env:"AUDIO_WRITE_LOOPS"`
	AudioReplug     bool   `help:"Reopen outputs when their sound card returns" default:"true" toml:"audio.replug" env:"AUDIO_REPLUG"`
	AudioDumpDir    string `help:"Record every output to WAV files in this directory" default:"" toml:"audio.dump_dir" env:"AUDIO_DUMP_DIR"`

	// Metrics settings
	MetricsEnabled bool `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSound    string `help:"Sound service logging level" default:"info" toml:"logging.sound" env:"LOGGING_SOUND"`
	LoggingPlayback string `help:"Playback engine logging level" default:"info" toml:"logging.playback" env:"LOGGING_PLAYBACK"`
	LoggingAlsa     string `help:"ALSA backend logging level" default:"info" toml:"logging.alsa" env:"LOGGING_ALSA"`
	LoggingConfig   string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP     string `help:"HTTP access logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"sound":    o.LoggingSound,
			"playback": o.LoggingPlayback,
			"alsa":     o.LoggingAlsa,
			"config":   o.LoggingConfig,
			"api":      o.LoggingAPI,
			"http":     o.LoggingHTTP,
		},
	}
}

func (o *Options) audioDefaults() hardware.Config {
	return hardware.Config{
		Device:    o.AudioDevice,
		Channels:  o.AudioChannels,
		Rate:      o.AudioRate,
		LatencyUs: o.AudioLatencyUs,
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		defaults := opts.audioDefaults()
		if err := defaults.Validate(); err != nil {
			logger.Error("Invalid audio defaults", "error", err)
			os.Exit(1)
		}

		backend, err := playback.NewBackend(opts.AudioBackend)
		if err != nil {
			logger.Error("Failed to create audio backend", "error", err)
			os.Exit(1)
		}
		if !backend.Supported() {
			logger.Warn("Audio backend not supported on this platform, outputs will fail to open", "backend", backend.Kind())
		}

		// Create event bus for in-process event handling
		eventBus := events.New()

		engineOpts := &playback.EngineOptions{
			Backend:        backend,
			SkipAvailCheck: !opts.AudioCheckAvail,
			WriteLoops:     opts.AudioWriteLoops,
			EventBus:       eventBus,
			Logger:         logging.GetLogger("playback"),
		}

		var recorder *wavdump.Recorder
		if opts.AudioDumpDir != "" {
			recorder, err = wavdump.New(opts.AudioDumpDir, logging.GetLogger("wavdump"))
			if err != nil {
				logger.Error("Failed to create WAV dump directory", "dir", opts.AudioDumpDir, "error", err)
				os.Exit(1)
			}
			recorder.Watch(eventBus)
			engineOpts.Tap = recorder
		}

		service := sound.NewService(&sound.Options{
			Engine:   playback.NewEngine(engineOpts),
			Defaults: &defaults,
			Logger:   logging.GetLogger("sound"),
		})

		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			Service:      service,
			EventBus:     eventBus,
		}
		if opts.MetricsEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}
		server := api.NewServer(apiOpts)

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))

		// Values given as flags or env vars at startup outrank the file on reload.
		pinned := config.PinnedKeys(opts, cli.Root())
		startup := config.RuntimeConfig{Logging: opts.loggingConfig(), Audio: defaults}
		loadRuntime := func(path string) (config.RuntimeConfig, error) {
			rc, loadErr := config.LoadRuntimeConfig(path)
			if loadErr != nil {
				return rc, loadErr
			}
			rc.Pin(startup, pinned)
			return rc, rc.Audio.Validate()
		}

		watcher := config.NewConfigWatcher(opts.Config, loadRuntime, logging.GetLogger("config"),
			config.WithErrorHandler[config.RuntimeConfig](func(err error) {
				logger.Warn("Config reload rejected, keeping previous settings", "error", err)
			}))
		watcher.OnReload(func(rc config.RuntimeConfig) {
			notifier.Reloading()
			logging.Initialize(rc.Logging)
			service.Registry().SetDefaults(rc.Audio)
			eventBus.Publish(events.ConfigReloadedEvent{
				Path:      opts.Config,
				Timestamp: time.Now().Format(time.RFC3339Nano),
			})
			notifier.Ready()
		})

		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if startErr := watcher.Start(ctx); startErr != nil {
				logger.Warn("Config watcher not started", "path", opts.Config, "error", startErr)
			}

			if opts.AudioReplug {
				startReplug(ctx, service, logger)
			}

			go notifier.Watchdog(ctx)
			notifier.Ready()

			logger.Info("Starting HTTP server", "port", opts.Port, "backend", backend.Kind())
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			notifier.Stopping()
			cancel()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Debug("Config watcher stop", "error", stopErr)
			}

			// Close outputs after the API stops accepting requests
			service.StopAll()

			if recorder != nil {
				if closeErr := recorder.Close(); closeErr != nil {
					logger.Error("Error closing WAV dumps", "error", closeErr)
				}
			}
			if closeErr := eventBus.Close(); closeErr != nil {
				logger.Debug("Event bus close", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "soundnode"
	cli.Root().Short = "Audio output runtime for emulator sound units"
	cli.Root().AddCommand(cmd.CreateDevicesCmd())
	cli.Root().AddCommand(cmd.CreateNoiseCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}

// startReplug reopens outputs whose sound card is unplugged and plugged
// back in.
func startReplug(ctx context.Context, service *sound.Service, logger *slog.Logger) {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		logger.Warn("Hotplug monitor unavailable, outputs will not be reopened on replug", "error", err)
		return
	}
	monitor.AddSubsystemFilter(hotplug.SubsystemSound)

	replugger := sound.NewReplugger(service, &sound.ReplugOptions{
		Resolve: playback.CardOf,
		Logger:  logging.GetLogger("sound").With("component", "replug"),
	})

	uevents := make(chan hotplug.Event, 16)
	go func() {
		defer monitor.Close()
		if runErr := monitor.Run(ctx, uevents); runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Warn("Hotplug monitor stopped", "error", runErr)
		}
	}()
	go replugger.Run(ctx, uevents)
}
