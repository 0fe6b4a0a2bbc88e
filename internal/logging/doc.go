// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"playback": "debug",
//			"alsa":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("playback")
//	logger.Debug("Short write", "device_id", id, "written", n)
//
// Module loggers are cached. Calling Initialize again (for example from
// the config watcher) updates the levels and output format of loggers that
// already exist. SetModuleLevel changes a single module.
//
// # Modules
//
//	main      - process lifecycle
//	sound     - configure/play/stop boundary
//	hardware  - device registry
//	playback  - engine write path and diagnostics
//	alsa      - kernel device negotiation
//	config    - config loading and reload
//
// # Viewing Logs
//
// When running on a system with journald:
//
//	journalctl -t soundnode -f
//	journalctl -t soundnode MODULE=playback
//	journalctl -t soundnode DEVICE_ID=1
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	playback = "debug"
package logging
