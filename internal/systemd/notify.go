// Package systemd reports service state to the systemd service manager.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages. Outside systemd every call is a no-op.
type Notifier struct {
	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)
	logger   *slog.Logger
}

// NewNotifier creates a notifier using NOTIFY_SOCKET and WATCHDOG_USEC.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
		watchdog: func() (time.Duration, error) {
			return daemon.SdWatchdogEnabled(false)
		},
		logger: logger,
	}
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// Ready marks startup complete.
func (n *Notifier) Ready() { n.send(daemon.SdNotifyReady) }

// Reloading marks a configuration reload in progress. Call Ready when done.
func (n *Notifier) Reloading() { n.send(daemon.SdNotifyReloading) }

// Stopping marks the start of shutdown.
func (n *Notifier) Stopping() { n.send(daemon.SdNotifyStopping) }

// Watchdog pings the watchdog at half its interval until ctx is done.
// It returns immediately when the unit has no watchdog.
func (n *Notifier) Watchdog(ctx context.Context) {
	interval, err := n.watchdog()
	if err != nil {
		n.logger.Warn("Watchdog configuration invalid", "error", err)
		return
	}
	if interval <= 0 {
		return
	}

	n.logger.Info("Watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
