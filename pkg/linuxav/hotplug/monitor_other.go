//go:build !linux

package hotplug

import (
	"context"
	"errors"
)

// ErrUnsupported is returned where the kernel has no uevent socket.
var ErrUnsupported = errors.New("hotplug: uevents not supported on this platform")

// Monitor is unavailable on this platform.
type Monitor struct{}

// NewMonitor always fails on this platform.
func NewMonitor() (*Monitor, error) { return nil, ErrUnsupported }

// AddSubsystemFilter does nothing on this platform.
func (m *Monitor) AddSubsystemFilter(string) {}

// Close does nothing on this platform.
func (m *Monitor) Close() error { return nil }

// Run closes events and fails.
func (m *Monitor) Run(_ context.Context, events chan<- Event) error {
	close(events)
	return ErrUnsupported
}
