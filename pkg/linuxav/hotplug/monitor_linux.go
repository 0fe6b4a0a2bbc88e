//go:build linux

package hotplug

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

const kernelGroup = 1

// Monitor reads uevents from the kernel broadcast group.
type Monitor struct {
	fd int

	mu      sync.RWMutex
	filters map[string]struct{}
}

// NewMonitor opens a NETLINK_KOBJECT_UEVENT socket.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: kernelGroup}); err != nil {
		unix.Close(fd)
		return nil, err
	}
	// A receive timeout lets Run notice cancellation.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Monitor{fd: fd, filters: make(map[string]struct{})}, nil
}

// AddSubsystemFilter restricts Run to the given subsystems. Without
// filters every event is delivered.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.mu.Lock()
	m.filters[subsystem] = struct{}{}
	m.mu.Unlock()
}

func (m *Monitor) accepts(subsystem string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.filters) == 0 {
		return true
	}
	_, ok := m.filters[subsystem]
	return ok
}

// Close releases the socket.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers events until ctx is done or the socket fails. It closes
// events on return.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	buf := make([]byte, 8192)
	for ctx.Err() == nil {
		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return err
		case n == 0:
			continue
		}

		ev := ParseUEvent(buf[:n])
		if ev == nil || !m.accepts(ev.Subsystem) {
			continue
		}

		select {
		case events <- *ev:
		case <-ctx.Done():
		}
	}
	return ctx.Err()
}
