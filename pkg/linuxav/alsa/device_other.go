//go:build !linux

package alsa

import "errors"

// ErrUnsupported is returned on platforms without ALSA.
var ErrUnsupported = errors.New("alsa: not supported on this platform")

// ListDevices is unavailable outside Linux.
func ListDevices(_ int) ([]Device, error) {
	return nil, ErrUnsupported
}
