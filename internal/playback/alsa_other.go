//go:build !linux

package playback

import "github.com/smazurov/soundnode/internal/hardware"

// unsupportedBackend stands in for ALSA on platforms without it.
type unsupportedBackend struct{}

func newALSABackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Kind() hardware.BackendKind { return hardware.BackendALSA }

func (unsupportedBackend) Supported() bool { return false }

func (unsupportedBackend) Open(hardware.Config) (hardware.Handle, error) {
	return nil, ErrUnsupported
}

// CardOf is unavailable without ALSA.
func CardOf(string) (int, error) {
	return 0, ErrUnsupported
}
