package playback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/soundnode/internal/hardware"
)

var (
	// ErrUnsupported is returned when the build has no driver for a backend.
	ErrUnsupported = errors.New("audio backend not supported on this platform")
	// ErrUnknownBackend is returned for unrecognized backend names.
	ErrUnknownBackend = errors.New("unknown audio backend")
)

// Backend opens platform output streams.
type Backend interface {
	// Kind names the backend.
	Kind() hardware.BackendKind
	// Supported reports whether this build can open streams.
	Supported() bool
	// Open opens and configures a stream in non-blocking playback mode.
	// On failure no resource is left allocated.
	Open(cfg hardware.Config) (hardware.Handle, error)
}

// NewBackend returns the backend registered under name.
func NewBackend(name string) (Backend, error) {
	switch hardware.BackendKind(strings.ToLower(strings.TrimSpace(name))) {
	case hardware.BackendALSA, "":
		return newALSABackend(), nil
	case hardware.BackendNull:
		return NewNullBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
