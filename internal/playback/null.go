package playback

import (
	"errors"
	"sync/atomic"

	"github.com/smazurov/soundnode/internal/hardware"
)

// nullBufferFrames is the room a null handle always reports.
const nullBufferFrames = 1 << 16

var errNullClosed = errors.New("null handle closed")

// NullBackend opens handles that accept and discard every frame.
type NullBackend struct {
	opened atomic.Int64
}

// NewNullBackend creates a null backend.
func NewNullBackend() *NullBackend {
	return &NullBackend{}
}

// Kind implements Backend.
func (b *NullBackend) Kind() hardware.BackendKind { return hardware.BackendNull }

// Supported implements Backend.
func (b *NullBackend) Supported() bool { return true }

// Open implements Backend.
func (b *NullBackend) Open(cfg hardware.Config) (hardware.Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b.opened.Add(1)
	return &NullHandle{channels: cfg.Channels}, nil
}

// Opened returns the number of handles opened so far.
func (b *NullBackend) Opened() int64 { return b.opened.Load() }

// NullHandle counts the frames written to it.
type NullHandle struct {
	channels int
	frames   atomic.Int64
	closed   atomic.Bool
}

// Backend implements hardware.Handle.
func (h *NullHandle) Backend() hardware.BackendKind { return hardware.BackendNull }

// Avail implements hardware.Handle.
func (h *NullHandle) Avail() (int, error) {
	if h.closed.Load() {
		return 0, errNullClosed
	}
	return nullBufferFrames, nil
}

// Write implements hardware.Handle.
func (h *NullHandle) Write(samples []float32) (int, error) {
	if h.closed.Load() {
		return 0, errNullClosed
	}
	n := len(samples) / h.channels
	h.frames.Add(int64(n))
	return n, nil
}

// Recover implements hardware.Handle.
func (h *NullHandle) Recover(_ error) error {
	if h.closed.Load() {
		return errNullClosed
	}
	return nil
}

// Drop implements hardware.Handle.
func (h *NullHandle) Drop() error { return nil }

// Close implements hardware.Handle.
func (h *NullHandle) Close() error {
	h.closed.Store(true)
	return nil
}

// Frames returns the frames written so far.
func (h *NullHandle) Frames() int64 { return h.frames.Load() }
