package playback

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/metrics"
)

// Tap receives every block the device accepted. Used for WAV dumps.
type Tap interface {
	Tap(id int32, cfg hardware.Config, samples []float32)
}

// EngineOptions configures a new Engine.
type EngineOptions struct {
	// Backend opens platform streams (required).
	Backend Backend

	// SkipAvailCheck writes without probing free buffer space first.
	SkipAvailCheck bool

	// WriteLoops submits each block this many times per Write.
	// Values below 1 mean 1.
	WriteLoops int

	// EventBus receives lifecycle events and diagnostics (optional).
	EventBus *events.Bus

	// Tap sees accepted blocks (optional).
	Tap Tap

	// Logger for engine operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Engine opens, writes to and closes output devices.
type Engine struct {
	backend    Backend
	checkAvail bool
	writeLoops int
	bus        *events.Bus
	tap        Tap
	logger     *slog.Logger
}

// NewEngine creates a playback engine.
func NewEngine(opts *EngineOptions) *Engine {
	if opts == nil || opts.Backend == nil {
		panic("EngineOptions with Backend is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		backend:    opts.Backend,
		checkAvail: !opts.SkipAvailCheck,
		writeLoops: max(opts.WriteLoops, 1),
		bus:        opts.EventBus,
		tap:        opts.Tap,
		logger:     logger,
	}
}

// Supported reports whether the backend can open devices in this build.
func (e *Engine) Supported() bool {
	return e.backend.Supported()
}

// Backend returns the engine's backend.
func (e *Engine) Backend() Backend {
	return e.backend
}

// Open opens a device for id and returns it wrapped in an open record.
// Any failure leaves nothing allocated.
func (e *Engine) Open(id int32, cfg hardware.Config) (*hardware.Record, error) {
	rec := hardware.NewRecord(id, cfg)
	if err := e.OpenRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// OpenRecord opens a device for an unconfigured record, such as a Clone of
// a closed one, and attaches the stream to it.
func (e *Engine) OpenRecord(rec *hardware.Record) error {
	id, cfg := rec.ID(), rec.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if rec.State() != hardware.StateUnconfigured {
		return fmt.Errorf("device %d: record is %s, not unconfigured", id, rec.State())
	}

	h, err := e.backend.Open(cfg)
	if err != nil {
		e.logger.Warn("Failed to open device", "device_id", id, "config", cfg.String(), "error", err)
		metrics.DeviceOpenFailed(string(e.backend.Kind()))
		e.bus.Publish(events.DeviceOpenFailedEvent{
			DeviceID:  id,
			Device:    cfg.Device,
			Error:     err.Error(),
			Timestamp: now(),
		})
		return err
	}
	if !rec.Attach(h) {
		_ = h.Close()
		return fmt.Errorf("device %d: record was opened concurrently", id)
	}

	e.logger.Info("Device opened", "device_id", id, "config", cfg.String(), "backend", h.Backend())
	metrics.DeviceOpened()
	e.bus.Publish(events.DeviceOpenedEvent{
		DeviceID:  id,
		Device:    cfg.Device,
		Channels:  cfg.Channels,
		Rate:      cfg.Rate,
		LatencyUs: cfg.LatencyUs,
		Backend:   string(h.Backend()),
		Timestamp: now(),
	})
	return nil
}

// Write submits interleaved samples and returns the frames the device
// accepted. It returns 0 when the record is closed, when the device has no
// room, or when a failed write could not be recovered. Errors never reach
// the caller; they are reported as diagnostics.
func (e *Engine) Write(rec *hardware.Record, samples []float32) int {
	if rec == nil {
		return 0
	}

	written := 0
	rec.Use(func(h hardware.Handle) {
		if h == nil {
			e.diagnose(rec.ID(), events.DiagNotConfigured, len(samples), 0, nil)
			return
		}
		written = e.write(rec.ID(), rec.Config(), h, samples)
	})
	return written
}

func (e *Engine) write(id int32, cfg hardware.Config, h hardware.Handle, samples []float32) int {
	frames := len(samples) / cfg.Channels
	if rem := len(samples) % cfg.Channels; rem != 0 {
		e.diagnose(id, events.DiagPartialFrame, len(samples), frames*cfg.Channels, nil)
		samples = samples[:frames*cfg.Channels]
	}
	if frames == 0 {
		return 0
	}

	if e.checkAvail {
		avail, err := h.Avail()
		switch {
		case err != nil:
			// An xrun or suspend surfaces here first, before any write.
			if rerr := h.Recover(err); rerr != nil {
				e.diagnose(id, events.DiagWriteFailed, frames, 0, rerr)
				metrics.RecordWrite(id, 0)
				return 0
			}
			e.diagnose(id, events.DiagRecovered, frames, 0, err)
		case avail <= 0:
			e.diagnose(id, events.DiagBackpressure, frames, 0, nil)
			return 0
		}
	}

	n := 0
	for range e.writeLoops {
		var err error
		n, err = h.Write(samples)
		if err != nil {
			if rerr := h.Recover(err); rerr != nil {
				e.diagnose(id, events.DiagWriteFailed, frames, 0, rerr)
				metrics.RecordWrite(id, 0)
				return 0
			}
			e.diagnose(id, events.DiagRecovered, frames, 0, err)
			n = 0
		} else if n < frames {
			e.diagnose(id, events.DiagShortWrite, frames, n, nil)
		}
		metrics.RecordWrite(id, n)
	}

	if n > 0 && e.tap != nil {
		e.tap.Tap(id, cfg, samples[:n*cfg.Channels])
	}
	return n
}

// ReportMissing records a play request for an identifier with no device.
func (e *Engine) ReportMissing(id int32, samples int) {
	e.diagnose(id, events.DiagNotConfigured, samples, 0, nil)
}

// Close drops pending audio and releases the device. The record is left
// closed even if the platform reports errors; closing twice is a no-op.
func (e *Engine) Close(rec *hardware.Record) {
	if rec == nil {
		return
	}

	h := rec.Release()
	if h == nil {
		return
	}

	if err := h.Drop(); err != nil {
		e.logger.Debug("Drop failed", "device_id", rec.ID(), "error", err)
	}
	if err := h.Close(); err != nil {
		e.logger.Warn("Close failed", "device_id", rec.ID(), "error", err)
	}

	e.logger.Info("Device closed", "device_id", rec.ID())
	metrics.DeviceClosed(rec.ID())
	e.bus.Publish(events.DeviceClosedEvent{
		DeviceID:  rec.ID(),
		Device:    rec.Config().Device,
		Timestamp: now(),
	})
}

func (e *Engine) diagnose(id int32, kind events.DiagnosticKind, requested, written int, err error) {
	ev := events.DiagnosticEvent{
		DeviceID:  id,
		Kind:      kind,
		Requested: requested,
		Written:   written,
		Timestamp: now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	attrs := []any{"device_id", id, "kind", kind, "requested", requested, "written", written}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	switch kind {
	case events.DiagWriteFailed, events.DiagNotConfigured:
		e.logger.Warn("Playback write dropped", attrs...)
	case events.DiagRecovered:
		e.logger.Info("Playback stream recovered", attrs...)
	default:
		e.logger.Debug("Playback write anomaly", attrs...)
	}

	if kind == events.DiagNotConfigured {
		metrics.RecordUnconfigured()
	} else {
		metrics.RecordDiagnostic(id, string(kind))
	}
	e.bus.Publish(ev)
}

func now() string {
	return time.Now().Format(time.RFC3339Nano)
}
