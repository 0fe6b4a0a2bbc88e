package sound

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/go-audio/audio"
	"github.com/smazurov/soundnode/internal/hardware"
	"github.com/smazurov/soundnode/internal/playback"
)

// Options configures a new Service.
type Options struct {
	// Engine opens and writes devices (required).
	Engine *playback.Engine

	// Defaults is the configuration for auto-created devices.
	// If nil, hardware.DefaultConfig() is used.
	Defaults *hardware.Config

	// Logger for service operations. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Service owns the device registry and routes calls to the playback engine.
type Service struct {
	engine   *playback.Engine
	registry *hardware.Registry
	logger   *slog.Logger
	scratch  sync.Pool

	// reopenMu serializes Reopen calls.
	reopenMu sync.Mutex
}

// NewService creates a service with an empty registry.
func NewService(opts *Options) *Service {
	if opts == nil || opts.Engine == nil {
		panic("Options with Engine is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		engine: opts.Engine,
		registry: hardware.NewRegistry(&hardware.RegistryOptions{
			Opener:   opts.Engine,
			Defaults: opts.Defaults,
			Logger:   logger.With("component", "registry"),
		}),
		logger: logger,
		scratch: sync.Pool{New: func() any {
			buf := make([]float32, 0, 2048)
			return &buf
		}},
	}
}

// Registry returns the service's device registry.
func (s *Service) Registry() *hardware.Registry {
	return s.registry
}

// Configure opens a device for id. It fails with ErrRepeatConfig if id
// already has a device, leaving that device untouched, and with
// ErrHardwareInit if the platform stream cannot be opened or configured.
func (s *Service) Configure(id int32, device string, channels, rate, latencyUs int) error {
	cfg := hardware.Config{
		Device:    device,
		Channels:  channels,
		Rate:      rate,
		LatencyUs: latencyUs,
	}
	if err := cfg.Validate(); err != nil {
		return newError(CodeInvalidParams, id, "invalid device parameters", err)
	}

	if _, err := s.registry.Open(id, cfg); err != nil {
		if errors.Is(err, hardware.ErrDuplicateID) {
			s.logger.Warn("Device already configured", "device_id", id)
			return newError(CodeRepeatConfig, id, "repeat config", nil)
		}
		return newError(CodeHardwareInit, id, "audio hardware init failed", err)
	}

	s.logger.Info("Device configured", "device_id", id, "config", cfg.String())
	return nil
}

// Acquire returns whether id has a device, opening one with the default
// configuration if needed.
func (s *Service) Acquire(id int32) bool {
	return s.registry.Find(id, true) != nil
}

// Play writes interleaved samples to id's device and returns the frames
// the device accepted. Without a device it writes nothing and emits a
// diagnostic.
func (s *Service) Play(id int32, samples []float32) int {
	rec := s.registry.Find(id, false)
	if rec == nil {
		s.engine.ReportMissing(id, len(samples))
		return 0
	}
	return s.engine.Write(rec, samples)
}

// PlayFloat64 is Play for double precision samples.
func (s *Service) PlayFloat64(id int32, samples []float64) int {
	return s.playConverted(id, len(samples), func(dst []float32) []float32 {
		return playback.FromFloat64(dst, samples)
	})
}

// PlayInt16 is Play for signed 16-bit PCM.
func (s *Service) PlayInt16(id int32, samples []int16) int {
	return s.playConverted(id, len(samples), func(dst []float32) []float32 {
		return playback.FromInt16(dst, samples)
	})
}

// PlayBuffer is Play for a go-audio buffer.
func (s *Service) PlayBuffer(id int32, buf audio.Buffer) int {
	if buf == nil {
		return s.Play(id, nil)
	}
	return s.playConverted(id, buf.NumFrames(), func(dst []float32) []float32 {
		return playback.FromBuffer(dst, buf)
	})
}

func (s *Service) playConverted(id int32, n int, convert func([]float32) []float32) int {
	rec := s.registry.Find(id, false)
	if rec == nil {
		s.engine.ReportMissing(id, n)
		return 0
	}

	bufp := s.scratch.Get().(*[]float32)
	samples := convert((*bufp)[:0])
	written := s.engine.Write(rec, samples)
	*bufp = samples
	s.scratch.Put(bufp)
	return written
}

// Stop closes id's device and forgets it. Unknown identifiers are ignored.
func (s *Service) Stop(id int32) {
	rec := s.registry.Find(id, false)
	if rec == nil {
		s.logger.Debug("Stop for unknown device", "device_id", id)
		return
	}
	s.registry.Remove(rec)
	s.engine.Close(rec)
}

// StopAll closes every device.
func (s *Service) StopAll() {
	for _, rec := range s.registry.Drain() {
		s.engine.Close(rec)
	}
}

// Reopen closes id's device and opens it again with the same
// configuration, for example after the device was unplugged and returned.
// The old stream is closed first since most hardware cannot be opened
// twice. If the new open fails the closed device stays registered, so a
// later Reopen can retry and Configure still reports REPEAT_CONFIG.
func (s *Service) Reopen(id int32) error {
	s.reopenMu.Lock()
	defer s.reopenMu.Unlock()

	rec := s.registry.Find(id, false)
	if rec == nil {
		return newError(CodeDeviceNotFound, id, "no device configured", nil)
	}
	s.engine.Close(rec)

	next := rec.Clone()
	if err := s.engine.OpenRecord(next); err != nil {
		return newError(CodeHardwareInit, id, "audio hardware reopen failed", err)
	}
	if !s.registry.Replace(rec, next) {
		s.engine.Close(next)
		return newError(CodeDeviceNotFound, id, "device stopped during reopen", nil)
	}

	s.logger.Info("Device reopened", "device_id", id, "config", next.Config().String())
	return nil
}

// IsSupported reports whether the build includes the audio backend.
func (s *Service) IsSupported() bool {
	return s.engine.Supported()
}

// Active reports whether id has an open device.
func (s *Service) Active(id int32) bool {
	rec := s.registry.Find(id, false)
	return rec != nil && rec.IsOpen()
}

// Devices lists the configured devices in configuration order.
func (s *Service) Devices() []hardware.Info {
	recs := s.registry.Records()
	infos := make([]hardware.Info, len(recs))
	for i, rec := range recs {
		infos[i] = rec.Info()
	}
	return infos
}
