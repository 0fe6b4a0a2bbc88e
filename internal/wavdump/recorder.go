// Package wavdump records everything written to playback devices into WAV
// files, one file per device session.
package wavdump

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/smazurov/soundnode/internal/events"
	"github.com/smazurov/soundnode/internal/hardware"
)

const bitDepth = 16

// ErrClosed is returned when recording after Close.
var ErrClosed = errors.New("wavdump: recorder closed")

type session struct {
	file *os.File
	enc  *wav.Encoder
	buf  *audio.IntBuffer
	path string
}

// Recorder writes tapped samples as 16-bit PCM WAV files under a directory.
// Files are named device-<id>-<n>.wav, where n counts sessions of the same
// identifier.
type Recorder struct {
	dir    string
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[int32]*session
	counts   map[int32]int
	files    []string
	closed   bool
}

// New creates a recorder writing into dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dump directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		dir:      dir,
		logger:   logger,
		sessions: make(map[int32]*session),
		counts:   make(map[int32]int),
	}, nil
}

// Tap appends samples accepted by device id. Errors are logged and the
// session is abandoned so playback is never affected.
func (r *Recorder) Tap(id int32, cfg hardware.Config, samples []float32) {
	if err := r.write(id, cfg, samples); err != nil {
		r.logger.Warn("WAV dump write failed", "device_id", id, "error", err)
	}
}

func (r *Recorder) write(id int32, cfg hardware.Config, samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	s, ok := r.sessions[id]
	if !ok {
		var err error
		if s, err = r.openLocked(id, cfg); err != nil {
			return err
		}
	}

	s.buf.Data = s.buf.Data[:0]
	for _, v := range samples {
		s.buf.Data = append(s.buf.Data, toInt16(v))
	}
	if err := s.enc.Write(s.buf); err != nil {
		r.finishLocked(id)
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	return nil
}

func (r *Recorder) openLocked(id int32, cfg hardware.Config) (*session, error) {
	r.counts[id]++
	path := filepath.Join(r.dir, fmt.Sprintf("device-%d-%d.wav", id, r.counts[id]))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	s := &session{
		file: f,
		enc:  wav.NewEncoder(f, cfg.Rate, bitDepth, cfg.Channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: cfg.Channels, SampleRate: cfg.Rate},
			SourceBitDepth: bitDepth,
		},
		path: path,
	}
	r.sessions[id] = s
	r.files = append(r.files, path)
	r.logger.Info("Recording device output", "device_id", id, "path", path)
	return s, nil
}

// Finish closes the current file for id. The next Tap for id starts a new
// file.
func (r *Recorder) Finish(id int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishLocked(id)
}

func (r *Recorder) finishLocked(id int32) error {
	s, ok := r.sessions[id]
	if !ok {
		return nil
	}
	delete(r.sessions, id)

	err := s.enc.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("finalize %s: %w", s.path, err)
	}
	return nil
}

// Watch finishes a device's file when the bus reports the device closed.
// It returns the unsubscribe function.
func (r *Recorder) Watch(bus *events.Bus) func() {
	return bus.Subscribe(func(e events.DeviceClosedEvent) {
		if err := r.Finish(e.DeviceID); err != nil {
			r.logger.Warn("Failed to finalize WAV dump", "device_id", e.DeviceID, "error", err)
		}
	})
}

// Files returns the paths of every file the recorder has created.
func (r *Recorder) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Close finalizes all open files. Later taps are dropped.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	var errs []error
	for id := range r.sessions {
		if err := r.finishLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func toInt16(v float32) int {
	if math.IsNaN(float64(v)) {
		return 0
	}
	scaled := math.Round(float64(v) * 32767)
	return int(max(-32768, min(32767, scaled)))
}
