package hardware

import (
	"strings"
	"sync"
	"time"
)

// Handle is an open platform output stream. A handle belongs to exactly
// one record.
type Handle interface {
	// Backend reports which platform backend opened the stream.
	Backend() BackendKind
	// Avail returns the frames that can be written without blocking.
	Avail() (int, error)
	// Write submits interleaved samples and returns the frames accepted.
	Write(samples []float32) (int, error)
	// Recover attempts to resume a faulted stream after a failed write.
	Recover(err error) error
	// Drop discards any pending buffered audio.
	Drop() error
	// Close releases the stream.
	Close() error
}

// Record is one audio output channel.
type Record struct {
	id     int32
	config Config
	auto   bool

	mu       sync.Mutex
	state    State
	handle   Handle
	openedAt time.Time
}

// NewRecord creates an unconfigured record. The device name is copied so
// the record never aliases caller memory.
func NewRecord(id int32, cfg Config) *Record {
	cfg.Device = strings.Clone(cfg.Device)
	return &Record{
		id:     id,
		config: cfg,
		state:  StateUnconfigured,
	}
}

// ID returns the record identifier.
func (r *Record) ID() int32 { return r.id }

// Config returns the requested configuration.
func (r *Record) Config() Config { return r.config }

// Auto reports whether the registry created the record implicitly.
func (r *Record) Auto() bool { return r.auto }

// State returns the current lifecycle state.
func (r *Record) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsOpen reports whether a platform stream is attached.
func (r *Record) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle != nil
}

// Attach stores an open handle and moves the record to StateOpen. It
// returns false, leaving the record untouched, unless the record is
// unconfigured.
func (r *Record) Attach(h Handle) bool {
	if h == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateUnconfigured {
		return false
	}
	r.handle = h
	r.state = StateOpen
	r.openedAt = time.Now()
	return true
}

// Use runs fn with the handle while holding the record lock, so a
// concurrent Release waits for the write in progress. fn receives nil
// once the record is closed.
func (r *Record) Use(fn func(h Handle)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.handle)
}

// Release detaches the handle and marks the record closed. It returns the
// detached handle, or nil if there was none. Releasing twice is a no-op.
func (r *Record) Release() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.handle
	r.handle = nil
	r.state = StateClosed
	return h
}

// Clone returns an unconfigured record with the same identifier and an
// independent copy of the configuration.
func (r *Record) Clone() *Record {
	return NewRecord(r.id, r.config)
}

// Info is a point-in-time view of a record.
type Info struct {
	ID        int32
	Device    string
	Channels  int
	Rate      int
	LatencyUs int
	State     State
	Backend   BackendKind
	Auto      bool
	OpenedAt  time.Time
}

// Info returns a snapshot of the record.
func (r *Record) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	info := Info{
		ID:        r.id,
		Device:    r.config.Device,
		Channels:  r.config.Channels,
		Rate:      r.config.Rate,
		LatencyUs: r.config.LatencyUs,
		State:     r.state,
		Auto:      r.auto,
		OpenedAt:  r.openedAt,
	}
	if r.handle != nil {
		info.Backend = r.handle.Backend()
	}
	return info
}
