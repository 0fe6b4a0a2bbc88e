package hardware

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/smazurov/soundnode/internal/logging"
)

// ErrDuplicateID is returned when inserting a record whose identifier is
// already registered.
var ErrDuplicateID = errors.New("device identifier already registered")

// Opener opens a platform stream for a new record.
// The playback engine implements it.
type Opener interface {
	Open(id int32, cfg Config) (*Record, error)
}

// RegistryOptions configures a new Registry.
type RegistryOptions struct {
	// Opener opens devices on auto-create (required).
	Opener Opener

	// Defaults is the configuration for auto-created devices.
	// If nil, DefaultConfig() is used.
	Defaults *Config

	// Logger for registry operations. If nil, uses slog.Default().
	Logger logging.Logger
}

type entry struct {
	rec *Record
	seq uint64
}

// Registry maps identifiers to device records. It holds at most one record
// per identifier and keeps insertion order for listings.
type Registry struct {
	mu       sync.Mutex
	records  map[int32]entry
	nextSeq  uint64
	opener   Opener
	defaults Config
	logger   logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts *RegistryOptions) *Registry {
	if opts == nil || opts.Opener == nil {
		panic("RegistryOptions with Opener is required")
	}

	defaults := DefaultConfig()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}

	var logger logging.Logger = opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		records:  make(map[int32]entry),
		opener:   opts.Opener,
		defaults: defaults,
		logger:   logger,
	}
}

// Defaults returns the auto-create configuration.
func (r *Registry) Defaults() Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaults
}

// SetDefaults replaces the auto-create configuration. Devices already open
// keep their configuration.
func (r *Registry) SetDefaults(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = cfg
}

// Find returns the record for id. When no record exists and autoCreate is
// set, a device is opened with the default configuration and registered.
// An open failure is logged and reported as not found.
func (r *Registry) Find(id int32, autoCreate bool) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.records[id]; ok {
		return e.rec
	}
	if !autoCreate {
		return nil
	}

	rec, err := r.opener.Open(id, r.defaults)
	if err != nil {
		r.logger.Warn("Auto-create failed", "device_id", id, "config", r.defaults.String(), "error", err)
		return nil
	}
	rec.auto = true
	r.insertLocked(rec)
	r.logger.Info("Auto-created device", "device_id", id, "config", r.defaults.String())
	return rec
}

// Open opens a device for id with cfg and registers it. It fails with
// ErrDuplicateID without touching the opener when id is already taken.
func (r *Registry) Open(id int32, cfg Config) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	rec, err := r.opener.Open(id, cfg)
	if err != nil {
		return nil, err
	}
	r.insertLocked(rec)
	return rec, nil
}

// Insert registers rec. A record whose identifier is already present is
// rejected and the existing record stays in place.
func (r *Registry) Insert(rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.records[rec.id]; ok {
		if e.rec == rec {
			return nil
		}
		return fmt.Errorf("%w: %d", ErrDuplicateID, rec.id)
	}
	r.insertLocked(rec)
	return nil
}

func (r *Registry) insertLocked(rec *Record) {
	r.nextSeq++
	r.records[rec.id] = entry{rec: rec, seq: r.nextSeq}
}

// Remove unregisters rec by identity. A record that is not registered,
// or a different record under the same identifier, is left alone.
func (r *Registry) Remove(rec *Record) bool {
	if rec == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.records[rec.id]
	if !ok || e.rec != rec {
		return false
	}
	delete(r.records, rec.id)
	return true
}

// Replace swaps next in for old under the same identifier, keeping its
// listing position and auto flag. It returns false, leaving the registry
// untouched, if old is no longer the registered record.
func (r *Registry) Replace(old, next *Record) bool {
	if old == nil || next == nil || old.id != next.id {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.records[old.id]
	if !ok || e.rec != old {
		return false
	}
	next.auto = old.auto
	r.records[old.id] = entry{rec: next, seq: e.seq}
	return true
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Records returns the registered records in insertion order.
func (r *Registry) Records() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orderedLocked()
}

// Drain removes every record and returns them in insertion order.
func (r *Registry) Drain() []*Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.orderedLocked()
	clear(r.records)
	return recs
}

func (r *Registry) orderedLocked() []*Record {
	entries := make([]entry, 0, len(r.records))
	for _, e := range r.records {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})

	recs := make([]*Record, len(entries))
	for i, e := range entries {
		recs[i] = e.rec
	}
	return recs
}
