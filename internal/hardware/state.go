package hardware

// State represents the lifecycle state of a device record.
type State string

// Record states.
const (
	StateUnconfigured State = "unconfigured" // Created, no platform stream yet
	StateOpen         State = "open"         // Platform stream attached
	StateClosed       State = "closed"       // Stream dropped and released
)

// BackendKind names the platform backend behind a handle.
type BackendKind string

// Known backends.
const (
	BackendALSA BackendKind = "alsa"
	BackendNull BackendKind = "null"
)
