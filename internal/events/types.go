package events

// Event type constants for kelindar/event.
const (
	TypeDeviceOpened uint32 = iota + 1
	TypeDeviceOpenFailed
	TypeDeviceClosed
	TypeDiagnostic
	TypeConfigReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceOpenedEvent is published after a device was opened and registered.
type DeviceOpenedEvent struct {
	DeviceID  int32  `json:"device_id"`
	Device    string `json:"device"`
	Channels  int    `json:"channels"`
	Rate      int    `json:"rate"`
	LatencyUs int    `json:"latency_us"`
	Backend   string `json:"backend"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceOpenedEvent.
func (e DeviceOpenedEvent) Type() uint32 { return TypeDeviceOpened }

// DeviceOpenFailedEvent is published when the platform refused to open a device.
type DeviceOpenFailedEvent struct {
	DeviceID  int32  `json:"device_id"`
	Device    string `json:"device"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceOpenFailedEvent.
func (e DeviceOpenFailedEvent) Type() uint32 { return TypeDeviceOpenFailed }

// DeviceClosedEvent is published after a device was stopped and released.
type DeviceClosedEvent struct {
	DeviceID  int32  `json:"device_id"`
	Device    string `json:"device"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for DeviceClosedEvent.
func (e DeviceClosedEvent) Type() uint32 { return TypeDeviceClosed }

// DiagnosticKind classifies a playback diagnostic.
type DiagnosticKind string

// Diagnostic kinds raised by the write path.
const (
	// DiagBackpressure: the device had no room, the block was discarded.
	DiagBackpressure DiagnosticKind = "backpressure"
	// DiagShortWrite: fewer frames were accepted than submitted.
	DiagShortWrite DiagnosticKind = "short_write"
	// DiagRecovered: a write failed and the stream was recovered.
	DiagRecovered DiagnosticKind = "recovered"
	// DiagWriteFailed: a write failed and recovery failed too.
	DiagWriteFailed DiagnosticKind = "write_failed"
	// DiagNotConfigured: play was called for an identifier with no device.
	DiagNotConfigured DiagnosticKind = "not_configured"
	// DiagPartialFrame: trailing samples did not fill a frame.
	DiagPartialFrame DiagnosticKind = "partial_frame"
)

// DiagnosticEvent reports an anomaly on the write path. Diagnostics never
// change the result returned to the caller beyond the frame count.
type DiagnosticEvent struct {
	DeviceID  int32          `json:"device_id"`
	Kind      DiagnosticKind `json:"kind"`
	Requested int            `json:"requested"`
	Written   int            `json:"written"`
	Error     string         `json:"error,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Type returns the event type identifier for DiagnosticEvent.
func (e DiagnosticEvent) Type() uint32 { return TypeDiagnostic }

// ConfigReloadedEvent is published after the config file was reloaded.
type ConfigReloadedEvent struct {
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }
