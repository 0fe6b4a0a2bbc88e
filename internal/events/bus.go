package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Handlers run asynchronously on the dispatcher's goroutines.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers. A nil bus drops the event.
// Usage: bus.Publish(DiagnosticEvent{...})
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case DeviceOpenedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceOpenFailedEvent:
		event.Publish(b.dispatcher, e)
	case DeviceClosedEvent:
		event.Publish(b.dispatcher, e)
	case DiagnosticEvent:
		event.Publish(b.dispatcher, e)
	case ConfigReloadedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e DiagnosticEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(DeviceOpenedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceOpenFailedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DeviceClosedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(DiagnosticEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ConfigReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Close stops the dispatcher.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
