package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges callback subscriptions to a channel for
// consumers running a select loop. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- T) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// ForwardToChannel is SubscribeToChannel for a channel shared by several
// event types, as used by the SSE stream.
func ForwardToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
