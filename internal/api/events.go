package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/soundnode/internal/events"
)

// streamConnected is the first event on every SSE connection.
type streamConnected struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// registerSSERoutes registers the device lifecycle and diagnostics stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of device open/close events and playback diagnostics",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"connected":          streamConnected{},
		"device-opened":      events.DeviceOpenedEvent{},
		"device-open-failed": events.DeviceOpenFailedEvent{},
		"device-closed":      events.DeviceClosedEvent{},
		"diagnostic":         events.DiagnosticEvent{},
		"config-reloaded":    events.ConfigReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 64)

		unsubscribers := []func(){
			events.ForwardToChannel[events.DeviceOpenedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.DeviceOpenFailedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.DeviceClosedEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.DiagnosticEvent](s.eventBus, eventCh),
			events.ForwardToChannel[events.ConfigReloadedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(streamConnected{
			Message:   "SSE connection established",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
