package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/sensorsim/internal/events"
)

// eventTypes maps SSE event names to the payloads sent under them.
func eventTypes() map[string]any {
	types := make(map[string]any)
	for _, ev := range []events.Event{
		events.DeviceLifecycleEvent{},
		events.StreamStateChangedEvent{},
		events.FormatChangedEvent{},
		events.ControlChangedEvent{},
		events.SessionOpenedEvent{},
		events.SessionClosedEvent{},
		events.LogEntryEvent{},
	} {
		types[events.Name(ev)] = ev
	}
	return types
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time sensor events: lifecycle, streaming, format, control and session changes. " +
			"The first message is the current streaming state.",
		Tags:     []string{"events"},
		Security: withAuth(),
		Errors:   []int{401},
	}, eventTypes(), func(ctx context.Context, input *struct {
		Logs bool `query:"logs" doc:"Also stream log entries"`
	}, send sse.Sender) {
		if s.eventBus == nil {
			return
		}

		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeAll(s.eventBus, eventCh, input.Logs)
		defer unsubscribe()

		info := s.sensor.Info(ctx)
		if err := send.Data(events.StreamStateChangedEvent{
			Device:    info.Name,
			Streaming: info.Streaming,
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
