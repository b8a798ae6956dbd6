package events

// Event type identifiers for kelindar/event.
const (
	TypeDeviceLifecycle uint32 = iota + 1
	TypeStreamStateChanged
	TypeFormatChanged
	TypeControlChanged
	TypeSessionOpened
	TypeSessionClosed
	TypeLogEntry
)

// Event is the interface kelindar/event dispatches on.
type Event interface {
	Type() uint32
}

// Device lifecycle actions.
const (
	ActionProbed  = "probed"
	ActionBound   = "bound"
	ActionUnbound = "unbound"
	ActionRemoved = "removed"
)

// DeviceLifecycleEvent reports construction, binding and removal of a device.
type DeviceLifecycleEvent struct {
	Device    string `json:"device" example:"ds90ub940" doc:"Device name"`
	Action    string `json:"action" example:"probed" doc:"One of probed, bound, unbound, removed"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for DeviceLifecycleEvent.
func (e DeviceLifecycleEvent) Type() uint32 { return TypeDeviceLifecycle }

// StreamStateChangedEvent is published on every streaming transition.
type StreamStateChangedEvent struct {
	Device    string `json:"device" example:"ds90ub940" doc:"Device name"`
	Streaming bool   `json:"streaming" example:"true" doc:"Whether the device is streaming"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StreamStateChangedEvent.
func (e StreamStateChangedEvent) Type() uint32 { return TypeStreamStateChanged }

// FormatChangedEvent is published when the active format moves to another mode.
type FormatChangedEvent struct {
	Device    string `json:"device" example:"ds90ub940" doc:"Device name"`
	Width     uint32 `json:"width" example:"1920" doc:"Active width"`
	Height    uint32 `json:"height" example:"1200" doc:"Active height"`
	Code      uint32 `json:"code" example:"4115" doc:"Media bus code"`
	CodeName  string `json:"code_name" example:"BGR888_1X24" doc:"Media bus code name"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for FormatChangedEvent.
func (e FormatChangedEvent) Type() uint32 { return TypeFormatChanged }

// ControlChangedEvent is published when a control takes a new value.
type ControlChangedEvent struct {
	Device    string `json:"device" example:"ds90ub940" doc:"Device name"`
	ID        uint32 `json:"id" example:"9963793" doc:"Control id"`
	Name      string `json:"name" example:"exposure" doc:"Control name"`
	Value     int64  `json:"value" example:"1" doc:"New value"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ControlChangedEvent.
func (e ControlChangedEvent) Type() uint32 { return TypeControlChanged }

// SessionOpenedEvent is published when a client opens a negotiation session.
type SessionOpenedEvent struct {
	SessionID string `json:"session_id" example:"0b7c..." doc:"Session identifier"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionOpenedEvent.
func (e SessionOpenedEvent) Type() uint32 { return TypeSessionOpened }

// SessionClosedEvent is published when a session is closed or expires.
type SessionClosedEvent struct {
	SessionID string `json:"session_id" example:"0b7c..." doc:"Session identifier"`
	Reason    string `json:"reason" example:"closed" doc:"closed or expired"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionClosedEvent.
func (e SessionClosedEvent) Type() uint32 { return TypeSessionClosed }

// LogEntryEvent carries one log record to SSE clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number"`
	Timestamp  string         `json:"timestamp" example:"2026-01-27T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"sensor" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
