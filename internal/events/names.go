package events

// Name returns the wire name of ev, shared by the SSE stream and the NATS
// subjects. Unknown events return an empty string.
func Name(ev Event) string {
	switch ev.(type) {
	case DeviceLifecycleEvent:
		return "device-lifecycle"
	case StreamStateChangedEvent:
		return "stream-state-changed"
	case FormatChangedEvent:
		return "format-changed"
	case ControlChangedEvent:
		return "control-changed"
	case SessionOpenedEvent:
		return "session-opened"
	case SessionClosedEvent:
		return "session-closed"
	case LogEntryEvent:
		return "log-entry"
	}
	return ""
}
