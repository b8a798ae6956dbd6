package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for select-loop
// consumers such as the SSE handler. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAll forwards every sensor event type into ch and returns one
// function that removes all of the subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any, withLogs bool) func() {
	unsubs := []func(){
		SubscribeToChannel[DeviceLifecycleEvent](bus, ch),
		SubscribeToChannel[StreamStateChangedEvent](bus, ch),
		SubscribeToChannel[FormatChangedEvent](bus, ch),
		SubscribeToChannel[ControlChangedEvent](bus, ch),
		SubscribeToChannel[SessionOpenedEvent](bus, ch),
		SubscribeToChannel[SessionClosedEvent](bus, ch),
	}
	if withLogs {
		unsubs = append(unsubs, SubscribeToChannel[LogEntryEvent](bus, ch))
	}
	return func() {
		for _, fn := range unsubs {
			fn()
		}
	}
}
