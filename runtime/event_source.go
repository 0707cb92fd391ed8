package runtime

import "huddle/domain/event"

// EventSource is implemented by stateful objects that buffer the events they produce.
type EventSource interface {
	FlushEvents() []event.DomainEvent
}
