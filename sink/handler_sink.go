package sink

import (
	"context"
	"huddle/domain/event"
)

// HandlerSink lets a synchronous event.Handler sit in the fan-out.
type HandlerSink struct {
	handler event.Handler
}

func NewHandlerSink(handler event.Handler) HandlerSink {
	return HandlerSink{handler: handler}
}

func (h HandlerSink) Consume(_ context.Context, e event.DomainEvent) error {
	h.handler.Handle(e)
	return nil
}
