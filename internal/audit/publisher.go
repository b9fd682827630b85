package audit

import (
	"context"
	"errors"

	"spverifier/internal/platform/metrics"
	"spverifier/pkg/requestcontext"
)

// ErrBufferFull is returned when an event is dropped because the worker is behind.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher hands events to the Worker without blocking the request path.
type Publisher struct {
	inbox   chan Event
	metrics *metrics.Metrics
}

func NewPublisher(buffer int, m *metrics.Metrics) *Publisher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Publisher{inbox: make(chan Event, buffer), metrics: m}
}

// Emit stamps the event with the request time and id and enqueues it.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- base:
		return nil
	default:
		if p.metrics != nil {
			p.metrics.IncrementAuditEventsDropped()
		}
		return ErrBufferFull
	}
}

// Inbox is the channel the Worker drains.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
