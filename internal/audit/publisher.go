package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "veriseal_audit_events_dropped_total",
	Help: "Audit events dropped because the publisher buffer was full",
})

// Publisher captures structured audit events on a bounded channel so the
// request path never blocks on the sink. A full buffer drops the event and
// counts it; audit here is an observability trail, not a ledger with
// delivery guarantees.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPublisher constructs a Publisher with the given buffer size.
func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event, filling in ID and timestamp when absent.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"identifier", event.Identifier,
		)
	}
	return nil
}

// Inbox exposes the event channel for the draining worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
