package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher channel and hands them to
// a sink. Sink failures are logged and skipped so one bad event cannot stall
// the trail.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker constructs a Worker draining inbox into sink.
func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					slog.String("action", event.Action),
					slog.String("event_id", event.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
