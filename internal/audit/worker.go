package audit

import (
	"context"
	"log/slog"
)

// Sink persists or forwards audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and writes them to a Sink. A
// failing sink is logged and never stops the worker.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run blocks until ctx is cancelled, then flushes whatever is still buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.write(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.write(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) write(ctx context.Context, event Event) {
	if err := w.sink.Write(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to write audit event",
			"action", event.Action,
			"transaction_id", event.TransactionID,
			"error", err,
		)
	}
}
