package audit

import (
	"context"
	"log/slog"
)

// Sink receives persisted entries for export, e.g. to Kafka. A nil sink is
// valid and means local persistence only.
type Sink interface {
	Export(ctx context.Context, entry Entry)
}

// Worker consumes audit events from the publisher's channel and persists
// them. Running appends through one goroutine keeps the checksum chain
// strictly ordered.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, sink: sink, inbox: inbox, logger: logger}
}

// Run processes events until ctx is cancelled. Store failures are logged
// and skipped; the audit log is best-effort by design.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			entry, err := w.store.Append(ctx, event)
			if err != nil {
				w.logger.ErrorContext(ctx, "failed to append audit entry",
					"action", event.Action,
					"error", err,
				)
				continue
			}
			if w.sink != nil {
				w.sink.Export(ctx, entry)
			}
		}
	}
}
