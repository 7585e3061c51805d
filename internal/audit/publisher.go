package audit

import (
	"context"
	"log/slog"

	"namereg/pkg/requestcontext"
)

// Publisher hands events to the background worker over a buffered channel.
// Emit never blocks domain logic: if the buffer is full the event is
// dropped with a log line, because no registration should fail over its
// audit trail.
type Publisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

func NewPublisher(inbox chan<- Event, logger *slog.Logger) *Publisher {
	return &Publisher{inbox: inbox, logger: logger}
}

func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}
