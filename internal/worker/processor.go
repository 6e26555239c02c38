package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/worker/domain"
)

// processEvent writes the event to the audit table. A duplicate counts as
// success so redelivered messages are acknowledged instead of looping.
func (w *Worker) processEvent(ctx context.Context, msg *domain.EventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, w.eventTimeout)
	defer cancel()

	err := w.recorder.InsertJobEvent(ctx, msg.Event)
	switch {
	case err == nil:
		w.logger.Info("Job event processed",
			slog.String("event_id", msg.Event.EventID),
			slog.String("type", string(msg.Event.Type)),
			slog.Bool("redelivered", msg.Delivery.Redelivered),
		)
		return nil
	case errors.Is(err, domain.ErrDuplicateEvent):
		return nil
	default:
		return domain.NewRetryableError(msg.Event.EventID, err)
	}
}
