package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/bootstrap"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
)

const publishTimeout = 5 * time.Second

// openPublisher connects to the broker when it is enabled. An unreachable
// broker downgrades to a no-op publisher; the database work still counts.
func (r *runtime) openPublisher() events.Publisher {
	pub, client, err := bootstrap.InitPublisher(&r.cfg.RabbitMQ, r.logger.Logger)
	if err != nil {
		r.logger.Warn("RabbitMQ unavailable, job events will not be published",
			slog.String("error", err.Error()),
		)
		return events.NopPublisher{}
	}
	r.broker = client
	return pub
}

// announceCreated publishes job.created for every posting and returns how
// many were accepted by the publisher. Failures are logged and skipped.
func announceCreated(ctx context.Context, pub events.Publisher, logger *slog.Logger, source events.Source, details map[string]string, jobs ...domain.JobPosting) int {
	published := 0
	for _, job := range jobs {
		event := events.NewJobEvent(job.ID, events.TypeJobCreated, source, details)

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := pub.Publish(pubCtx, event)
		cancel()

		if err != nil {
			logger.Warn("Failed to publish job event",
				slog.String("event_id", event.EventID),
				slog.String("job_id", job.ID),
				slog.String("type", string(event.Type)),
				slog.String("error", err.Error()),
			)
			continue
		}
		published++
	}
	return published
}
