package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard/shared/rabbitmq"
)

// Publisher announces job mutations
type Publisher interface {
	Publish(ctx context.Context, event JobEvent) error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg rabbitmq.Message) error
}

// RabbitPublisher sends events as persistent JSON messages routed by type
type RabbitPublisher struct {
	client messagePublisher
	logger *slog.Logger
}

func NewRabbitPublisher(client messagePublisher, logger *slog.Logger) *RabbitPublisher {
	return &RabbitPublisher{client: client, logger: logger}
}

func (p *RabbitPublisher) Publish(ctx context.Context, event JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	err = p.client.Publish(ctx, rabbitmq.Message{
		RoutingKey:  string(event.Type),
		MessageID:   event.EventID,
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	p.logger.Debug("Job event published",
		slog.String("event_id", event.EventID),
		slog.String("job_id", event.JobID),
		slog.String("type", string(event.Type)),
	)
	return nil
}

// NopPublisher drops every event. Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, JobEvent) error { return nil }
