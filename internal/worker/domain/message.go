package domain

import (
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// EventMessage is one decoded delivery travelling from the dispatcher to the pool
type EventMessage struct {
	Event    events.JobEvent
	Delivery amqp.Delivery
}

// DecodeEvent parses and checks a delivery body. Every failure wraps
// ErrInvalidEvent, since redelivering the same bytes cannot fix it.
func DecodeEvent(body []byte) (events.JobEvent, error) {
	var ev events.JobEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return events.JobEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	if _, err := uuid.Parse(ev.EventID); err != nil {
		return events.JobEvent{}, fmt.Errorf("%w: event_id: %v", ErrInvalidEvent, err)
	}
	if _, err := uuid.Parse(ev.JobID); err != nil {
		return events.JobEvent{}, fmt.Errorf("%w: job_id: %v", ErrInvalidEvent, err)
	}
	if !ev.Type.Valid() {
		return events.JobEvent{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, ev.Type)
	}
	if ev.OccurredAt.IsZero() {
		return events.JobEvent{}, fmt.Errorf("%w: missing occurred_at", ErrInvalidEvent)
	}

	return ev, nil
}
