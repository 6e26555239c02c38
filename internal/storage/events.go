package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/google/uuid"
)

type eventRow struct {
	EventID    string    `db:"event_id"`
	JobID      string    `db:"job_id"`
	Type       string    `db:"event_type"`
	Source     string    `db:"source"`
	OccurredAt time.Time `db:"occurred_at"`
	Details    []byte    `db:"details"`
}

// ListJobEvents returns the audit trail of a posting, oldest first.
// Events outlive deleted postings, so an unknown job just yields an empty list.
func (s *Storage) ListJobEvents(ctx context.Context, jobID string) ([]events.JobEvent, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, domain.ErrJobNotFound
	}

	query := `
		SELECT event_id, job_id, event_type, source, occurred_at, details
		FROM job_events
		WHERE job_id = $1
		ORDER BY occurred_at ASC, recorded_at ASC
	`

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list job events: %w", err)
	}

	out := make([]events.JobEvent, 0, len(rows))
	for _, row := range rows {
		ev := events.JobEvent{
			EventID:    row.EventID,
			JobID:      row.JobID,
			Type:       events.Type(row.Type),
			Source:     events.Source(row.Source),
			OccurredAt: row.OccurredAt.UTC(),
		}
		if len(row.Details) > 0 {
			if err := json.Unmarshal(row.Details, &ev.Details); err != nil {
				return nil, fmt.Errorf("failed to decode event details: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
