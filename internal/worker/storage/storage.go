package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// InsertJobEvent records ev once. A second delivery of the same event ID
// returns domain.ErrDuplicateEvent and leaves the table untouched.
func (s *Storage) InsertJobEvent(ctx context.Context, ev events.JobEvent) error {
	details := []byte("{}")
	if len(ev.Details) > 0 {
		var err error
		details, err = json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal event details: %w", err)
		}
	}

	query := `
		INSERT INTO job_events (event_id, job_id, event_type, source, occurred_at, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		ev.EventID,
		ev.JobID,
		string(ev.Type),
		string(ev.Source),
		ev.OccurredAt,
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job event already recorded",
			slog.String("event_id", ev.EventID),
			slog.String("job_id", ev.JobID),
		)
		return domain.ErrDuplicateEvent
	}

	s.logger.Info("Job event recorded",
		slog.String("event_id", ev.EventID),
		slog.String("job_id", ev.JobID),
		slog.String("type", string(ev.Type)),
	)
	return nil
}
