package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a job posting
type Type string

const (
	TypeJobCreated       Type = "job.created"
	TypeJobUpdated       Type = "job.updated"
	TypeJobStatusChanged Type = "job.status_changed"
	TypeJobDeleted       Type = "job.deleted"
)

// Valid reports whether t is a known event type
func (t Type) Valid() bool {
	switch t {
	case TypeJobCreated, TypeJobUpdated, TypeJobStatusChanged, TypeJobDeleted:
		return true
	}
	return false
}

// Source records which path produced the change
type Source string

const (
	SourceManual Source = "manual"
	SourceUpload Source = "upload"
	SourceSeed   Source = "seed"
)

// JobEvent is the message published after every successful job mutation
type JobEvent struct {
	EventID    string            `json:"event_id"`
	JobID      string            `json:"job_id"`
	Type       Type              `json:"type"`
	Source     Source            `json:"source"`
	OccurredAt time.Time         `json:"occurred_at"`
	Details    map[string]string `json:"details,omitempty"`
}

// NewJobEvent stamps a fresh event ID and the current time
func NewJobEvent(jobID string, eventType Type, source Source, details map[string]string) JobEvent {
	return JobEvent{
		EventID:    uuid.New().String(),
		JobID:      jobID,
		Type:       eventType,
		Source:     source,
		OccurredAt: time.Now().UTC(),
		Details:    details,
	}
}
