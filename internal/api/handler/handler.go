package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/ingest"
	"github.com/cuongbtq/jobboard/internal/pdftext"
)

// JobStore is the persistence surface the HTTP handlers need
type JobStore interface {
	CreateJob(ctx context.Context, job domain.JobPosting) (*domain.JobPosting, error)
	GetJobByID(ctx context.Context, id string) (*domain.JobPosting, error)
	ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error)
	UpdateJob(ctx context.Context, id string, patch domain.JobPatch) (*domain.JobPosting, error)
	SetStatus(ctx context.Context, id string, status domain.Status) (*domain.JobPosting, error)
	DeleteJob(ctx context.Context, id string) error
	Stats(ctx context.Context) (*domain.JobStats, error)
	ListJobEvents(ctx context.Context, jobID string) ([]events.JobEvent, error)
}

// Ingester runs the PDF ingestion pipeline
type Ingester interface {
	Run(ctx context.Context, upload ingest.Upload) (*domain.JobPosting, error)
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Store         JobStore
	Ingester      Ingester
	Publisher     events.Publisher
	Health        HealthChecker
	MaxUploadSize int64
	ServiceName   string
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger        *slog.Logger
	store         JobStore
	ingester      Ingester
	publisher     events.Publisher
	maxUploadSize int64
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	maxUploadSize := deps.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = pdftext.MaxFileSize
	}

	return &JobHandler{
		logger:        deps.Logger,
		store:         deps.Store,
		ingester:      deps.Ingester,
		publisher:     publisher,
		maxUploadSize: maxUploadSize,
	}
}
