// Package ingest turns an uploaded PDF into a persisted job posting.
//
// A run moves strictly forward through text extraction, relevance
// classification, structured extraction, defaulting and persistence. Every
// failure ends the run with exactly one *Error. Nothing is written before the
// final step, so an aborted run leaves no partial record behind.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/llm"
	"github.com/cuongbtq/jobboard/internal/pdftext"
)

// DefaultTimeout bounds a whole run
const DefaultTimeout = 60 * time.Second

type TextExtractor interface {
	Validate(contentType string, size int64, data []byte) error
	Extract(ctx context.Context, data []byte) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (llm.Verdict, error)
}

type StructuredExtractor interface {
	Extract(ctx context.Context, text, modelHint string) (*domain.ExtractionResult, error)
}

type Store interface {
	CreateJob(ctx context.Context, job domain.JobPosting) (*domain.JobPosting, error)
}

// Upload is one inbound document
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
	ModelHint   string
}

type Config struct {
	Logger     *slog.Logger
	Text       TextExtractor
	Classifier Classifier
	Extractor  StructuredExtractor
	Store      Store
	Timeout    time.Duration
}

type Pipeline struct {
	logger     *slog.Logger
	text       TextExtractor
	classifier Classifier
	extractor  StructuredExtractor
	store      Store
	timeout    time.Duration
}

// NewPipeline wires the stages. Classifier may be nil, which skips the
// relevance check entirely.
func NewPipeline(cfg *Config) *Pipeline {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		logger:     logger,
		text:       cfg.Text,
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		store:      cfg.Store,
		timeout:    timeout,
	}
}

// ShouldProceed is the classifier policy: a failed classification counts
// as a pass, and only an explicit NO blocks the run.
func ShouldProceed(verdict llm.Verdict, err error) bool {
	return err != nil || verdict == llm.VerdictYes
}

// Run executes the pipeline. The returned error is always an *Error.
func (p *Pipeline) Run(ctx context.Context, upload Upload) (*domain.JobPosting, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	logger := p.logger.With(
		slog.String("filename", upload.Filename),
		slog.Int64("size", upload.Size),
		slog.String("model_hint", upload.ModelHint),
	)

	job, err := p.run(ctx, logger, upload)
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			logger.Warn("Ingestion failed",
				slog.String("kind", string(ie.Kind)),
				slog.String("error", err.Error()),
				slog.Duration("elapsed", time.Since(start)),
			)
			logger.Debug("Ingestion failure stack", slog.String("stack", string(ie.Stack)))
		}
		return nil, err
	}

	logger.Info("Ingestion completed",
		slog.String("job_id", job.ID),
		slog.Duration("elapsed", time.Since(start)),
	)
	return job, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, upload Upload) (*domain.JobPosting, error) {
	// Received -> TextExtracted
	stageStart := time.Now()
	if err := p.text.Validate(upload.ContentType, upload.Size, upload.Data); err != nil {
		return nil, validationFailure(err)
	}

	text, err := p.text.Extract(ctx, upload.Data)
	if err != nil {
		if ctxErr := contextFailure(ctx, err); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, extractionError(http.StatusBadRequest, MsgInsufficientText, err)
	}
	logStage(logger, "text_extracted", stageStart, slog.Int("text_length", len(text)))

	// TextExtracted -> Classified
	if p.classifier != nil {
		stageStart = time.Now()
		verdict, err := p.classifier.Classify(ctx, text)
		if !ShouldProceed(verdict, err) {
			return nil, rejectedContentError()
		}
		if err != nil {
			logger.Warn("Classification failed, continuing",
				slog.String("stage", "classified"),
				slog.String("error", err.Error()),
			)
		}
		logStage(logger, "classified", stageStart, slog.String("verdict", verdict.String()), slog.Bool("skipped", err != nil))
	}

	// Classified -> StructuredExtracted
	stageStart = time.Now()
	result, err := p.extractor.Extract(ctx, text, upload.ModelHint)
	if err != nil {
		return nil, structuredFailure(ctx, err)
	}
	logStage(logger, "structured_extracted", stageStart,
		slog.String("title", result.Title),
		slog.String("company", result.Company),
	)

	// StructuredExtracted -> Defaulted
	if result.ApplyDefaults() {
		logger.Info("Location not detected, defaulting", slog.String("location", domain.DefaultLocation))
	}

	// Defaulted -> Persisted
	if err := ctx.Err(); err != nil {
		return nil, timeoutError(err)
	}

	stageStart = time.Now()
	job, err := p.store.CreateJob(ctx, result.ToJobPosting())
	if err != nil {
		if ctxErr := contextFailure(ctx, err); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, persistenceError(err)
	}
	logStage(logger, "persisted", stageStart, slog.String("job_id", job.ID))

	return job, nil
}

func logStage(logger *slog.Logger, stage string, started time.Time, attrs ...any) {
	args := append([]any{slog.String("stage", stage), slog.Duration("elapsed", time.Since(started))}, attrs...)
	logger.Info("Ingestion stage completed", args...)
}

func validationFailure(err error) *Error {
	switch {
	case errors.Is(err, pdftext.ErrNoFile):
		return validationError(MsgNoFile, err)
	case errors.Is(err, pdftext.ErrTooLarge):
		return validationError(MsgTooLarge, err)
	case errors.Is(err, pdftext.ErrNotPDF):
		return validationError(MsgNotPDF, err)
	default:
		return validationError(MsgNotPDF, fmt.Errorf("unrecognized validation failure: %w", err))
	}
}

func structuredFailure(ctx context.Context, err error) *Error {
	if ctxErr := contextFailure(ctx, err); ctxErr != nil {
		return ctxErr
	}

	switch {
	case errors.Is(err, llm.ErrServiceUnavailable):
		return serviceUnavailableError(err)
	case errors.Is(err, llm.ErrMissingTitle):
		return extractionError(http.StatusBadRequest, MsgMissingTitle, err)
	case errors.Is(err, llm.ErrMissingCompany):
		return extractionError(http.StatusBadRequest, MsgMissingCompany, err)
	default:
		return extractionError(http.StatusInternalServerError, MsgAnalysisFailed, err)
	}
}

// contextFailure reports a timeout when the run's deadline or the caller's
// cancellation caused err
func contextFailure(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		if ctx.Err() != nil {
			return timeoutError(ctx.Err())
		}
		return timeoutError(err)
	}
	return nil
}
