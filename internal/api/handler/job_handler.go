package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/ingest"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/gin-gonic/gin"
)

const (
	// MaxPageSize caps page_size on the list endpoint
	MaxPageSize = 100

	// multipartOverhead is the body allowance for boundaries and the model field
	multipartOverhead = 1 << 20

	publishTimeout = 5 * time.Second

	msgJobNotFound     = "Job not found"
	msgInvalidBody     = "Invalid request body"
	msgJobCreated      = "Job created successfully"
	msgJobProcessed    = "Job description processed successfully"
	msgJobUpdated      = "Job updated successfully"
	msgJobStatusUpdate = "Job status updated successfully"
)

// CreateJob handles POST /api/v1/jobs
// Creates a posting from the manual-entry form
func (h *JobHandler) CreateJob(c *gin.Context) {
	log := h.requestLogger(c)
	log.Info("CreateJob called")

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidBody})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	job, err := h.store.CreateJob(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.respondError(c, log, err, "Failed to create job")
		return
	}

	h.publish(c, events.NewJobEvent(job.ID, events.TypeJobCreated, events.SourceManual, nil))

	c.JSON(http.StatusOK, dto.JobResponse{
		Message: msgJobCreated,
		Job:     dto.NewJobDTO(job),
	})
}

// UploadJob handles POST /api/v1/jobs/upload
// Runs the PDF ingestion pipeline on the multipart "file" field
func (h *JobHandler) UploadJob(c *gin.Context) {
	log := h.requestLogger(c)
	log.Info("UploadJob called")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)

	var upload ingest.Upload

	// FormFile parses the body first so an oversized request surfaces here
	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		data, readErr := readUpload(fileHeader, h.maxUploadSize)
		if readErr != nil {
			log.Error("Failed to read uploaded file", slog.String("error", readErr.Error()))
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: ingest.MsgNoFile})
			return
		}
		upload.Filename = fileHeader.Filename
		upload.ContentType = fileHeader.Header.Get("Content-Type")
		upload.Size = fileHeader.Size
		upload.Data = data
	case isBodyTooLarge(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: ingest.MsgTooLarge})
		return
	default:
		// a missing file is reported by the pipeline's own validation
		log.Debug("No file in upload", slog.String("error", err.Error()))
	}
	upload.ModelHint = c.PostForm("model")

	job, err := h.ingester.Run(c.Request.Context(), upload)
	if err != nil {
		var ie *ingest.Error
		if errors.As(err, &ie) {
			c.JSON(ie.StatusCode(), dto.ErrorResponse{Error: ie.Message})
			return
		}
		log.Error("Unexpected ingestion failure", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: ingest.MsgProcessingFailed})
		return
	}

	h.publish(c, events.NewJobEvent(job.ID, events.TypeJobCreated, events.SourceUpload, map[string]string{
		"filename":   upload.Filename,
		"model_hint": upload.ModelHint,
	}))

	c.JSON(http.StatusOK, dto.JobResponse{
		Message: msgJobProcessed,
		Job:     dto.NewJobDTO(job),
	})
}

// ListJobs handles GET /api/v1/jobs
// Lists postings newest first with an optional status filter. Without
// page_size every posting is returned.
func (h *JobHandler) ListJobs(c *gin.Context) {
	log := h.requestLogger(c)
	log.Info("ListJobs called", slog.String("query", c.Request.URL.RawQuery))

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		log.Warn("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	var filter domain.JobFilter
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		filter.Status = status
	}

	if req.PageSize < 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "page_size must not be negative"})
		return
	}
	filter.Limit = min(req.PageSize, MaxPageSize)

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		log.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid cursor"})
		return
	}
	filter.After = cursor

	jobs, err := h.store.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, log, err, "Failed to list jobs")
		return
	}

	hasMore := filter.Limit > 0 && len(jobs) > filter.Limit
	if hasMore {
		jobs = jobs[:filter.Limit]
	}

	resp := dto.ListJobsResponse{Jobs: make([]dto.JobDTO, len(jobs))}
	for i := range jobs {
		resp.Jobs[i] = dto.NewJobDTO(&jobs[i])
	}

	if hasMore {
		last := jobs[len(jobs)-1]
		resp.NextCursor = EncodeJobCursor(&domain.JobCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	c.JSON(http.StatusOK, resp)
}

// GetJob handles GET /api/v1/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	log := h.requestLogger(c).With(slog.String("job_id", jobID))
	log.Info("GetJob called")

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, log, err, "Failed to get job")
		return
	}

	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// UpdateJob handles PATCH /api/v1/jobs/:id
// Applies a partial edit; omitted fields keep their values
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID := c.Param("id")
	log := h.requestLogger(c).With(slog.String("job_id", jobID))
	log.Info("UpdateJob called")

	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msgInvalidBody})
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		h.respondError(c, log, err, msgInvalidBody)
		return
	}

	job, err := h.store.UpdateJob(c.Request.Context(), jobID, patch)
	if err != nil {
		h.respondError(c, log, err, "Failed to update job")
		return
	}

	if fields := req.ChangedFields(); len(fields) > 0 {
		h.publish(c, events.NewJobEvent(job.ID, events.TypeJobUpdated, events.SourceManual, map[string]string{
			"fields": strings.Join(fields, ","),
		}))
	}

	c.JSON(http.StatusOK, dto.JobResponse{
		Message: msgJobUpdated,
		Job:     dto.NewJobDTO(job),
	})
}

// CloseJob handles POST /api/v1/jobs/:id/close
func (h *JobHandler) CloseJob(c *gin.Context) {
	h.setStatus(c, domain.StatusClosed)
}

// ReopenJob handles POST /api/v1/jobs/:id/reopen
func (h *JobHandler) ReopenJob(c *gin.Context) {
	h.setStatus(c, domain.StatusActive)
}

func (h *JobHandler) setStatus(c *gin.Context, status domain.Status) {
	jobID := c.Param("id")
	log := h.requestLogger(c).With(slog.String("job_id", jobID), slog.String("status", string(status)))
	log.Info("SetStatus called")

	job, err := h.store.SetStatus(c.Request.Context(), jobID, status)
	if err != nil {
		h.respondError(c, log, err, "Failed to update job status")
		return
	}

	h.publish(c, events.NewJobEvent(job.ID, events.TypeJobStatusChanged, events.SourceManual, map[string]string{
		"status": string(status),
	}))

	c.JSON(http.StatusOK, dto.JobResponse{
		Message: msgJobStatusUpdate,
		Job:     dto.NewJobDTO(job),
	})
}

// DeleteJob handles DELETE /api/v1/jobs/:id
// Permanently deletes a posting
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID := c.Param("id")
	log := h.requestLogger(c).With(slog.String("job_id", jobID))
	log.Info("DeleteJob called")

	if err := h.store.DeleteJob(c.Request.Context(), jobID); err != nil {
		h.respondError(c, log, err, "Failed to delete job")
		return
	}

	h.publish(c, events.NewJobEvent(jobID, events.TypeJobDeleted, events.SourceManual, nil))

	c.Status(http.StatusNoContent)
}

// ListJobEvents handles GET /api/v1/jobs/:id/events
// Returns the recorded audit trail, oldest first. History outlives the
// posting, so a deleted job still answers as long as events exist.
func (h *JobHandler) ListJobEvents(c *gin.Context) {
	jobID := c.Param("id")
	log := h.requestLogger(c).With(slog.String("job_id", jobID))
	log.Info("ListJobEvents called")

	list, err := h.store.ListJobEvents(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, log, err, "Failed to list job events")
		return
	}

	if len(list) == 0 {
		if _, err := h.store.GetJobByID(c.Request.Context(), jobID); err != nil {
			h.respondError(c, log, err, "Failed to list job events")
			return
		}
	}

	resp := make([]dto.JobEventDTO, len(list))
	for i, ev := range list {
		resp[i] = dto.NewJobEventDTO(ev)
	}

	c.JSON(http.StatusOK, gin.H{"events": resp})
}

// DashboardStats handles GET /api/v1/dashboard/stats
func (h *JobHandler) DashboardStats(c *gin.Context) {
	log := h.requestLogger(c)
	log.Info("DashboardStats called")

	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, log, err, "Failed to load dashboard stats")
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Total:           stats.Total,
		Active:          stats.Active,
		Closed:          stats.Closed,
		TotalApplicants: stats.TotalApplicants,
	})
}

// respondError maps domain errors to client errors and hides everything else
// behind fallback
func (h *JobHandler) respondError(c *gin.Context, log *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: msgJobNotFound})
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		log.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: fallback})
	}
}

// publish is best-effort. The mutation is already committed, so a broker
// failure is logged and never changes the response.
func (h *JobHandler) publish(c *gin.Context, event events.JobEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, event); err != nil {
		h.requestLogger(c).Warn("Failed to publish job event",
			slog.String("event_id", event.EventID),
			slog.String("job_id", event.JobID),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
	}
}

func (h *JobHandler) requestLogger(c *gin.Context) *slog.Logger {
	return h.logger.With(
		slog.String("request_id", logger.RequestID(c.Request.Context())),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// one byte past the limit is enough for the size check to fail
	return io.ReadAll(io.LimitReader(f, limit+1))
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
