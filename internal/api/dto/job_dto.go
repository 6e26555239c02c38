package dto

import (
	"strings"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
)

// CreateJobRequest is the manual-entry form. Requirements and benefits
// arrive either as newline-delimited text or as arrays. Status and
// applicant count are accepted but ignored.
type CreateJobRequest struct {
	Title          string                  `json:"title"`
	Company        string                  `json:"company"`
	Location       string                  `json:"location"`
	Salary         string                  `json:"salary"`
	Description    string                  `json:"description"`
	Requirements   domain.StringOrSequence `json:"requirements"`
	Benefits       domain.StringOrSequence `json:"benefits"`
	Status         string                  `json:"status,omitempty"`
	ApplicantCount *int                    `json:"applicantCount,omitempty"`
}

// Validate reports the first missing required field in form order
func (r *CreateJobRequest) Validate() error {
	checks := []struct {
		name    string
		missing bool
	}{
		{"title", strings.TrimSpace(r.Title) == ""},
		{"company", strings.TrimSpace(r.Company) == ""},
		{"location", strings.TrimSpace(r.Location) == ""},
		{"description", strings.TrimSpace(r.Description) == ""},
		{"requirements", r.Requirements.IsZero()},
		{"benefits", r.Benefits.IsZero()},
	}
	for _, c := range checks {
		if c.missing {
			return &domain.MissingFieldError{Field: c.name}
		}
	}
	return nil
}

// ToDomain normalizes the request into an unsaved posting
func (r *CreateJobRequest) ToDomain() domain.JobPosting {
	return domain.JobPosting{
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.Company),
		Location:     strings.TrimSpace(r.Location),
		Salary:       strings.TrimSpace(r.Salary),
		Description:  strings.TrimSpace(r.Description),
		Requirements: r.Requirements.Slice(),
		Benefits:     r.Benefits.Slice(),
	}
}

// UpdateJobRequest is a partial edit; omitted fields are left untouched
type UpdateJobRequest struct {
	Title        *string                  `json:"title"`
	Company      *string                  `json:"company"`
	Location     *string                  `json:"location"`
	Salary       *string                  `json:"salary"`
	Description  *string                  `json:"description"`
	Requirements *domain.StringOrSequence `json:"requirements"`
	Benefits     *domain.StringOrSequence `json:"benefits"`
	Status       *string                  `json:"status"`
}

// ToPatch converts the request, rejecting unknown status values
func (r *UpdateJobRequest) ToPatch() (domain.JobPatch, error) {
	patch := domain.JobPatch{
		Title:       trimmed(r.Title),
		Company:     trimmed(r.Company),
		Location:    trimmed(r.Location),
		Salary:      trimmed(r.Salary),
		Description: trimmed(r.Description),
	}
	if r.Requirements != nil {
		items := r.Requirements.Slice()
		patch.Requirements = &items
	}
	if r.Benefits != nil {
		items := r.Benefits.Slice()
		patch.Benefits = &items
	}
	if r.Status != nil {
		status, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return domain.JobPatch{}, err
		}
		patch.Status = &status
	}
	return patch, patch.Validate()
}

// ChangedFields names the fields present in the request, in form order
func (r *UpdateJobRequest) ChangedFields() []string {
	present := []struct {
		name string
		set  bool
	}{
		{"title", r.Title != nil},
		{"company", r.Company != nil},
		{"location", r.Location != nil},
		{"salary", r.Salary != nil},
		{"description", r.Description != nil},
		{"requirements", r.Requirements != nil},
		{"benefits", r.Benefits != nil},
		{"status", r.Status != nil},
	}

	var fields []string
	for _, p := range present {
		if p.set {
			fields = append(fields, p.name)
		}
	}
	return fields
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// JobDTO is the wire shape of a posting. Timestamps are ISO-8601.
type JobDTO struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Salary         string   `json:"salary"`
	Description    string   `json:"description"`
	Requirements   []string `json:"requirements"`
	Benefits       []string `json:"benefits"`
	Status         string   `json:"status"`
	CreatedAt      string   `json:"createdAt"`
	ApplicantCount int      `json:"applicantCount"`
}

func NewJobDTO(job *domain.JobPosting) JobDTO {
	return JobDTO{
		ID:             job.ID,
		Title:          job.Title,
		Company:        job.Company,
		Location:       job.Location,
		Salary:         job.Salary,
		Description:    job.Description,
		Requirements:   nonNil(job.Requirements),
		Benefits:       nonNil(job.Benefits),
		Status:         string(job.Status),
		CreatedAt:      job.CreatedAt.UTC().Format(time.RFC3339Nano),
		ApplicantCount: job.ApplicantCount,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// JobResponse wraps a single posting after a mutation
type JobResponse struct {
	Message string `json:"message"`
	Job     JobDTO `json:"job"`
}

type StatsResponse struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Closed          int `json:"closed"`
	TotalApplicants int `json:"totalApplicants"`
}

type JobEventDTO struct {
	EventID    string            `json:"eventId"`
	JobID      string            `json:"jobId"`
	Type       string            `json:"type"`
	Source     string            `json:"source"`
	OccurredAt string            `json:"occurredAt"`
	Details    map[string]string `json:"details,omitempty"`
}

func NewJobEventDTO(ev events.JobEvent) JobEventDTO {
	return JobEventDTO{
		EventID:    ev.EventID,
		JobID:      ev.JobID,
		Type:       string(ev.Type),
		Source:     string(ev.Source),
		OccurredAt: ev.OccurredAt.UTC().Format(time.RFC3339Nano),
		Details:    ev.Details,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}
