package domain

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a job posting
type Status string

// Job posting status values
const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// DefaultLocation is used whenever a posting has no resolvable location
const DefaultLocation = "Remote"

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusClosed
}

// ParseStatus converts a raw status string, rejecting anything but active/closed
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// JobPosting is the persisted job record
type JobPosting struct {
	ID             string
	Title          string
	Company        string
	Location       string
	Salary         string
	Description    string
	Requirements   []string
	Benefits       []string
	Status         Status
	CreatedAt      time.Time
	ApplicantCount int
}

// Validate checks the per-record invariants that must hold at persistence time
func (j *JobPosting) Validate() error {
	switch {
	case strings.TrimSpace(j.Title) == "":
		return &MissingFieldError{Field: "title"}
	case strings.TrimSpace(j.Company) == "":
		return &MissingFieldError{Field: "company"}
	case strings.TrimSpace(j.Description) == "":
		return &MissingFieldError{Field: "description"}
	case strings.TrimSpace(j.Location) == "":
		return &MissingFieldError{Field: "location"}
	}
	if j.Status != "" && !j.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// JobPatch holds a partial update. Nil fields are left untouched.
type JobPatch struct {
	Title        *string
	Company      *string
	Location     *string
	Salary       *string
	Description  *string
	Requirements *[]string
	Benefits     *[]string
	Status       *Status
}

// IsEmpty reports whether the patch changes nothing
func (p JobPatch) IsEmpty() bool {
	return p.Title == nil && p.Company == nil && p.Location == nil && p.Salary == nil &&
		p.Description == nil && p.Requirements == nil && p.Benefits == nil && p.Status == nil
}

// Validate applies per-field constraints only; cross-field invariants are not re-checked
func (p JobPatch) Validate() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", p.Title},
		{"company", p.Company},
		{"location", p.Location},
		{"description", p.Description},
	}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// JobFilter narrows a listing. A zero filter returns every posting.
type JobFilter struct {
	Status Status
	// Limit caps the page size; zero means no limit
	Limit int
	After *JobCursor
}

// JobCursor is the position of the last posting on the previous page
type JobCursor struct {
	CreatedAt time.Time
	ID        string
}

// JobStats summarizes the postings for the dashboard
type JobStats struct {
	Total           int `db:"total"`
	Active          int `db:"active"`
	Closed          int `db:"closed"`
	TotalApplicants int `db:"total_applicants"`
}

// ExtractionResult is the model's structured output before defaulting.
// Any field may be empty.
type ExtractionResult struct {
	Title        string
	Company      string
	Location     string
	Salary       string
	Description  string
	Requirements []string
	Benefits     []string
}

// ApplyDefaults fills the location fallback and reports whether it was needed
func (r *ExtractionResult) ApplyDefaults() bool {
	if strings.TrimSpace(r.Location) != "" {
		return false
	}
	r.Location = DefaultLocation
	return true
}

// ToJobPosting converts the result into an unsaved posting
func (r ExtractionResult) ToJobPosting() JobPosting {
	return JobPosting{
		Title:        strings.TrimSpace(r.Title),
		Company:      strings.TrimSpace(r.Company),
		Location:     strings.TrimSpace(r.Location),
		Salary:       strings.TrimSpace(r.Salary),
		Description:  strings.TrimSpace(r.Description),
		Requirements: nonNil(r.Requirements),
		Benefits:     nonNil(r.Benefits),
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
