package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const jobColumns = `id, title, company, location, salary, description,
		requirements, benefits, status, created_at, applicant_count`

type jobRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Company        string         `db:"company"`
	Location       string         `db:"location"`
	Salary         string         `db:"salary"`
	Description    string         `db:"description"`
	Requirements   pq.StringArray `db:"requirements"`
	Benefits       pq.StringArray `db:"benefits"`
	Status         string         `db:"status"`
	CreatedAt      time.Time      `db:"created_at"`
	ApplicantCount int            `db:"applicant_count"`
}

func (r jobRow) toDomain() *domain.JobPosting {
	return &domain.JobPosting{
		ID:             r.ID,
		Title:          r.Title,
		Company:        r.Company,
		Location:       r.Location,
		Salary:         r.Salary,
		Description:    r.Description,
		Requirements:   nonNil(r.Requirements),
		Benefits:       nonNil(r.Benefits),
		Status:         domain.Status(r.Status),
		CreatedAt:      r.CreatedAt.UTC(),
		ApplicantCount: r.ApplicantCount,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// Storage is the Postgres-backed document store for job postings
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// CreateJob assigns the identifier and creation time, forces the initial
// status and applicant count, and inserts the posting.
func (s *Storage) CreateJob(ctx context.Context, job domain.JobPosting) (*domain.JobPosting, error) {
	job.ID = uuid.New().String()
	job.Status = domain.StatusActive
	job.ApplicantCount = 0
	job.CreatedAt = s.now().UTC().Truncate(time.Microsecond)

	if err := s.InsertJob(ctx, &job); err != nil {
		return nil, err
	}

	s.logger.Info("Job posting created",
		slog.String("job_id", job.ID),
		slog.String("title", job.Title),
		slog.String("company", job.Company),
	)

	return &job, nil
}

// InsertJob writes the posting exactly as given. Only seeding calls it directly.
func (s *Storage) InsertJob(ctx context.Context, job *domain.JobPosting) error {
	if err := job.Validate(); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = domain.StatusActive
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now().UTC().Truncate(time.Microsecond)
	}
	job.Requirements = nonNil(job.Requirements)
	job.Benefits = nonNil(job.Benefits)

	query := `
		INSERT INTO job_postings (
			id, title, company, location, salary, description,
			requirements, benefits, status, created_at, applicant_count
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.Title,
		job.Company,
		job.Location,
		job.Salary,
		job.Description,
		pq.StringArray(job.Requirements),
		pq.StringArray(job.Benefits),
		string(job.Status),
		job.CreatedAt,
		job.ApplicantCount,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJobByID returns domain.ErrJobNotFound for unknown or malformed identifiers
func (s *Storage) GetJobByID(ctx context.Context, id string) (*domain.JobPosting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrJobNotFound
	}

	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM job_postings WHERE id = $1`

	err := s.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain(), nil
}

// ListJobs returns postings newest first. With a Limit it fetches one extra
// row so the caller can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM job_postings WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}

	if filter.After != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.After.CreatedAt, filter.After.ID)
		argIdx += 2
	}

	// id breaks ties between postings created in the same microsecond
	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit+1)
	}

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]domain.JobPosting, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, *row.toDomain())
	}
	return jobs, nil
}

// UpdateJob applies the non-nil fields of patch and returns the updated posting.
// The identifier and creation time are never touched.
func (s *Storage) UpdateJob(ctx context.Context, id string, patch domain.JobPatch) (*domain.JobPosting, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrJobNotFound
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetJobByID(ctx, id)
	}

	query := "UPDATE job_postings SET "
	args := []interface{}{}
	argIdx := 1
	set := func(column string, value interface{}) {
		if argIdx > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Company != nil {
		set("company", *patch.Company)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Salary != nil {
		set("salary", *patch.Salary)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Requirements != nil {
		set("requirements", pq.StringArray(nonNil(*patch.Requirements)))
	}
	if patch.Benefits != nil {
		set("benefits", pq.StringArray(nonNil(*patch.Benefits)))
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}

	query += fmt.Sprintf(" WHERE id = $%d RETURNING %s", argIdx, jobColumns)
	args = append(args, id)

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	return row.toDomain(), nil
}

// SetStatus is the active/closed toggle
func (s *Storage) SetStatus(ctx context.Context, id string, status domain.Status) (*domain.JobPosting, error) {
	return s.UpdateJob(ctx, id, domain.JobPatch{Status: &status})
}

// DeleteJob removes the posting unconditionally
func (s *Storage) DeleteJob(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrJobNotFound
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM job_postings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// DeleteAllJobs empties the table and returns how many rows were removed
func (s *Storage) DeleteAllJobs(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM job_postings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", err)
	}
	return result.RowsAffected()
}

// Stats aggregates the dashboard counters in one query
func (s *Storage) Stats(ctx context.Context) (*domain.JobStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = $1) AS active,
			COUNT(*) FILTER (WHERE status = $2) AS closed,
			COALESCE(SUM(applicant_count), 0) AS total_applicants
		FROM job_postings
	`

	var stats domain.JobStats
	if err := s.db.GetContext(ctx, &stats, query, string(domain.StatusActive), string(domain.StatusClosed)); err != nil {
		return nil, fmt.Errorf("failed to get job stats: %w", err)
	}
	return &stats, nil
}
