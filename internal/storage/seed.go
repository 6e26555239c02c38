package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// SeedJobs are the sample postings loaded by `jobctl seed`
func SeedJobs() []domain.JobPosting {
	return []domain.JobPosting{
		{
			Title:       "Software Engineer",
			Company:     "Acme Inc.",
			Location:    "Remote / San Francisco",
			Salary:      "$120,000 - $150,000",
			Description: "We are looking for a talented software engineer to join our team. The ideal candidate will have strong experience with modern web technologies and a passion for building high-quality, scalable applications.",
			Requirements: []string{
				"5+ years of experience with JavaScript",
				"Experience with React",
				"Strong problem-solving skills",
				"Bachelor's degree in Computer Science or related field",
			},
			Benefits: []string{
				"Competitive salary",
				"Remote work options",
				"Health insurance",
				"401(k) matching",
			},
			Status:         domain.StatusActive,
			CreatedAt:      time.Date(2023, time.October, 15, 0, 0, 0, 0, time.UTC),
			ApplicantCount: 12,
		},
		{
			Title:       "Product Manager",
			Company:     "Acme Inc.",
			Location:    "New York",
			Salary:      "$130,000 - $160,000",
			Description: "We are seeking an experienced product manager to lead our product development efforts. You will be responsible for defining product strategy, roadmap, and features.",
			Requirements: []string{
				"5+ years of product management experience",
				"Experience with agile development methodologies",
				"Strong analytical and problem-solving skills",
				"Excellent communication skills",
			},
			Benefits: []string{
				"Competitive salary",
				"Flexible working hours",
				"Health insurance",
				"401(k) matching",
			},
			Status:         domain.StatusActive,
			CreatedAt:      time.Date(2023, time.October, 10, 0, 0, 0, 0, time.UTC),
			ApplicantCount: 8,
		},
		{
			Title:       "UX Designer",
			Company:     "Acme Inc.",
			Location:    "Remote",
			Salary:      "$90,000 - $120,000",
			Description: "We are looking for a talented UX designer to create exceptional user experiences. You will work closely with product managers and engineers to design intuitive interfaces.",
			Requirements: []string{
				"3+ years of UX design experience",
				"Proficiency with design tools (Figma, Sketch)",
				"Portfolio demonstrating UX process",
				"Experience with user research methods",
			},
			Benefits: []string{
				"Competitive salary",
				"Remote work",
				"Health insurance",
				"Professional development budget",
			},
			Status:         domain.StatusClosed,
			CreatedAt:      time.Date(2023, time.September, 28, 0, 0, 0, 0, time.UTC),
			ApplicantCount: 5,
		},
	}
}

// Seed inserts the sample postings, optionally clearing the table first.
// It returns the inserted postings with their assigned identifiers.
func (s *Storage) Seed(ctx context.Context, reset bool) ([]domain.JobPosting, error) {
	if reset {
		removed, err := s.DeleteAllJobs(ctx)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Cleared job postings", slog.Int64("removed", removed))
	}

	jobs := SeedJobs()
	for i := range jobs {
		if err := s.InsertJob(ctx, &jobs[i]); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Seeded job postings", slog.Int("count", len(jobs)))
	return jobs, nil
}
