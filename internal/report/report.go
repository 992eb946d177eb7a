// Package report assembles verdicts into a compliance report.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/shinsa/internal/models"
)

// Option configures an assembled report.
type Option func(*models.Report)

// WithWarnings attaches batch-level warnings.
func WithWarnings(w ...string) Option {
	return func(r *models.Report) { r.Warnings = append(r.Warnings, w...) }
}

// WithMode records the judge mode used.
func WithMode(mode string) Option {
	return func(r *models.Report) { r.Mode = mode }
}

// WithID sets the report ID instead of a generated one.
func WithID(id string) Option {
	return func(r *models.Report) { r.ID = id }
}

// WithCreatedAt sets the creation time instead of now.
func WithCreatedAt(t time.Time) Option {
	return func(r *models.Report) { r.CreatedAt = t }
}

// Assemble builds a report from verdicts in the order given. Nothing is sorted or
// deduplicated. Zero verdicts produce a valid report with an empty, non-nil slice.
func Assemble(verdicts []models.Verdict, opts ...Option) *models.Report {
	out := make([]models.Verdict, len(verdicts))
	copy(out, verdicts)
	r := &models.Report{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Verdicts:  out,
		Summary:   Summarize(out),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summarize counts verdicts by compliance outcome.
func Summarize(verdicts []models.Verdict) models.Summary {
	s := models.Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		switch v.Compliance {
		case models.Compliant:
			s.Compliant++
		case models.NonCompliant:
			s.NonCompliant++
		default:
			s.Error++
		}
	}
	return s
}
