// Package storage persists compliance reports.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/shinsa/internal/models"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Storage defines report persistence operations.
type Storage interface {
	SaveReport(ctx context.Context, r *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// ListReports returns report summaries, newest first.
	ListReports(ctx context.Context, offset, limit int) ([]*models.ReportInfo, error)
	DeleteReport(ctx context.Context, id string) error
	CountReports(ctx context.Context) (int64, error)
	// DiskUsageBytes returns the on-disk size of the store.
	DiskUsageBytes() (int64, error)
	Close() error
}
