package http

import (
	"context"
	"io"

	"avancofisico/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations used by the
// handlers
type DashboardServiceInterface interface {
	Status() domain.DatasetStatus
	FilterOptions(ctx context.Context) domain.FilterOptions
	DefaultFilters() domain.FilterSpec
	Render(ctx context.Context, spec domain.FilterSpec) (domain.Dashboard, error)
	Export(ctx context.Context, spec domain.FilterSpec, format string, w io.Writer) error
	Snapshot(ctx context.Context) ([]byte, error)
}
