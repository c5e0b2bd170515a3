package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"avancofisico/internal/analytics"
	"avancofisico/internal/charts"
	"avancofisico/internal/dataset"
	"avancofisico/internal/exporter"
	"avancofisico/internal/filters"
	"avancofisico/internal/infrastructure"
	"avancofisico/pkg/contracts/domain"
)

// DashboardOptions configures a DashboardService
type DashboardOptions struct {
	// TableLimit caps the drill-down table; non-positive means the default
	TableLimit int
	Tracer     trace.Tracer
	// Metrics may be nil when instruments are not wanted
	Metrics *infrastructure.DashboardMetrics
	// Now is the clock stamped on dashboards; nil means time.Now
	Now func() time.Time
}

// DashboardService renders dashboards and exports over one dataset
type DashboardService struct {
	data       *dataset.Handle
	tableLimit int
	tracer     trace.Tracer
	metrics    *infrastructure.DashboardMetrics
	now        func() time.Time
	logger     *slog.Logger

	group singleflight.Group

	optionsOnce sync.Once
	options     domain.FilterOptions
}

// NewDashboardService creates a dashboard service over data
func NewDashboardService(data *dataset.Handle, opts DashboardOptions, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TableLimit <= 0 {
		opts.TableLimit = analytics.DefaultTableLimit
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &DashboardService{
		data:       data,
		tableLimit: opts.TableLimit,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		now:        opts.Now,
		logger:     logger.With(slog.String("component", "dashboard_service")),
	}

	status := data.Status()
	if s.metrics != nil {
		s.metrics.DatasetRows.Record(context.Background(), int64(status.Rows))
	}
	s.logger.Info("DashboardService initialized",
		slog.Bool("loaded", status.Loaded),
		slog.Int("rows", status.Rows),
		slog.String("source", status.Source),
		slog.Int("table_limit", s.tableLimit))

	return s
}

// Status returns the dataset load outcome
func (s *DashboardService) Status() domain.DatasetStatus {
	return s.data.Status()
}

// FilterOptions returns the selectable values and date bounds of the dataset.
// The dataset never changes, so they are computed once.
func (s *DashboardService) FilterOptions(ctx context.Context) domain.FilterOptions {
	s.optionsOnce.Do(func() {
		_, span := s.tracer.Start(ctx, "dashboard.filter_options")
		defer span.End()
		s.options = filters.BuildOptions(s.data.Records())
	})
	return s.options
}

// DefaultFilters returns the cleared filter selection
func (s *DashboardService) DefaultFilters() domain.FilterSpec {
	return domain.FilterSpec{}
}

// View returns the records selected by spec
func (s *DashboardService) View(spec domain.FilterSpec) []domain.Record {
	return filters.Apply(s.data.Records(), filters.Normalize(spec))
}

// Render runs one render cycle for spec. Concurrent calls with equivalent
// specs share a single computation.
func (s *DashboardService) Render(ctx context.Context, spec domain.FilterSpec) (domain.Dashboard, error) {
	spec = filters.Normalize(spec)

	// A caller going away must not fail the callers sharing its render.
	renderCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(spec.Key(), func() (any, error) {
		return s.render(renderCtx, spec)
	})
	if shared && s.metrics != nil {
		s.metrics.RendersCoalesced.Add(ctx, 1)
	}
	if err != nil {
		return domain.Dashboard{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Dashboard{}, err
	}

	dashboard := v.(domain.Dashboard)
	dashboard.Filters = spec
	return dashboard, nil
}

func (s *DashboardService) render(ctx context.Context, spec domain.FilterSpec) (domain.Dashboard, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.render",
		trace.WithAttributes(
			attribute.Bool("filters.empty", spec.IsEmpty()),
			attribute.Bool("dataset.loaded", s.data.Loaded()),
		))
	defer span.End()

	start := time.Now()
	records := filters.Apply(s.data.Records(), spec)
	span.SetAttributes(attribute.Int("render.rows", len(records)))

	chartSet, err := charts.BuildAll(ctx, records)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.recordRender(ctx, "error", start, len(records))
		if s.metrics != nil {
			s.metrics.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "render")))
		}
		return domain.Dashboard{}, fmt.Errorf("build charts: %w", err)
	}

	dashboard := domain.Dashboard{
		Status:      s.data.Status(),
		Filters:     spec,
		KPIs:        analytics.ComputeKPIs(records),
		Charts:      chartSet,
		Insights:    analytics.BuildInsights(records),
		Table:       analytics.BuildTable(records, s.tableLimit),
		GeneratedAt: s.now().UTC(),
	}

	s.recordRender(ctx, "ok", start, len(records))
	s.logger.DebugContext(ctx, "dashboard rendered",
		slog.Int("rows", len(records)),
		slog.Bool("filtered", !spec.IsEmpty()),
		slog.Duration("duration", time.Since(start)))

	return dashboard, nil
}

func (s *DashboardService) recordRender(ctx context.Context, result string, start time.Time, rows int) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	s.metrics.RendersTotal.Add(ctx, 1, attrs)
	s.metrics.RenderDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	s.metrics.RenderRows.Record(ctx, int64(rows))
}

// Export writes every record selected by spec in the given format. Without
// data the file holds only the header.
func (s *DashboardService) Export(ctx context.Context, spec domain.FilterSpec, format string, w io.Writer) error {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.export",
		trace.WithAttributes(attribute.String("export.format", string(f))))
	defer span.End()

	records := s.View(spec)
	if err := exporter.Write(w, f, records); err != nil {
		infrastructure.RecordError(ctx, err)
		if s.metrics != nil {
			s.metrics.Errors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "export")))
		}
		return err
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(f))))
	}
	s.logger.InfoContext(ctx, "table exported",
		slog.String("format", string(f)),
		slog.Int("rows", len(records)))
	return nil
}

// Snapshot serializes the full dataset
func (s *DashboardService) Snapshot(ctx context.Context) ([]byte, error) {
	if !s.data.Loaded() {
		return nil, ErrDatasetNotLoaded
	}

	ctx, span := s.tracer.Start(ctx, "dashboard.snapshot")
	defer span.End()

	blob, err := s.data.Snapshot()
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("snapshot.bytes", len(blob)))
	return blob, nil
}
