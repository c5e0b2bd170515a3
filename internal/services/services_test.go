package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avancofisico/internal/analytics"
	"avancofisico/internal/config"
	"avancofisico/internal/dataprocessing"
	"avancofisico/internal/dataset"
	"avancofisico/internal/infrastructure"
	"avancofisico/internal/shared/testutil"
	"avancofisico/pkg/contracts/domain"
)

var (
	fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	today    = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
)

// threeOrders: one shipped, one partially prepared and late, one untouched
func threeOrders() []domain.Record {
	records := []domain.Record{
		{
			Cliente: "ACME", OSCliente: "OS-A", Tag: "T1",
			PesoTotalKg: 100, PintKg: 100, PesoExpedKg: 100,
			DtReceb: domain.Date(2026, 1, 1), DtExped: domain.Date(2026, 1, 11),
		},
		{
			Cliente: "ACME", OSCliente: "OS-B", Tag: "T2",
			PesoTotalKg: 50, PrepKg: 50,
			DtEntrega: domain.Date(2026, 2, 1),
		},
		{
			Cliente: "Beta", OSCliente: "OS-C", Tag: "T3",
			PesoTotalKg: 200,
		},
	}
	for i := range records {
		dataprocessing.Derive(&records[i], today)
	}
	return records
}

func newService(t *testing.T, h *dataset.Handle, metrics *infrastructure.DashboardMetrics) *DashboardService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewDashboardService(h, DashboardOptions{
		TableLimit: 2,
		Metrics:    metrics,
		Now:        func() time.Time { return fixedNow },
	}, logger)
}

func TestRender_AllRecords(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	d, err := s.Render(context.Background(), domain.FilterSpec{})
	require.NoError(t, err)

	assert.True(t, d.Status.Loaded)
	assert.Equal(t, fixedNow, d.GeneratedAt)
	assert.Equal(t, 3, d.KPIs.Rows)
	assert.InDelta(t, 350, d.KPIs.PesoTotalKg, 1e-9)
	assert.InDelta(t, 150, d.KPIs.PesoProduzidoKg, 1e-9)
	assert.Equal(t, domain.StageNaoIniciado, d.Insights.Bottleneck.Stage)
	assert.InDelta(t, 50, d.Insights.AtrasadoKg, 1e-9)

	assert.Equal(t, 3, d.Table.TotalRows)
	assert.Len(t, d.Table.Rows, 2)
	assert.True(t, d.Table.Truncated)

	assert.Len(t, d.Charts.Funnel, 7)
	assert.Len(t, d.Charts.Conversion, 6)
}

func TestRender_Filtered(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	spec := domain.FilterSpec{Clientes: []string{"ACME", "ACME"}, DesenhoPai: "  "}
	d, err := s.Render(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, 2, d.KPIs.Rows)
	assert.InDelta(t, 150, d.KPIs.PesoTotalKg, 1e-9)
	assert.Equal(t, []string{"ACME"}, d.Filters.Clientes, "filters come back normalized")
	assert.Empty(t, d.Filters.DesenhoPai)
}

func TestRender_NoData(t *testing.T) {
	h := dataset.Empty("missing.xlsx", "❌ Arquivo não encontrado: missing.xlsx")
	s := newService(t, h, nil)

	d, err := s.Render(context.Background(), domain.FilterSpec{Tags: []string{"T1"}})
	require.NoError(t, err)

	assert.False(t, d.Status.Loaded)
	assert.Equal(t, "❌ Arquivo não encontrado: missing.xlsx", d.Status.Message)
	assert.Zero(t, d.KPIs.PesoTotalKg)
	assert.Nil(t, d.KPIs.LeadTimeMedioDias)
	assert.Equal(t, []string{analytics.NoDataInsight}, d.Insights.Lines)
	assert.Empty(t, d.Table.Rows)
}

func TestRender_CanceledCaller(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Render(ctx, domain.FilterSpec{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_ConcurrentCallersAgree(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	const callers = 16
	results := make([]domain.Dashboard, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			spec := domain.FilterSpec{OS: []string{"OS-B", "OS-A"}}
			if i%2 == 1 {
				spec.OS = []string{"OS-A", "OS-B"}
			}
			d, err := s.Render(context.Background(), spec)
			assert.NoError(t, err)
			results[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range results {
		assert.Equal(t, results[0].KPIs, d.KPIs)
		assert.Equal(t, results[0].Insights, d.Insights)
	}
}

func TestRender_RecordsMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{Environment: "test"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })
	metrics, err := infrastructure.NewDashboardMetrics(providers.Meter)
	require.NoError(t, err)

	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), metrics)
	_, err = s.Render(context.Background(), domain.FilterSpec{})
	require.NoError(t, err)
	require.NoError(t, s.Export(context.Background(), domain.FilterSpec{}, "csv", io.Discard))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `dashboard_renders_total{`)
	assert.Contains(t, body, `result="ok"`)
	assert.Contains(t, body, `format="csv"`)
	assert.Contains(t, body, "dataset_rows")
}

func TestFilterOptions(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	opts := s.FilterOptions(context.Background())
	require.Len(t, opts.Clientes, 2)
	assert.Equal(t, "ACME", opts.Clientes[0].Value)
	require.NotNil(t, opts.RecebBounds.Min)
	assert.Equal(t, "2026-01-01", *opts.RecebBounds.Min)

	assert.True(t, s.DefaultFilters().IsEmpty())
}

func TestExport(t *testing.T) {
	s := newService(t, dataset.New(threeOrders(), "base.xlsx"), nil)

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), domain.FilterSpec{OS: []string{"OS-C"}}, "csv", &buf))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 2, "header plus one row, ignoring the table cap")

	err := s.Export(context.Background(), domain.FilterSpec{}, "pdf", &buf)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExport_NoDataWritesHeader(t *testing.T) {
	s := newService(t, dataset.Empty("missing.xlsx", "❌"), nil)

	var buf bytes.Buffer
	require.NoError(t, s.Export(context.Background(), domain.FilterSpec{}, "csv", &buf))
	assert.Contains(t, buf.String(), "cliente,os_cliente")
}

func TestSnapshot(t *testing.T) {
	src := threeOrders()
	s := newService(t, dataset.New(src, "base.xlsx"), nil)

	blob, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	back, err := dataprocessing.Deserialize(blob)
	require.NoError(t, err)
	assert.Equal(t, src, back)

	empty := newService(t, dataset.Empty("missing.xlsx", "❌"), nil)
	_, err = empty.Snapshot(context.Background())
	assert.True(t, errors.Is(err, ErrDatasetNotLoaded))
}
