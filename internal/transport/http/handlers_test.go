package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"avancofisico/internal/dataprocessing"
	"avancofisico/internal/dataset"
	apierrors "avancofisico/internal/errors"
	appmw "avancofisico/internal/middleware"
	"avancofisico/internal/services"
	"avancofisico/internal/shared/testutil"
	"avancofisico/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Status() domain.DatasetStatus {
	return m.Called().Get(0).(domain.DatasetStatus)
}

func (m *MockDashboardService) FilterOptions(ctx context.Context) domain.FilterOptions {
	return m.Called().Get(0).(domain.FilterOptions)
}

func (m *MockDashboardService) DefaultFilters() domain.FilterSpec {
	return domain.FilterSpec{}
}

func (m *MockDashboardService) Render(ctx context.Context, spec domain.FilterSpec) (domain.Dashboard, error) {
	args := m.Called(spec)
	return args.Get(0).(domain.Dashboard), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, spec domain.FilterSpec, format string, w io.Writer) error {
	return m.Called(spec, format).Error(0)
}

func (m *MockDashboardService) Snapshot(ctx context.Context) ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func fixture() []domain.Record {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	records := []domain.Record{
		{Cliente: "ACME", OSCliente: "OS-A", Tag: "T1", DesenhoPai: "DP (1)", PesoTotalKg: 100, PintKg: 100, PesoExpedKg: 100,
			DtReceb: domain.Date(2026, 1, 1), DtExped: domain.Date(2026, 1, 11)},
		{Cliente: "ACME", OSCliente: "OS-B", Tag: "T2", PesoTotalKg: 50, PrepKg: 50, DtReceb: domain.Date(2026, 2, 1)},
		{Cliente: "Beta", OSCliente: "OS-C", Tag: "T3", PesoTotalKg: 200},
	}
	for i := range records {
		dataprocessing.Derive(&records[i], today)
	}
	return records
}

func newRouter(t *testing.T, svc DashboardServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := appmw.NewValidator()

	datasetHandler := NewDatasetHandler(svc, logger, errorHandler)

	r := chi.NewRouter()
	r.Use(appmw.RequestID)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/dataset", datasetHandler.Routes())
		r.Mount("/filters", datasetHandler.FilterRoutes())
		r.Mount("/dashboard", NewDashboardHandler(svc, validator, logger, errorHandler).Routes())
	})
	return r
}

func realService(t *testing.T, h *dataset.Handle) *services.DashboardService {
	logger, _ := testutil.NewTestLogger(t)
	return services.NewDashboardService(h, services.DashboardOptions{}, logger)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestDashboardHandler_Get(t *testing.T) {
	router := newRouter(t, realService(t, dataset.New(fixture(), "base.xlsx")))

	tests := []struct {
		name      string
		query     string
		wantRows  int
		wantTotal float64
	}{
		{"no filters", "", 3, 350},
		{"cliente", "?cliente=ACME", 2, 150},
		{"repeated os", "?os=OS-A&os=OS-C", 2, 300},
		{"received range", "?receb_start=2026-01-15", 1, 50},
		{"literal parenthesis", "?desenho=(1)", 1, 100},
		{"no match", "?tag=nope", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/dashboard"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			d := decode[domain.Dashboard](t, rec)
			assert.Equal(t, tt.wantRows, d.KPIs.Rows)
			assert.InDelta(t, tt.wantTotal, d.KPIs.PesoTotalKg, 1e-9)
			assert.True(t, d.Status.Loaded)
		})
	}
}

func TestDashboardHandler_GetInvalidQuery(t *testing.T) {
	router := newRouter(t, realService(t, dataset.New(fixture(), "base.xlsx")))

	rec := do(t, router, http.MethodGet, "/api/dashboard?receb_start=2026-03-01&receb_end=2026-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decode[map[string]any](t, rec)
	assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
}

func TestDashboardHandler_Post(t *testing.T) {
	router := newRouter(t, realService(t, dataset.New(fixture(), "base.xlsx")))

	rec := do(t, router, http.MethodPost, "/api/dashboard", `{"situacoes":[],"clientes":["Beta"],"exped":{}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	d := decode[domain.Dashboard](t, rec)
	assert.Equal(t, 1, d.KPIs.Rows)
	assert.Equal(t, []string{"Beta"}, d.Filters.Clientes)

	rec = do(t, router, http.MethodPost, "/api/dashboard", `{"receb":{"from":"ontem"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandler_NoDataIsDegradedNotError(t *testing.T) {
	h := dataset.Empty("base.xlsx", "❌ Arquivo não encontrado: base.xlsx")
	router := newRouter(t, realService(t, h))

	rec := do(t, router, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	d := decode[domain.Dashboard](t, rec)
	assert.False(t, d.Status.Loaded)
	assert.Equal(t, "❌ Arquivo não encontrado: base.xlsx", d.Status.Message)
	assert.Zero(t, d.KPIs.PesoTotalKg)
	assert.Equal(t, []string{"Sem dados suficientes."}, d.Insights.Lines)
}

func TestDashboardHandler_RenderError(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Render", mock.Anything).Return(domain.Dashboard{}, context.DeadlineExceeded)
	router := newRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/dashboard", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	svc.AssertExpectations(t)
}

func TestDashboardHandler_Export(t *testing.T) {
	router := newRouter(t, realService(t, dataset.New(fixture(), "base.xlsx")))

	rec := do(t, router, http.MethodGet, "/api/dashboard/export.csv?cliente=ACME", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `avanco_fisico_`)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)

	rec = do(t, router, http.MethodGet, "/api/dashboard/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	f.Close()

	rec = do(t, router, http.MethodGet, "/api/dashboard/export?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", decode[map[string]any](t, rec)["error_code"])
}

func TestDashboardHandler_ExportFailure(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Export", mock.Anything, "csv").Return(errors.New("disk full"))
	router := newRouter(t, svc)

	rec := do(t, router, http.MethodGet, "/api/dashboard/export.csv", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "EXPORT_FAILED", decode[map[string]any](t, rec)["error_code"])
}

func TestDatasetHandler(t *testing.T) {
	router := newRouter(t, realService(t, dataset.New(fixture(), "base.xlsx")))

	rec := do(t, router, http.MethodGet, "/api/dataset/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[domain.DatasetStatus](t, rec)
	assert.True(t, status.Loaded)
	assert.Equal(t, 3, status.Rows)

	rec = do(t, router, http.MethodGet, "/api/dataset/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records, err := dataprocessing.Deserialize(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, fixture(), records)

	rec = do(t, router, http.MethodGet, "/api/filters/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[domain.FilterOptions](t, rec)
	assert.Len(t, opts.OS, 3)
	require.NotNil(t, opts.ExpedBounds.Max)
	assert.Equal(t, "2026-01-11", *opts.ExpedBounds.Max)

	rec = do(t, router, http.MethodGet, "/api/filters/defaults", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[domain.FilterSpec](t, rec).IsEmpty())
}

func TestDatasetHandler_SnapshotWithoutData(t *testing.T) {
	router := newRouter(t, realService(t, dataset.Empty("base.xlsx", "❌ Arquivo não encontrado: base.xlsx")))

	rec := do(t, router, http.MethodGet, "/api/dataset/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	problem := decode[map[string]any](t, rec)
	assert.Equal(t, "DATA_NOT_LOADED", problem["error_code"])
	assert.Equal(t, "❌ Arquivo não encontrado: base.xlsx", problem["details"])
}
