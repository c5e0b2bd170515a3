package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avancofisico/internal/config"
	"avancofisico/internal/dataprocessing"
	"avancofisico/internal/dataset"
	"avancofisico/internal/shared/testutil"
	"avancofisico/pkg/contracts/domain"
	"avancofisico/pkg/contracts/events"
)

func testRecords() []domain.Record {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
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

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.BindHost = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, data *dataset.Handle) *Application {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	app, err := New(testConfig(), data, logger)
	require.NoError(t, err)
	t.Cleanup(app.WebSocketHub.Stop)
	return app
}

func serve(app *Application, method, target string, body io.Reader, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	app := newTestApp(t, dataset.New(testRecords(), "base.xlsx"))

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Services.Dashboard)
	assert.NotNil(t, app.Services.Health)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, dataset.New(testRecords(), "base.xlsx"))

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "health",
			method:     http.MethodGet,
			target:     "/api/health",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"status":"ok"`)
			},
		},
		{
			name:       "readiness",
			method:     http.MethodGet,
			target:     "/api/health/ready",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"status":"ready"`)
			},
		},
		{
			name:       "liveness",
			method:     http.MethodGet,
			target:     "/api/health/live",
			wantStatus: http.StatusOK,
		},
		{
			name:       "version",
			method:     http.MethodGet,
			target:     "/api/version",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"api_version"`)
			},
		},
		{
			name:       "dataset status",
			method:     http.MethodGet,
			target:     "/api/dataset/status",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var status domain.DatasetStatus
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
				assert.True(t, status.Loaded)
				assert.Equal(t, 3, status.Rows)
			},
		},
		{
			name:       "filter options",
			method:     http.MethodGet,
			target:     "/api/filters/options",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "OS-C")
			},
		},
		{
			name:       "dashboard from query",
			method:     http.MethodGet,
			target:     "/api/dashboard?cliente=Beta",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var d domain.Dashboard
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
				assert.Equal(t, 1, d.KPIs.Rows)
				assert.Equal(t, 200.0, d.KPIs.PesoTotalKg)
			},
		},
		{
			name:       "dashboard from body",
			method:     http.MethodPost,
			target:     "/api/dashboard",
			body:       `{"clientes":["ACME"]}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var d domain.Dashboard
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
				assert.Equal(t, 2, d.KPIs.Rows)
			},
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			target:     "/api/dashboard",
			body:       `{"clientes":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "csv export",
			method:     http.MethodGet,
			target:     "/api/dashboard/export.csv",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
				assert.Contains(t, rec.Header().Get("Content-Disposition"), "avanco_fisico_")
				assert.Equal(t, 4, strings.Count(rec.Body.String(), "\n"))
			},
		},
		{
			name:       "unknown route",
			method:     http.MethodGet,
			target:     "/api/nope",
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "/errors/not-found")
			},
		},
		{
			name:       "method not allowed",
			method:     http.MethodDelete,
			target:     "/api/dashboard",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
				header.Set("Content-Type", "application/json")
			}

			rec := serve(app, tt.method, tt.target, body, header)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestApplication_NoData(t *testing.T) {
	app := newTestApp(t, dataset.Empty("missing.xlsx", "❌ Arquivo não encontrado: missing.xlsx"))

	rec := serve(app, http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var d domain.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.False(t, d.Status.Loaded)
	assert.Contains(t, d.Status.Message, "missing.xlsx")
	assert.Zero(t, d.KPIs.Rows)

	rec = serve(app, http.MethodGet, "/api/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	rec = serve(app, http.MethodGet, "/api/dataset/snapshot", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApplication_CORS(t *testing.T) {
	app := newTestApp(t, dataset.New(testRecords(), "base.xlsx"))

	header := http.Header{}
	header.Set("Origin", "http://localhost:8080")
	header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(app, http.MethodOptions, "/api/dashboard", nil, header)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))

	header.Set("Origin", "http://evil.example")
	rec = serve(app, http.MethodOptions, "/api/dashboard", nil, header)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_Metrics(t *testing.T) {
	app := newTestApp(t, dataset.New(testRecords(), "base.xlsx"))

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/dashboard", nil, nil).Code)

	rec := serve(app, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "dashboard_renders_total")
	assert.Contains(t, body, "dataset_rows")
	assert.Contains(t, body, "http_requests_total")
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, dataset.New(testRecords(), "base.xlsx"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	resp, err := http.Get("http://" + app.Addr() + "/api/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+app.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	var status events.ServerMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, events.MessageTypeStatus, status.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"id":"1","type":"filters","filters":{"os":["OS-A"]}}`)))
	var reply events.ServerMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, events.MessageTypeDashboard, reply.Type)
	require.NotNil(t, reply.Dashboard)
	assert.Equal(t, 1, reply.Dashboard.KPIs.Rows)
	assert.Eventually(t, func() bool {
		return app.Services.Health.ReadinessCheck(ctx).Services["websocket"].Message == "1 clients connected"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, app.Stop(context.Background()))

	_, err = http.Get("http://" + app.Addr() + "/api/health/live")
	assert.Error(t, err)
}
