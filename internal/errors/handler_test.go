package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avancofisico/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewErrorHandler(t *testing.T) {
	for _, includeStack := range []bool{true, false} {
		t.Run(fmt.Sprintf("includeStack=%v", includeStack), func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)

			handler := NewErrorHandler(logger, includeStack)

			assert.NotNil(t, handler)
			assert.Equal(t, includeStack, handler.includeStack)
			assert.NotNil(t, handler.logger)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantCode   string
	}{
		{
			name:       "context deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "wrapped context canceled",
			err:        fmt.Errorf("render: %w", context.Canceled),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantTitle:  "Request Timeout",
		},
		{
			name:       "invalid request",
			err:        InvalidRequestWithError(fmt.Errorf("unexpected EOF")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantTitle:  "Bad Request",
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "validation errors",
			err:        NewValidationErrors([]ValidationError{{Field: "receb.to", Message: "must not be before from"}}),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "rate limited",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
			wantCode:   "RATE_LIMIT_EXCEEDED",
		},
		{
			name:       "data not loaded",
			err:        DataNotLoadedError("❌ Arquivo não encontrado: base.xlsx"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataNotLoaded,
			wantTitle:  "Service Unavailable",
			wantCode:   "DATA_NOT_LOADED",
		},
		{
			name:       "unsupported format",
			err:        UnsupportedFormatError("pdf"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnsupportedFormat,
			wantCode:   "UNSUPPORTED_FORMAT",
		},
		{
			name:       "export failed",
			err:        ExportFailedError(fmt.Errorf("disk full")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeExportFailed,
			wantCode:   "EXPORT_FAILED",
		},
		{
			name:       "load error",
			err:        NewLoadError("failed to open workbook", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataNotLoaded,
			wantTitle:  "Data Not Loaded",
		},
		{
			name:       "parsing error",
			err:        NewParsingError("malformed snapshot", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataCorrupted,
			wantTitle:  "Data Corrupted",
		},
		{
			name:       "app validation error",
			err:        NewAppValidationError(`unsupported csv encoding "ebcdic"`),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "export app error",
			err:        NewExportError("failed to write csv", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeExportFailed,
			wantTitle:  "Export Failed",
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantTitle:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/dashboard", body["instance"])
			assert.Equal(t, "req-1", body["trace_id"])
			assert.NotContains(t, body, "stack")
			if tt.wantTitle != "" {
				assert.Equal(t, tt.wantTitle, body["title"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, handler.Count())
}

func TestErrorHandler_LogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel slog.Level
	}{
		{"client error logs at warn", UnsupportedFormatError("pdf"), slog.LevelWarn},
		{"server error logs at error", fmt.Errorf("boom"), slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			rec := httptest.NewRecorder()

			NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			testutil.AssertLogContains(t, logs, tt.wantLevel, "request failed")
		})
	}
}

func TestErrorHandler_Details(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	t.Run("api error details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
			NewValidationErrors([]ValidationError{{Field: "clientes[0]", Message: "too long"}}))

		body := decodeProblem(t, rec)
		details, ok := body["details"].(map[string]any)
		require.True(t, ok)
		errs, ok := details["errors"].([]any)
		require.True(t, ok)
		require.Len(t, errs, 1)
		assert.Equal(t, "clientes[0]", errs[0].(map[string]any)["field"])
	})

	t.Run("app error context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
			NewLoadError("failed to read sheet", nil).WithContext("sheet", "CONSOLIDADO"))

		body := decodeProblem(t, rec)
		assert.Equal(t, "LOAD", body["error_type"])
		assert.Equal(t, map[string]any{"sheet": "CONSOLIDADO"}, body["context"])
	})
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, true).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	body := decodeProblem(t, rec)
	assert.NotEmpty(t, body["stack"])
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	panicking := RecoveryMiddleware(handler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	panicking.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")

	t.Run("abort handler is re-raised", func(t *testing.T) {
		aborting := RecoveryMiddleware(handler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			aborting.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}
