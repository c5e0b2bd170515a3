package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "avancofisico/internal/errors"
	"avancofisico/internal/exporter"
	appmw "avancofisico/internal/middleware"
	"avancofisico/internal/services"
	api "avancofisico/pkg/contracts/api/v1"
	"avancofisico/pkg/contracts/domain"
)

// DashboardHandler renders dashboards and exports for a filter selection
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *appmw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, validator *appmw.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the /api/dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	r.Post("/", h.PostDashboard)
	r.Get("/export", h.Export)
	r.Get("/export.csv", h.exportAs(api.ExportCSV))
	r.Get("/export.xlsx", h.exportAs(api.ExportXLSX))
	return r
}

// GetDashboard handles GET /api/dashboard with filters in the query string
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	spec, err := h.querySpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, spec)
}

// PostDashboard handles POST /api/dashboard with a JSON FilterRequest body
func (h *DashboardHandler) PostDashboard(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.DecodeFilterRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.render(w, r, req.ToSpec())
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, spec domain.FilterSpec) {
	dashboard, err := h.service.Render(r.Context(), spec)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "render failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, dashboard)
}

// Export handles GET /api/dashboard/export?format=csv|xlsx
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = api.ExportCSV
	}
	h.export(w, r, format)
}

func (h *DashboardHandler) exportAs(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.export(w, r, format)
	}
}

// export renders the whole file before writing so a failure can still be
// reported as a problem response
func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, format string) {
	spec, err := h.querySpec(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), spec, format, &buf); err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError(format))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ExportFailedError(err))
		return
	}

	f, _ := exporter.ParseFormat(format)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(f, h.now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export",
			slog.String("format", format),
			slog.String("error", err.Error()))
	}
}

// querySpec reads and validates the filter query parameters
func (h *DashboardHandler) querySpec(r *http.Request) (domain.FilterSpec, error) {
	req := api.FilterRequestFromQuery(r.URL.Query())
	if err := h.validator.Struct(req); err != nil {
		return domain.FilterSpec{}, err
	}
	return req.ToSpec(), nil
}
