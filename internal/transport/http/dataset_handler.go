package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "avancofisico/internal/errors"
	"avancofisico/internal/services"
)

// DatasetHandler exposes the load status, the snapshot and the filter
// options of the dataset
type DatasetHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)
	r.Get("/snapshot", h.GetSnapshot)
	return r
}

// FilterRoutes returns the /api/filters routes
func (h *DatasetHandler) FilterRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/options", h.GetFilterOptions)
	r.Get("/defaults", h.GetFilterDefaults)
	return r
}

// GetStatus handles GET /api/dataset/status
func (h *DatasetHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// GetSnapshot handles GET /api/dataset/snapshot
func (h *DatasetHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := h.service.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrDatasetNotLoaded) {
			h.errorHandler.HandleError(w, r, apierrors.DataNotLoadedError(h.service.Status().Message))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write snapshot",
			slog.String("error", err.Error()))
	}
}

// GetFilterOptions handles GET /api/filters/options
func (h *DatasetHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.FilterOptions(r.Context()))
}

// GetFilterDefaults handles GET /api/filters/defaults
func (h *DatasetHandler) GetFilterDefaults(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.DefaultFilters())
}
