package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"avancofisico/internal/config"
	apperrors "avancofisico/internal/errors"
	"avancofisico/internal/dataset"
	"avancofisico/internal/infrastructure"
	appmw "avancofisico/internal/middleware"
	"avancofisico/internal/services"
	handlers "avancofisico/internal/transport/http"
	ws "avancofisico/internal/websocket"
	"avancofisico/pkg/contracts"
)

// AppName is logged at startup
const AppName = "Avanço Físico Dashboard"

// maxRequestBody caps JSON request bodies; filter requests are small
const maxRequestBody = 1 << 20

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Dataset       *dataset.Handle
	Services      *ServiceContainer
	WebSocketHub  *ws.Hub
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics

	logCloser interface{ Close() error }
	listener  net.Listener
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Validator *appmw.Validator
	Errors    *apperrors.ErrorHandler
}

// NewApplication loads configuration and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.GetVersionString()))

	dataFile := cfg.ResolveDataFile()
	data := dataset.Open(context.Background(), dataset.Options{
		Path:     dataFile,
		Sheet:    cfg.Data.Sheet,
		Encoding: cfg.Data.CSVEncoding,
	}, logger.Logger)

	app, err := New(cfg, data, logger.Logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	app.logCloser = logger
	return app, nil
}

// New builds the application around an already loaded dataset
func New(cfg *config.Config, data *dataset.Handle, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		Dataset:       data,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	status := data.Status()
	logger.Info("Dataset status",
		slog.Bool("loaded", status.Loaded),
		slog.Int("rows", status.Rows),
		slog.String("source", status.Source),
		slog.String("message", status.Message))

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() {
	hub := ws.NewHub(a.Metrics, a.Logger)
	hub.Start()
	a.WebSocketHub = hub

	dashboard := services.NewDashboardService(a.Dataset, services.DashboardOptions{
		TableLimit: a.Config.Data.TableRowLimit,
		Tracer:     a.OTelProviders.Tracer,
		Metrics:    a.Metrics,
	}, a.Logger)

	health := services.NewHealthService(contracts.Version, a.Dataset, hub, a.Logger)

	a.Services = &ServiceContainer{
		Dashboard: dashboard,
		Health:    health,
		Validator: appmw.NewValidator(),
		Errors:    apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development),
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.Services.Errors.NotFound)
	r.MethodNotAllowed(a.Services.Errors.MethodNotAllowed)

	// Middleware that does not wrap the ResponseWriter, safe for websocket upgrades
	r.Use(appmw.RequestID)
	r.Use(appmw.RealIP)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Services.Dashboard, a.Services.Validator, ws.Options{
		Config:         a.Config.WebSocket,
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		RenderTimeout:  a.Config.Server.RenderTimeout,
	}, a.Metrics, a.Logger)
	r.With(appmw.WebSocketTraceMiddleware(a.OTelProviders.Tracer, a.Logger)).Handle("/ws", wsHandler)

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(appmw.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics).Handler)
		r.Use(appmw.StructuredLogger(a.Logger))
		r.Use(apperrors.RecoveryMiddleware(a.Services.Errors))
		r.Use(appmw.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(appmw.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(appmw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.Services.Errors,
			).Handler)
		}
		r.Use(appmw.Compress(5, "application/json", "text/csv"))

		a.setupAPIRoutes(r)
	})

	// Prometheus scrape endpoint, outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(appmw.Timeout(a.Config.Server.RenderTimeout))
		r.Use(appmw.NewValidationMiddleware(a.Logger, a.Services.Errors, maxRequestBody).ValidateRequest)

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		datasetHandler := handlers.NewDatasetHandler(a.Services.Dashboard, a.Logger, a.Services.Errors)
		r.Mount("/dataset", datasetHandler.Routes())
		r.Mount("/filters", datasetHandler.FilterRoutes())

		dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Services.Validator, a.Logger, a.Services.Errors)
		r.Mount("/dashboard", dashboardHandler.Routes())
	})
}

// getCORSConfig returns the CORS configuration for the API
func (a *Application) getCORSConfig() appmw.CORSConfig {
	return appmw.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Addr returns the bound listen address once Start has returned
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start binds the listen address and serves in the background. A serve
// failure cancels the application context through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Addr()),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("data_loaded", a.Dataset.Loaded()))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	// Hijacked websocket connections are not tracked by Shutdown
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received interrupt signal")

	return a.Stop(context.Background())
}
