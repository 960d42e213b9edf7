package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"labelcli/internal/config"
	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
	"labelcli/internal/layout"
	"labelcli/internal/license"
	customMiddleware "labelcli/internal/middleware"
	"labelcli/internal/services"
	handlers "labelcli/internal/transport/http"
	ws "labelcli/internal/websocket"
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	LicenseManager *license.Manager
	LicenseGate    *customMiddleware.LicenseGate
	WebSocketHub   *ws.Hub
	HealthService  *services.HealthService
	Services       *ServiceContainer
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.LabelMetrics
	ErrorHandler   *apperrors.ErrorHandler
	Logger         *slog.Logger
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	License services.LicenseService
	Layout  services.LayoutService
	Import  services.ImportService
	Health  *services.HealthService
}

// NewApplication loads the configuration, creates the per-user directories,
// initializes logging and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	paths, err := cfg.ResolvedPaths()
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to prepare application directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	paths.LogPathResolution(logger)

	return New(cfg, logger)
}

// New wires every component for cfg. It does not start listening.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("license_file", cfg.Paths.LicenseFile))

	if !config.FileExists(cfg.Paths.LicenseFile) {
		logger.Warn("License file not found",
			slog.String("path", cfg.Paths.LicenseFile),
			slog.String("action", "License activation will be required"))
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateLabelMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create label metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
		Logger:        logger,
	}

	if err := a.initializeServices(); err != nil {
		return nil, err
	}
	if err := a.setupRouter(); err != nil {
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeServices() error {
	licenseManager, err := license.NewManager(license.Config{
		Secret:      a.Config.License.Secret,
		LicenseFile: a.Config.Paths.LicenseFile,
		Window:      a.Config.License.ValidationWindow,
		Logger:      a.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize license manager: %w", err)
	}
	a.LicenseManager = licenseManager

	hub := ws.NewHub(a.Logger)
	a.WebSocketHub = hub

	engine := layout.NewEngine(layout.Avery3658(), layout.NewMetricsMeasurer())

	a.HealthService = services.NewHealthService(config.AppVersion, a.Config.Paths, licenseManager, hub, a.Logger)
	a.Services = &ServiceContainer{
		License: services.NewLicenseService(licenseManager, a.Metrics, a.Logger),
		Layout:  services.NewLayoutService(engine, a.Config.Layout, a.Metrics, a.Logger),
		Import:  services.NewImportService(a.Metrics, a.Logger),
		Health:  a.HealthService,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger, a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(a.getCORSConfig()))

	a.LicenseGate = customMiddleware.NewLicenseGate(a.Services.License, a.ErrorHandler, a.Logger)
	r.Use(a.LicenseGate.Handler)

	// The preview socket skips body validation; the upgrade has no body
	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, a.Services.Layout, a.allowedOrigins(), a.Logger))

	r.Mount(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler).Routes())

	r.Group(func(r chi.Router) {
		validation := customMiddleware.NewValidationMiddleware(a.Config.Server.MaxUploadBytes, a.Logger, a.ErrorHandler)
		r.Use(validation.ValidateRequest)

		r.Get("/", a.index)
		a.setupAPIRoutes(r)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		jsonOnly := customMiddleware.ContentTypeValidator(a.ErrorHandler, "application/json")

		// A new license re-arms the gate so its next check sees the new record
		licenseHandler := handlers.NewLicenseHandler(a.Services.License, a.ErrorHandler, a.Logger).
			WithNotifier(a.WebSocketHub).
			WithNotifier(handlers.LicenseNotifierFunc(func(*services.LicenseStatusResponse) {
				a.LicenseGate.InvalidateCache()
			}))
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			limiter := customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger)
			licenseHandler.WithThrottle(limiter.Handler)
		}
		r.With(jsonOnly).Mount("/license", licenseHandler.Routes())

		r.With(jsonOnly).Mount("/layout", handlers.NewLayoutHandler(a.Services.Layout, a.ErrorHandler, a.Logger).Routes())

		importHandler := handlers.NewImportHandler(a.Services.Import, a.Config.Server.MaxUploadBytes, a.ErrorHandler, a.Logger)
		r.Mount("/import", importHandler.Routes())
	})
}

// index describes the server for anyone opening the root URL
func (a *Application) index(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"name":    config.AppName,
		"version": config.AppVersion,
		"endpoints": []string{
			config.HealthEndpoint,
			config.LicenseEndpoint + "/status",
			config.LicenseEndpoint + "/activate",
			config.LayoutEndpoint,
			config.LayoutEndpoint + "/preview",
			config.LayoutEndpoint + "/settings",
			config.ImportEndpoint,
			config.WebSocketEndpoint,
			config.MetricsEndpoint,
		},
	})
}

// allowedOrigins lists the browser origins of the local server plus configured extras
func (a *Application) allowedOrigins() []string {
	port := strconv.Itoa(a.Config.Server.Port)
	origins := []string{
		"http://localhost:" + port,
		"http://127.0.0.1:" + port,
	}
	return append(origins, a.Config.Security.AllowedOrigins...)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled or the listener fails, then shuts down
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.WebSocketHub.Start()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.String("license_status", a.LicenseManager.Status().Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	a.WebSocketHub.Stop()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Duration("shutdown_timeout", a.Config.Server.ShutdownTimeout),
		slog.Time("stopped_at", time.Now()))
	return nil
}
