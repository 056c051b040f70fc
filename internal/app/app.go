package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/metric/noop"

	"stockpulse/internal/config"
	apierrors "stockpulse/internal/errors"
	"stockpulse/internal/infrastructure"
	customMiddleware "stockpulse/internal/middleware"
	"stockpulse/internal/monitor"
	"stockpulse/internal/services"
	"stockpulse/internal/stockapi"
	handlers "stockpulse/internal/transport/http"
	"stockpulse/pkg/contracts"
)

const (
	VERSION = contracts.Version
	AppName = "StockPulse - stock price proxy and correlation engine"
)

var (
	// BuildTime is set at compile time
	BuildTime = time.Now().Format(time.RFC3339)
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Upstream      *stockapi.Client
	Fallback      *stockapi.Fallback
	StockService  *services.StockService
	HealthService *services.HealthService
	// Monitor is nil when the upstream probe is disabled
	Monitor *monitor.Monitor
}

// NewApplication loads configuration from the environment and builds the
// application with the shared infrastructure logger.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apierrors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("upstream", cfg.Upstream.BaseURL),
		slog.Bool("fallback_enabled", cfg.Fallback.Enabled))

	otelProviders, err := infrastructure.InitializeOTel(otelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func otelConfig(cfg config.TelemetryConfig) *infrastructure.OTelConfig {
	oc := infrastructure.DefaultOTelConfig()
	oc.ServiceVersion = VERSION
	oc.Environment = cfg.Environment
	oc.TraceExporter = cfg.TraceExporter
	oc.MetricExporter = cfg.MetricExporter
	oc.EnableTracing = cfg.TraceExporter != "none" && cfg.TraceExporter != ""
	oc.EnableMetrics = cfg.MetricExporter != "none" && cfg.MetricExporter != ""
	oc.SampleRatio = cfg.SampleRatio
	return oc
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	meter := a.OTelProviders.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(infrastructure.MeterName)
	}
	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	a.Upstream = stockapi.NewClient(a.Config.Upstream,
		stockapi.WithLogger(a.Logger),
		stockapi.WithMetrics(metrics),
	)
	a.Fallback = stockapi.NewFallback(a.Config.Fallback)

	a.StockService = services.NewStockService(a.Config, a.Upstream, a.Fallback,
		services.WithServiceMetrics(metrics),
		services.WithServiceLogger(a.Logger),
	)

	// A nil *Monitor must not reach the health service as a non-nil interface
	var status services.UpstreamStatusProvider
	if a.Config.Monitor.Enabled {
		a.Monitor = monitor.New(a.Config.Monitor, a.Upstream,
			monitor.WithMetrics(metrics),
			monitor.WithLogger(a.Logger),
			monitor.WithTimeout(a.Config.Upstream.Timeout),
		)
		status = a.Monitor
	}

	a.HealthService = services.NewHealthService(
		VERSION,
		BuildTime,
		BuildID,
		a.Config.Fallback.Enabled,
		status,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(a.Config.Security.RateLimit, a.Logger).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Scrapes bypass the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		stockHandler := handlers.NewStockHandler(a.StockService, a.Config.Analytics, a.Logger, a.ErrorHandler)
		r.Mount("/stocks", stockHandler.StockRoutes())
		r.Get("/correlations", stockHandler.GetCorrelationSeries)
		r.Mount("/analytics", stockHandler.AnalyticsRoutes())

		r.NotFound(a.ErrorHandler.NotFound)
		r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)
	})
}

// getCORSConfig builds the CORS policy from the security configuration
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			handlers.HeaderDataSource,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the upstream monitor and the HTTP server. A listen failure
// cancels ctx so Run can shut down.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	if a.Monitor != nil {
		if err := a.Monitor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start upstream monitor: %w", err)
		}
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.Monitor != nil {
		a.Monitor.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or until the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	// ctx may already be cancelled
	return a.Stop(context.Background())
}
