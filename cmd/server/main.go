package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/shopnav/internal"
	"github.com/DukeRupert/shopnav/internal/brand"
	"github.com/DukeRupert/shopnav/internal/csrf"
	"github.com/DukeRupert/shopnav/internal/handler"
	"github.com/DukeRupert/shopnav/internal/metrics"
	"github.com/DukeRupert/shopnav/internal/middleware"
	"github.com/DukeRupert/shopnav/internal/repository"
	"github.com/DukeRupert/shopnav/internal/session"
	"github.com/DukeRupert/shopnav/internal/state"
	"github.com/DukeRupert/shopnav/internal/storage"
	"github.com/DukeRupert/shopnav/internal/templ/components/navigation"
	"github.com/DukeRupert/shopnav/internal/viewport"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize the application state source
	var source state.Source
	switch cfg.StateSource {
	case internal.StateSourcePostgres:
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database ready")
		source = repository.New(db)

	default:
		mem := state.NewMemorySource()
		if cfg.CatalogSeedPath != "" {
			if mem, err = state.LoadSeedFile(cfg.CatalogSeedPath); err != nil {
				return fmt.Errorf("catalog seed failed: %w", err)
			}
			logger.Info("Catalog seed loaded", "path", cfg.CatalogSeedPath)
		}
		source = mem
	}
	hydrator := state.NewHydrator(source, logger)

	// Initialize storage
	var store storage.Storage
	var imageOrigins []string
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("storage initialization failed: %w", err)
		}
		store = r2
		if cfg.R2PublicURL != "" {
			imageOrigins = append(imageOrigins, cfg.R2PublicURL)
		} else {
			imageOrigins = append(imageOrigins, "https://*.r2.cloudflarestorage.com")
		}
	default:
		local, err := storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("storage initialization failed: %w", err)
		}
		store = local
	}

	// Brand logo
	logoURL, err := brand.EnsureLogo(ctx, store, cfg.BrandLogoSource, cfg.BrandLogoHeightPx, logger)
	if err != nil {
		// The navigation falls back to the text wordmark.
		logger.Warn("brand logo unavailable", "source", cfg.BrandLogoSource, "error", err)
	}

	// Visitor sessions
	registry := session.NewRegistry(session.Config{
		TTL:          cfg.SessionTTL,
		DefaultWidth: cfg.NavDefaultWidthPx,
		EnvOptions: []viewport.Option{
			viewport.WithSubscriptionHooks(metrics.SubscriptionAdded, metrics.SubscriptionRemoved),
		},
		OnEvict: func(s *session.Session) {
			metrics.SessionsActive.Dec()
			logger.Debug("visitor session evicted", "visitor_id", s.ID)
		},
	})

	// Initialize middleware
	isSecure := cfg.Env != "development"
	visitorMw := middleware.NewVisitorMiddleware(registry, hydrator, logger, isSecure)
	csrfMw := csrf.NewMiddleware(isSecure, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure, imageOrigins...)
	viewportLimiter := middleware.NewRateLimitMiddleware(
		middleware.NewPerSecondLimiter(cfg.ViewportReportsPerSecond, logger),
		middleware.SessionKey,
		logger,
	)

	// Initialize handlers
	navHandler := handler.NewNavigationHandler(handler.NavigationConfig{
		Registry:          registry,
		Refresher:         hydrator,
		Brand:             navigation.Brand{Name: cfg.BrandName, LogoURL: logoURL},
		ScrollThresholdPx: cfg.NavScrollThresholdPx,
		WidthBreakpointPx: cfg.NavWidthBreakpointPx,
		Logger:            logger,
	})

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	staticFS := http.FileServer(http.Dir("web/static"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFS))

	// Local storage files (development only)
	if local, ok := store.(*storage.LocalStorage); ok {
		filesFS := http.FileServer(http.Dir(local.BasePath()))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic auth when credentials are configured)
	var metricsHandler http.Handler = promhttp.Handler()
	if cfg.MetricsUsername != "" && cfg.MetricsPassword != "" {
		metricsHandler = middleware.NewBasicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword).Handler(metricsHandler)
	} else {
		logger.Warn("/metrics is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}
	mux.Handle("GET /metrics", metricsHandler)

	// Navigation and storefront pages
	visitor := middleware.Stack(csrfMw.Handler, visitorMw.Handler)
	navHandler.RegisterRoutes(mux, visitor, viewportLimiter.Limit)

	// ==========================================================================
	// Start server
	// ==========================================================================

	global := middleware.Stack(metrics.Middleware, loggingMw.Handler, securityMw.Handler)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           global(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "state_source", cfg.StateSource)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Event streams never finish on their own; cut them at the deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		server.Close()
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
