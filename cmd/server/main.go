package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/liamwears/kinocatalog/internal/catalog"
	"github.com/liamwears/kinocatalog/internal/config"
	"github.com/liamwears/kinocatalog/internal/database"
	"github.com/liamwears/kinocatalog/internal/handlers"
	"github.com/liamwears/kinocatalog/internal/logging"
	"github.com/liamwears/kinocatalog/internal/metrics"
	"github.com/liamwears/kinocatalog/internal/middleware"
	"github.com/liamwears/kinocatalog/internal/services"
	"github.com/liamwears/kinocatalog/internal/telemetry"
)

const serviceName = "kinocatalog"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Service: serviceName,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
	})

	// Check for migrate command
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		down := len(os.Args) > 2 && os.Args[2] == "down"
		if err := runMigrations(cfg, down, logger); err != nil {
			logger.WithError(err).Fatal("Migration failed")
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func run(cfg *config.Config, logger *logrus.Entry) error {
	logger.WithField("env", cfg.Server.Env).Info("Starting KinoCatalog server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		SampleRate:  cfg.Telemetry.SampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Tracer shutdown failed")
		}
	}()

	// Initialize Redis connection
	var redisClient *database.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
	}

	backend, closeBackend, err := database.OpenBackend(ctx, cfg, redisClient, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeBackend()

	// Initialize services
	var cache *redis.Client
	if redisClient != nil {
		cache = redisClient.Client
	}
	tmdbService := services.NewTMDBService(services.TMDBConfig{
		APIKey:       cfg.TMDB.APIKey,
		ReadToken:    cfg.TMDB.ReadToken,
		BaseURL:      cfg.TMDB.BaseURL,
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		Language:     cfg.TMDB.Language,
		RateLimit:    cfg.TMDB.RateLimit,
		Cache:        cache,
		CacheTTL:     cfg.TMDB.CacheTTL,
	})

	sessions := catalog.NewSessions(tmdbService, backend, catalog.Options{
		MaxPages: cfg.Catalog.MaxPages,
		Debounce: cfg.Catalog.SearchDebounce,
	}, cfg.Catalog.SessionIdleTTL, logger)
	defer sessions.Close()
	go sessions.Run(ctx)

	// Initialize middleware
	clientMiddleware := middleware.NewClientMiddleware(sessions, middleware.DefaultClientCookie, cfg.IsProduction(), logger)

	// Rate limiter (100 req/min in production, unlimited in local/dev)
	maxRequests := 1000
	if cfg.IsProduction() {
		maxRequests = 100
	}
	rateLimiter := middleware.NewRateLimiter(cache, maxRequests, time.Minute, cfg.IsProduction(), logger)

	renderer, err := handlers.NewRenderer(tmdbService.ImageURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	pageHandler := handlers.NewPageHandler(renderer, logger)
	apiHandler := handlers.NewAPIHandler(logger)
	favoritesHandler := handlers.NewFavoritesHandler(logger)
	wsHandler := handlers.NewWSHandler(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	checks := map[string]handlers.HealthCheck{"storage": backend.Health}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(logger))

	r.Get("/health", handlers.Health(checks))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(clientMiddleware.Identify)

		// Page routes
		r.Get("/", pageHandler.Home)
		r.Get("/movie/{id}", pageHandler.Movie)
		r.Get("/favorites", pageHandler.Favorites)
		r.Get("/about", pageHandler.About)
		r.Get("/ws", wsHandler.Serve)

		// API routes (rate limited)
		r.Route("/api", func(r chi.Router) {
			r.Use(rateLimiter.Limit)
			apiHandler.Routes(r)
			r.Route("/favorites", favoritesHandler.Routes)
		})

		r.NotFound(pageHandler.NotFound)
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, serviceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

// runMigrations applies or rolls back the client_state schema
func runMigrations(cfg *config.Config, down bool, logger logrus.FieldLogger) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Pool, logger)
	if down {
		if err := migrator.Down(ctx); err != nil {
			return err
		}
		logger.Info("Migrations rolled back successfully")
		return nil
	}

	if err := migrator.Up(ctx); err != nil {
		return err
	}
	logger.Info("Migrations completed successfully")
	return nil
}
