package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"instore-payment-client/internal/adapters/desktop"
	httphandler "instore-payment-client/internal/adapters/http"
	"instore-payment-client/internal/adapters/storage/redis"
	"instore-payment-client/internal/bootstrap"
	"instore-payment-client/internal/config"
	"instore-payment-client/internal/observability"
)

const serviceName = "instore-payment-client"

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	configPath := os.Getenv("CEPPOS_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fallbackLogger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("Application starting", "env", cfg.App.Env, "port", cfg.Server.Port, "storage", cfg.Storage.Backend, "audit_sink", cfg.Audit.Sink)

	// --- 2. Validate critical config ---
	jwtSecret := cfg.JWT.JWTSecret
	if jwtSecret == "" && cfg.OIDC.URL == "" {
		logger.Error("JWT_SECRET is not set and no OIDC provider is configured")
		os.Exit(1)
	}

	// --- 3. Observability ---
	shutdownTracer, err := observability.InitTracer(cfg.Jaeger.PortGrpc, serviceName)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to shutdown tracer", "error", err)
		}
	}()

	// --- 4. Dependencies ---
	ctx := context.Background()

	components, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	// --- 5. Service Layer ---
	// The service runs headless: deep links are returned to the caller and logged.
	paymentHandler := httphandler.NewPaymentHandler(
		components.Settings,
		components.Directory,
		components.Transactions(desktop.NewLoggingLauncher(logger)),
		components.Callbacks(),
		logger,
	)
	authHandler := httphandler.NewAuthHandler(logger, jwtSecret, cfg.JWT.TTL, cfg.Operator.Username, cfg.Operator.Password)

	var authenticate func(http.Handler) http.Handler
	if cfg.OIDC.URL != "" {
		oidcAuth, err := httphandler.NewOIDCAuthenticator(ctx, cfg.OIDC.URL, cfg.OIDC.ClientID, logger)
		if err != nil {
			logger.Error("Failed to initialize OIDC provider", "error", err)
			os.Exit(1)
		}
		authenticate = oidcAuth.Middleware
	} else {
		authenticate = httphandler.JWTMiddleware([]byte(jwtSecret), logger)
	}

	// --- 6. HTTP Router ---
	r := chi.NewRouter()

	// Public middleware
	r.Use(middleware.RequestID, middleware.RealIP)
	if components.Redis != nil {
		rateLimiter := httphandler.NewRateLimiterMiddleware(redis.NewRateLimiterAdapter(components.Redis), cfg.RateLimit.RequestsPerMinute, logger)
		r.Use(rateLimiter.Handler)
	}
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware(serviceName),
		observability.NewTracingMiddleware(serviceName),
	)

	// Public routes
	r.Get("/health", httphandler.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if jwtSecret != "" {
		r.Post("/auth/login", authHandler.HandleLogin)
	}
	r.Get("/payment/callback", paymentHandler.HandleCallback)

	// Protected routes: /api/v1/*
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)
		paymentHandler.MountAPI(r)
	})

	// --- 7. HTTP Server ---
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.Partner.Timeout >= srv.WriteTimeout {
		// Partner calls may legitimately run up to the configured timeout.
		srv.WriteTimeout = cfg.Partner.Timeout + 5*time.Second
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Server exited properly")
}
