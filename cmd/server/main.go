// AgriVision - Crop Health Analysis Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/oeonyangoemma-bot/agrivision/internal/advisor"
	"github.com/oeonyangoemma-bot/agrivision/internal/analysis"
	"github.com/oeonyangoemma-bot/agrivision/internal/api"
	"github.com/oeonyangoemma-bot/agrivision/internal/blob"
	"github.com/oeonyangoemma-bot/agrivision/internal/config"
	"github.com/oeonyangoemma-bot/agrivision/internal/history"
	"github.com/oeonyangoemma-bot/agrivision/internal/identity"
	"github.com/oeonyangoemma-bot/agrivision/internal/llm"
	"github.com/oeonyangoemma-bot/agrivision/internal/middleware"
	"github.com/oeonyangoemma-bot/agrivision/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "model", cfg.ModelName, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	blobs, err := blob.NewFSStore(cfg.MediaDir)
	if err != nil {
		slog.Error("Failed to initialize media store", "error", err)
		os.Exit(1)
	}
	slog.Info("Media store ready", "dir", blobs.Dir())

	// The provider client is constructed once and injected into each
	// pipeline; it is never reached for as ambient global state.
	modelClient, err := llm.NewOpenAIClient(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName)
	if err != nil {
		slog.Error("Failed to initialize model client", "error", err)
		os.Exit(1)
	}

	// Initialize services.
	analysisSvc := analysis.NewService(analysis.NewInvoker(modelClient), repo, blobs, cfg.MaxUploadBytes)
	advisorSvc := advisor.NewService(modelClient, advisor.NewHistoryLookup(repo))

	// Initialize handlers.
	healthHandler := api.NewHealthHandler(repo)
	sessionHandler := api.NewSessionHandler(repo, cfg.IsDevelopment())
	analysisHandler := analysis.NewHandler(analysisSvc)
	chatHandler := advisor.NewHandler(advisorSvc)
	historyHandler := history.NewHandler(repo)
	feedHandler := history.NewWebSocketHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	// Credentialed CORS needs the explicit frontend origin; the wildcard is
	// the development fallback.
	allowedOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		allowedOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(identity.Middleware(repo))

	// Routes.
	healthHandler.RegisterHealth(r)
	sessionHandler.RegisterRoutes(r)
	analysisHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	historyHandler.RegisterRoutes(r)

	// WebSocket endpoint for the live history feed.
	r.Get("/ws/analyses", feedHandler.ServeHTTP)

	// Serve stored media.
	r.Handle(blob.URLPrefix+"*", http.StripPrefix(blob.URLPrefix, http.FileServer(http.Dir(blobs.Dir()))))

	// Create server.
	// Note: model calls inherit provider/transport defaults, so no write
	// timeout is imposed here; the WebSocket feed also needs long writes.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
