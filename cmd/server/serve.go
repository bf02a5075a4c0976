package main

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
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/ashureev/c2h-ai/internal/api"
	"github.com/ashureev/c2h-ai/internal/catalog"
	"github.com/ashureev/c2h-ai/internal/chat"
	"github.com/ashureev/c2h-ai/internal/completion"
	"github.com/ashureev/c2h-ai/internal/health"
	"github.com/ashureev/c2h-ai/internal/identity"
	"github.com/ashureev/c2h-ai/internal/metrics"
	"github.com/ashureev/c2h-ai/internal/middleware"
	"github.com/ashureev/c2h-ai/internal/session"
	"github.com/ashureev/c2h-ai/internal/store"
	"github.com/ashureev/c2h-ai/web"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.LLM.Provider)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	blobs, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := blobs.Close(); closeErr != nil {
			slog.Error("Failed to close blob store", "error", closeErr)
		}
	}()

	if err := blobs.Ping(context.Background()); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	m := metrics.New()

	// A bad or missing key disables the AI entry points; startup continues.
	ai := completion.New(completion.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	}, completion.WithLogger(logger), completion.WithMetrics(m), completion.WithTimeout(cfg.LLM.Timeout))
	if ai.Enabled() {
		slog.Info("AI features enabled", "model", cfg.LLM.Model)
	} else {
		slog.Warn("AI features disabled", "error", ai.Err())
	}

	sessions := session.NewRegistry(blobs, ai, logger, m)

	convLog, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize conversation logger: %w", err)
	}
	defer func() {
		if closeErr := convLog.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	reconciler := chat.NewReconciler(convLog, logger)

	var healthSrv *health.Server
	if cfg.GRPCHealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddr)
		if err != nil {
			return fmt.Errorf("listen for health checks: %w", err)
		}
		healthSrv = health.NewServer(blobs, ai.Err(), logger)
		go func() {
			slog.Info("Health server listening", "addr", cfg.GRPCHealthAddr)
			if err := healthSrv.Serve(lis); err != nil {
				slog.Error("Health server failed", "error", err)
			}
		}()
	}

	// Initialize handlers.
	base := api.NewHandler(cat, ai, sessions, reconciler)
	wsHandler := api.NewChatSocketHandler(base, cfg.FrontendURL, cfg.IsDevelopment())

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins(cfg.FrontendURL)))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	api.NewHealthHandler(base, blobs).RegisterRoutes(r)
	api.NewAppHandler(base).RegisterRoutes(r)
	api.NewGenerateHandler(base).RegisterRoutes(r)
	api.NewSessionHandler(base).RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)
	r.Handle("/metrics", m.Handler())

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Chat replies stream over SSE, so there is no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	if healthSrv != nil {
		healthSrv.Stop()
	}
	// Pending title requests finish and the last snapshots are written.
	sessions.Close(shutdownCtx)

	slog.Info("Server stopped successfully")
	return nil
}

func allowedOrigins(frontendURL string) []string {
	if frontendURL == "" {
		return []string{"*"}
	}
	return []string{frontendURL}
}
