// Offer Arena - Multi-Party Job Offer Debate Server
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

	"github.com/offerarena/offerarena/internal/api"
	"github.com/offerarena/offerarena/internal/config"
	"github.com/offerarena/offerarena/internal/debate"
	"github.com/offerarena/offerarena/internal/gateway"
	"github.com/offerarena/offerarena/internal/identity"
	"github.com/offerarena/offerarena/internal/middleware"
	"github.com/offerarena/offerarena/internal/scrape"
	"github.com/offerarena/offerarena/internal/store"
	"github.com/offerarena/offerarena/internal/transcript"
	"github.com/offerarena/offerarena/internal/transport"
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

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "shared_arena", cfg.SharedArena)

	// Initialize dependencies.
	offers := store.NewOfferStore(scrape.NewHTTPFetcher(cfg.FetchTimeout))
	history := store.NewHistoryStore()

	transcriptLog, err := transcript.New(cfg.Transcript)
	if err != nil {
		slog.Error("Failed to initialize transcript logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := transcriptLog.Close(); closeErr != nil {
			slog.Error("Failed to close transcript logger", "error", closeErr)
		}
	}()

	completer := gateway.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	gw := gateway.New(completer, cfg.MinRequestInterval)
	slog.Info("Completion gateway initialized", "model", cfg.OpenAIModel, "min_interval", cfg.MinRequestInterval)

	// Initialize services.
	assembler := debate.NewAssembler(offers, history, cfg.HistoryWindow)
	channels := transport.NewChannelManager()
	orch := debate.New(offers, history, assembler, gw, channels, debate.Options{
		SharedArena:     cfg.SharedArena,
		FormStepTimeout: cfg.FormStepTimeout,
		Recorder:        transcriptLog,
	})

	// Initialize handlers.
	offerHandler := api.NewOfferHandler(orch)
	wsHandler := transport.NewWebSocketHandler(orch, channels, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{cfg.FrontendURL}))
	r.Use(identity.Middleware(cfg.IsDevelopment()))

	// All routes use identity middleware (no auth needed).
	offerHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server. WriteTimeout stays 0 so long-lived WebSocket
	// connections are not cut off.
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
