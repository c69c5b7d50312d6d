// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/corvand/remedy/internal/api"
	"github.com/corvand/remedy/internal/blob"
	"github.com/corvand/remedy/internal/cache"
	"github.com/corvand/remedy/internal/editsession"
	"github.com/corvand/remedy/internal/events"
	"github.com/corvand/remedy/internal/mcpserver"
	"github.com/corvand/remedy/internal/mutate"
	"github.com/corvand/remedy/internal/record"
	"github.com/corvand/remedy/internal/session"
	"github.com/corvand/remedy/internal/store"
)

// Collection names in the document store.
const (
	CollectionMedicines = "medicines"
	CollectionOrders    = "orders"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("blob_dir", cfg.Blob.Dir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the document store.
	var docs store.Store
	switch cfg.Store.Driver {
	case StoreDriverMemory:
		docs = store.NewMemory()
	default:
		sq, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		docs = sq
	}
	defer docs.Close()

	// Initialize the blob store.
	blobs, err := blob.NewFS(cfg.Blob.Dir, cfg.Blob.PublicURL)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	// Authentication signal and gate; one subscription for the process
	// lifetime.
	auth := session.NewAuthenticator(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.StaffAccounts(), cfg.Auth.AllowSignup)
	gate := session.NewGate(auth)
	defer gate.Close()

	// Record-change event broker.
	broker := events.NewBroker()
	defer broker.Close()

	// Collection caches and mutation coordinators.
	medicines := mutate.New(docs, blobs, cache.New[record.Medicine](),
		CollectionMedicines, record.DecodeMedicine, broker)
	orders := mutate.New(docs, blobs, cache.New[record.Order](),
		CollectionOrders, record.DecodeOrder, broker)

	// Initial loads populate the view; a failure is recorded on the cache
	// and retried by later operations rather than aborting startup.
	if err := medicines.Load(ctx); err != nil {
		logger.Warn("initial medicines load failed", slog.String("error", err.Error()))
	}
	if err := orders.Load(ctx); err != nil {
		logger.Warn("initial orders load failed", slog.String("error", err.Error()))
	}

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return mcpserver.New(medicines, orders).ServeStdio()
	}

	edit := editsession.New[record.Medicine]()

	apiRouter := api.NewRouter(api.Deps{
		Auth:      auth,
		Gate:      gate,
		Medicines: medicines,
		Orders:    orders,
		Edit:      edit,
		Events:    broker,
		AssetRoot: blobs.Root(),
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus exposition.
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
