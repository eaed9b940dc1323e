package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	achttp "github.com/teamspan/agentcore/internal/adapter/http"
	acnats "github.com/teamspan/agentcore/internal/adapter/nats"
	acotel "github.com/teamspan/agentcore/internal/adapter/otel"
	"github.com/teamspan/agentcore/internal/adapter/postgres"
	"github.com/teamspan/agentcore/internal/adapter/ristretto"
	"github.com/teamspan/agentcore/internal/config"
	"github.com/teamspan/agentcore/internal/logger"
	"github.com/teamspan/agentcore/internal/middleware"
	"github.com/teamspan/agentcore/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	var shutdownOtel acotel.ShutdownFunc
	if cfg.Otel.Enabled {
		shutdownOtel, err = acotel.Init(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
	} else {
		shutdownOtel = acotel.InitNoop(cfg.Logging.Service)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	metrics, err := acotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := acnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Roster cache
	rosterCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer rosterCache.Close()

	// --- Services ---
	store := postgres.NewStore(pool)
	registrySvc := service.NewRegistryService(store, queue, rosterCache, cfg.Cache.RosterTTL)
	busSvc := service.NewBusService(store, queue)
	ledgerSvc := service.NewLedgerService(store, queue)
	auditSvc := service.NewAuditService(store)

	registrySvc.SetMetrics(metrics)
	busSvc.SetMetrics(metrics)
	ledgerSvc.SetMetrics(metrics)
	auditSvc.SetMetrics(metrics)

	// Mirror coordination events into the audit trail.
	cancelRecorder, err := auditSvc.StartEventRecorder(ctx, queue)
	if err != nil {
		return fmt.Errorf("event recorder: %w", err)
	}
	defer cancelRecorder()

	// --- HTTP ---
	handlers := achttp.NewHandlers(registrySvc, busSvc, ledgerSvc, auditSvc)

	r := chi.NewRouter()
	r.Use(achttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(achttp.Logger)
	r.Use(acotel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg, pool))

	achttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	if cfg.Sweeper.Enabled {
		g.Go(func() error {
			busSvc.RunSweeper(gctx, cfg.Sweeper.Interval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(cfg *config.Config, pool *pgxpool.Pool) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "up", NATS: cfg.NATS.URL}
		if err := pool.Ping(r.Context()); err != nil {
			status.Status = "degraded"
			status.Postgres = "down"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
