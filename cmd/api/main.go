// Package main is the entry point for the Schengen Keeper API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mhartwig/schengen-keeper/internal/assemble"
	"github.com/mhartwig/schengen-keeper/internal/collect"
	"github.com/mhartwig/schengen-keeper/internal/collect/filesource"
	"github.com/mhartwig/schengen-keeper/internal/config"
	"github.com/mhartwig/schengen-keeper/internal/domain"
	"github.com/mhartwig/schengen-keeper/internal/geocode"
	"github.com/mhartwig/schengen-keeper/internal/handler"
	"github.com/mhartwig/schengen-keeper/internal/importer"
	"github.com/mhartwig/schengen-keeper/internal/middleware"
	"github.com/mhartwig/schengen-keeper/internal/notify"
	"github.com/mhartwig/schengen-keeper/internal/repo"
	"github.com/mhartwig/schengen-keeper/internal/service"
	"github.com/mhartwig/schengen-keeper/spec"
)

// maxRequestBodyBytes caps incoming request bodies. Commit requests carry at
// most a list of candidate IDs; 1 MiB is generous.
const maxRequestBodyBytes = 1 << 20

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// --- Repositories and services ----------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	alertRepo := repo.NewAlertStateRepo(pool)

	thresholds := domain.Thresholds{
		Caution: cfg.StatusCaution,
		Warning: cfg.StatusWarning,
		Danger:  cfg.StatusDanger,
	}
	ledger := service.NewLedgerService(tripRepo)
	compliance := service.NewComplianceService(tripRepo, thresholds)

	// Alert transitions go to Kafka when brokers are configured; otherwise
	// they are only logged.
	var publisher notify.Publisher = notify.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
		defer kafka.Close()
		publisher = kafka
		slog.Info("alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	}
	alerts := service.NewAlertsService(compliance, alertRepo, publisher)

	// --- Import pipeline ---------------------------------------------------
	// Reverse geocoding hits a Nominatim-compatible endpoint, memoized per
	// session and optionally in a shared Redis cache.
	var sharedCache geocode.BytesCache
	if cfg.RedisAddr != "" {
		sharedCache = geocode.NewRedisCache(cfg.RedisAddr)
		slog.Info("shared geocode cache enabled", "addr", cfg.RedisAddr)
	}
	resolver := geocode.NewResolver(
		geocode.NewNominatimClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent),
		sharedCache,
	)

	// Background work (import scans, alert evaluation) lives until shutdown,
	// independent of the requests that trigger it.
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	calendarSource := collect.NewCalendarCollector(&filesource.Calendar{Path: cfg.CalendarExportPath})
	photoSource := collect.NewPhotoCollector(&filesource.Photos{Path: cfg.PhotoExportPath})
	imports := importer.NewRegistry(bgCtx, calendarSource, photoSource, resolver, ledger, assemble.Config{
		PhotoGapDays:    cfg.PhotoGapDays,
		CalendarGapDays: cfg.CalendarGapDays,
	})

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS, body cap.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBodyBytes))

	srvHandlers := handler.NewServer(ledger, compliance, alerts, imports, spec.OpenAPI)
	r.Mount("/", srvHandlers.Routes())

	// --- Background alert evaluation ---------------------------------------
	go alerts.RunPeriodic(bgCtx, cfg.AlertInterval)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
