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

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront/internal/backend"
	"github.com/jcmexdev/storefront/internal/backend/metrics"
	"github.com/jcmexdev/storefront/internal/backend/saga/sagalog"
	sagalogsqlite "github.com/jcmexdev/storefront/internal/backend/saga/sagalog/sqlite"
	"github.com/jcmexdev/storefront/internal/pkg/config"
	"github.com/jcmexdev/storefront/internal/pkg/telemetry"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadBackend()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	limit, err := decimal.NewFromString(cfg.PaymentLimit)
	if err != nil {
		slog.Error("invalid PAYMENT_LIMIT", "value", cfg.PaymentLimit, "error", err)
		os.Exit(1)
	}

	var sagaLog sagalog.Repository
	if cfg.SagaLogPath != "" {
		repo, err := sagalogsqlite.Open(cfg.SagaLogPath)
		if err != nil {
			slog.Error("failed to open saga log", "path", cfg.SagaLogPath, "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		sagaLog = repo
	}

	srv := backend.New(backend.Options{
		JWTSecret:    []byte(cfg.JWTSecret),
		TokenTTL:     cfg.TokenTTL,
		PaymentLimit: limit,
		SagaLog:      sagaLog,
		Metrics:      metrics.New(),
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(srv.Handler, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown error", "error", err)
		}
	}()

	slog.Info("storefront backend running", "addr", httpServer.Addr, "payment_limit", limit.StringFixed(2))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
