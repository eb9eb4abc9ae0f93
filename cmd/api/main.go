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

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/carnoises/ingresos-gastos-app/internal/api"
	"github.com/carnoises/ingresos-gastos-app/internal/config"
	"github.com/carnoises/ingresos-gastos-app/internal/events"
	"github.com/carnoises/ingresos-gastos-app/internal/ledger"
	applog "github.com/carnoises/ingresos-gastos-app/internal/log"
	"github.com/carnoises/ingresos-gastos-app/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := applog.Setup(cfg.LogLevel)

	// An unreachable store is fatal: the service must not come up and
	// silently fail every request.
	store, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open store", "component", applog.ComponentStorage, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("store ready", "component", applog.ComponentStorage, "dialect", store.Dialect())

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("event publishing disabled", "component", applog.ComponentAMQP, "error", err)
		} else {
			publisher = amqpPublisher
			logger.Info("event publishing enabled", "component", applog.ComponentAMQP, "exchange", cfg.AMQPExchange)
		}
	}
	defer publisher.Close()

	svc := ledger.New(store, publisher)
	server := api.New(svc, store, api.Options{
		CORSOrigins:     cfg.CORSOrigins,
		ReportCacheSize: cfg.ReportCacheSize,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        server.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("starting server", "component", applog.ComponentApp, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received", "component", applog.ComponentApp)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "component", applog.ComponentApp, "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully", "component", applog.ComponentApp)
}
