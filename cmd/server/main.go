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

	"github.com/redis/go-redis/v9"

	"github.com/nosmoke/nosmoke-api/internal/config"
	"github.com/nosmoke/nosmoke-api/internal/database"
	"github.com/nosmoke/nosmoke-api/internal/logging"
	"github.com/nosmoke/nosmoke-api/internal/payments"
	"github.com/nosmoke/nosmoke-api/internal/server"
	"github.com/nosmoke/nosmoke-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	if cfg.SeedDevData {
		if err := database.SeedDevData(db); err != nil {
			slog.Warn("Failed to seed dev data", "error", err)
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		return err
	}
	defer worker.CloseClient()

	stopWorker, err := worker.Start(cfg, db, rdb)
	if err != nil {
		return err
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg)
	if err != nil {
		return err
	}
	defer stopScheduler()

	var provider payments.Provider
	if cfg.PaymentStubMode || cfg.StripeAPIKey == "" {
		slog.Warn("Payment provider running in stub mode")
		provider = payments.NewStubProvider()
	} else {
		provider = payments.NewStripeProvider(cfg.StripeAPIKey)
	}

	r := server.New(cfg, db, provider, rdb)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
