// Package worker runs background tasks on Asynq: finalizing paid checkout
// sessions delivered by the payment webhook, and the periodic sweep that
// downgrades lapsed premium subscriptions.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/nosmoke/nosmoke-api/internal/config"
	"github.com/nosmoke/nosmoke-api/internal/logging"
	"github.com/nosmoke/nosmoke-api/internal/models"
	"github.com/nosmoke/nosmoke-api/internal/payments"
)

// sweepLastRunKey records when the last subscription sweep completed, for
// operator visibility.
const sweepLastRunKey = "subscription:sweep:last_run"

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Start starts the Asynq worker in non-blocking mode and returns a stop
// function so the caller can coordinate shutdown.
func Start(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (stop func(), err error) {
	srv, mux, err := newServer(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err.Error())
			}),
			Logger: &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFinalizeCheckout, handleFinalizeCheckout(logger, db))
	mux.HandleFunc(TaskSweepSubscriptions, handleSweepSubscriptions(logger, db, rdb))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleFinalizeCheckout marks a webhook-confirmed checkout session as paid
// and activates the user's subscription.
func handleFinalizeCheckout(logger *slog.Logger, db *gorm.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		logger.Info("Processing checkout:finalize task", "session_id", payload.SessionID)

		if err := payments.FinalizeCheckout(db.WithContext(ctx), payload.SessionID); err != nil {
			if errors.Is(err, payments.ErrTransactionNotFound) {
				// No transaction for this session - don't retry
				logger.Error("Transaction not found for session", "session_id", payload.SessionID)
				return fmt.Errorf("transaction not found: %w", asynq.SkipRetry)
			}
			return fmt.Errorf("failed to finalize checkout: %w", err)
		}

		return nil
	}
}

// handleSweepSubscriptions downgrades premium users whose subscription has
// lapsed. The last successful run timestamp is recorded in Redis.
func handleSweepSubscriptions(logger *slog.Logger, db *gorm.DB, rdb *redis.Client) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		now := time.Now().UTC()

		result := db.WithContext(ctx).
			Model(&models.User{}).
			Where("subscription_status = ? AND subscription_end IS NOT NULL AND subscription_end < ?",
				models.SubscriptionStatusPremium, now).
			Updates(map[string]interface{}{
				"subscription_status": models.SubscriptionStatusFree,
				"subscription_end":    nil,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to sweep subscriptions: %w", result.Error)
		}

		if result.RowsAffected > 0 {
			logger.Info("Downgraded lapsed subscriptions", "count", result.RowsAffected)
		}

		if rdb != nil {
			if err := rdb.Set(ctx, sweepLastRunKey, now.Format(time.RFC3339), 0).Err(); err != nil {
				logger.Warn("Failed to record sweep last-run", "error", err.Error())
			}
		}

		return nil
	}
}
