package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskFinalizeCheckout   = "checkout:finalize"
	TaskSweepSubscriptions = "subscription:sweep"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueFinalizeCheckout enqueues finalization of a paid checkout session.
// Unique per session so a burst of duplicate webhook deliveries collapses
// into one pending task.
func EnqueueFinalizeCheckout(sessionID string) error {
	payload, err := json.Marshal(map[string]string{
		"session_id": sessionID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskFinalizeCheckout,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(1*time.Minute),
		asynq.Retention(24*time.Hour),
		asynq.Unique(10*time.Minute),
	)

	_, err = client.Enqueue(task)
	return err
}
