// Command worker runs the background task server: the periodic lead context
// cleanup and any one-off maintenance tasks enqueued by the API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camicam_crm_backend/internal/events"
	leadsrepo "camicam_crm_backend/internal/leads/repository"
	leadsvc "camicam_crm_backend/internal/leads/service"
	"camicam_crm_backend/internal/scheduler"
	"camicam_crm_backend/platform/config"
	"camicam_crm_backend/platform/db"
	"camicam_crm_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *db.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// The worker only clears stale conversation contexts; no bot client or
	// outbound notifications are involved.
	eventBus := events.NewInMemoryBus(log)
	leadsService := leadsvc.New(leadsrepo.New(pool), eventBus, nil, log)

	worker, err := scheduler.NewWorker(cfg, leadsService, log)
	if err != nil {
		log.Error("failed to create scheduler worker", "error", err)
		panic("failed to create scheduler worker: " + err.Error())
	}

	// Kick off one cleanup pass at startup so retention applies immediately
	// instead of waiting for the first periodic run.
	if client, err := scheduler.NewClient(cfg); err == nil {
		if err := client.EnqueueContextCleanup(ctx, cfg.GetContextRetention()); err != nil {
			log.Warn("failed to enqueue startup context cleanup", "error", err)
		}
		client.Close()
	}

	if err := worker.Run(ctx); err != nil {
		log.Error("worker exited with error", "error", err)
		panic("worker exited with error: " + err.Error())
	}
	log.Info("worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
