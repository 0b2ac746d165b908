package scheduler

import (
	"context"
	"fmt"
	"time"

	"camicam_crm_backend/platform/config"
	"camicam_crm_backend/platform/logger"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

// ContextCleaner erases conversational contexts older than the retention
// window. Implemented by the leads service.
type ContextCleaner interface {
	CleanupStaleContexts(ctx context.Context, retention time.Duration) (int64, error)
}

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	cleaner   ContextCleaner
	retention time.Duration
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, cleaner ContextCleaner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       mux,
		cleaner:   cleaner,
		retention: cfg.GetContextRetention(),
		log:       log,
	}

	mux.HandleFunc(TaskContextCleanup, w.handleContextCleanup)

	task, err := NewContextCleanupTask(ContextCleanupPayload{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register("@every 24h", task, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Worker) handleContextCleanup(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseContextCleanupPayload(task)
	if err != nil {
		return err
	}

	retention := w.retention
	if payload.RetentionHours > 0 {
		retention = time.Duration(payload.RetentionHours) * time.Hour
	}

	cleared, err := w.cleaner.CleanupStaleContexts(ctx, retention)
	if err != nil {
		return err
	}
	w.log.Info("context cleanup run finished", "cleared", cleared, "retention", retention)
	return nil
}

// Run starts the task server and the periodic registrar, blocking until the
// context is cancelled or either component fails.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return nil
	})

	g.Go(func() error {
		if err := w.scheduler.Run(); err != nil {
			return fmt.Errorf("periodic scheduler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := w.server.Run(w.mux); err != nil {
			return fmt.Errorf("task server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
