package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"camicam_crm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL    string
	queue       string
	concurrency int
	retention   time.Duration
}

func (c testSchedulerConfig) GetRedisURL() string                { return c.redisURL }
func (c testSchedulerConfig) GetAsynqQueueName() string          { return c.queue }
func (c testSchedulerConfig) GetAsynqConcurrency() int           { return c.concurrency }
func (c testSchedulerConfig) GetContextRetention() time.Duration { return c.retention }

type fakeCleaner struct {
	retention time.Duration
	cleared   int64
	err       error
	calls     int
}

func (f *fakeCleaner) CleanupStaleContexts(_ context.Context, retention time.Duration) (int64, error) {
	f.calls++
	f.retention = retention
	return f.cleared, f.err
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestEnqueueContextCleanup(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "maintenance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueContextCleanup(context.Background(), 30*24*time.Hour); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	if !srv.Exists("asynq:{maintenance}:pending") {
		t.Error("task not enqueued on the configured queue")
	}
}

func TestContextCleanupPayloadRoundTrip(t *testing.T) {
	task, err := NewContextCleanupTask(ContextCleanupPayload{RetentionHours: 720})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskContextCleanup {
		t.Errorf("task type = %q", task.Type())
	}

	payload, err := ParseContextCleanupPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RetentionHours != 720 {
		t.Errorf("retention = %d, want 720", payload.RetentionHours)
	}
}

func TestHandleContextCleanupUsesConfiguredRetention(t *testing.T) {
	cleaner := &fakeCleaner{cleared: 2}
	w := &Worker{cleaner: cleaner, retention: 720 * time.Hour, log: logger.New("test")}

	task, _ := NewContextCleanupTask(ContextCleanupPayload{})
	if err := w.handleContextCleanup(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaner.retention != 720*time.Hour {
		t.Errorf("retention = %v, want 720h", cleaner.retention)
	}
}

func TestHandleContextCleanupPayloadOverride(t *testing.T) {
	cleaner := &fakeCleaner{}
	w := &Worker{cleaner: cleaner, retention: 720 * time.Hour, log: logger.New("test")}

	task, _ := NewContextCleanupTask(ContextCleanupPayload{RetentionHours: 24})
	if err := w.handleContextCleanup(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaner.retention != 24*time.Hour {
		t.Errorf("retention = %v, want 24h", cleaner.retention)
	}
}

func TestHandleContextCleanupPropagatesErrors(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("db down")}
	w := &Worker{cleaner: cleaner, retention: time.Hour, log: logger.New("test")}

	task, _ := NewContextCleanupTask(ContextCleanupPayload{})
	if err := w.handleContextCleanup(context.Background(), task); err == nil {
		t.Fatal("expected error so asynq retries the task")
	}
}
