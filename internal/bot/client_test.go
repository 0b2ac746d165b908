package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"camicam_crm_backend/platform/logger"
)

type testBotConfig struct {
	url      string
	attempts int
	delay    time.Duration
}

func (c testBotConfig) GetBotURL() string               { return c.url }
func (c testBotConfig) GetBotRetryAttempts() int        { return c.attempts }
func (c testBotConfig) GetBotRetryDelay() time.Duration { return c.delay }
func (c testBotConfig) IsBotEnabled() bool              { return c.url != "" }

func TestNilClientIsNoOp(t *testing.T) {
	client := NewClient(testBotConfig{}, logger.New("test"))
	if client != nil {
		t.Fatal("disabled config should produce a nil client")
	}
	if err := client.SendText(context.Background(), "5215512345678", "hola"); err != nil {
		t.Errorf("nil client SendText: %v", err)
	}
	if err := client.DropContext(context.Background(), "5215512345678"); err != nil {
		t.Errorf("nil client DropContext: %v", err)
	}
}

func TestSendTextPayload(t *testing.T) {
	var got textRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/enviar_mensaje" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testBotConfig{url: srv.URL, attempts: 1}, logger.New("test"))
	if err := client.SendText(context.Background(), "5215512345678", "hola"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Phone != "5215512345678" || got.Message != "hola" {
		t.Errorf("payload = %+v", got)
	}
}

func TestRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(testBotConfig{url: srv.URL, attempts: 3, delay: time.Millisecond}, logger.New("test"))
	if err := client.DropContext(context.Background(), "5215512345678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGivesUpAfterConfiguredAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testBotConfig{url: srv.URL, attempts: 3, delay: time.Millisecond}, logger.New("test"))
	if err := client.SendImage(context.Background(), "5215512345678", "https://cdn.example.com/p.jpg", ""); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testBotConfig{url: srv.URL, attempts: 5, delay: time.Minute}, logger.New("test"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := client.SendText(ctx, "5215512345678", "hola"); err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancelled context must interrupt the retry wait")
	}
}
