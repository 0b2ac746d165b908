// Package bot is the HTTP client for the external conversational bot. The
// bot answers inbound chats on its own; this client covers the dashboard's
// outbound sends and the context-drop notification on lead deletion.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"camicam_crm_backend/platform/config"
	"camicam_crm_backend/platform/logger"
)

type Client struct {
	baseURL    string
	attempts   int
	retryDelay time.Duration
	http       *http.Client
	log        *logger.Logger
}

type textRequest struct {
	Phone   string `json:"numero"`
	Message string `json:"mensaje"`
}

type imageRequest struct {
	Phone   string `json:"numero"`
	URL     string `json:"url"`
	Caption string `json:"descripcion,omitempty"`
}

type forgetRequest struct {
	Phone string `json:"numero"`
}

// NewClient returns nil when no bot URL is configured; a nil client turns
// every call into a no-op so callers need no enabled-check.
func NewClient(cfg config.BotConfig, log *logger.Logger) *Client {
	if !cfg.IsBotEnabled() {
		return nil
	}

	attempts := cfg.GetBotRetryAttempts()
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetBotURL(), "/"),
		attempts:   attempts,
		retryDelay: cfg.GetBotRetryDelay(),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// SendText delivers a plain text message.
func (c *Client) SendText(ctx context.Context, phoneNumber, body string) error {
	if c == nil {
		return nil
	}
	return c.post(ctx, "/enviar_mensaje", textRequest{Phone: phoneNumber, Message: body})
}

// SendImage delivers an image by URL with an optional caption.
func (c *Client) SendImage(ctx context.Context, phoneNumber, imageURL, caption string) error {
	if c == nil {
		return nil
	}
	return c.post(ctx, "/enviar_imagen", imageRequest{Phone: phoneNumber, URL: imageURL, Caption: caption})
}

// DropContext tells the bot to forget its cached conversation state for a
// phone number, after the lead was deleted.
func (c *Client) DropContext(ctx context.Context, phoneNumber string) error {
	if c == nil {
		return nil
	}
	return c.post(ctx, "/olvidar_contexto", forgetRequest{Phone: phoneNumber})
}

// post sends the payload with bounded retries. Each failure waits the
// configured delay before the next attempt.
func (c *Client) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal bot payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lastErr = c.doOnce(ctx, path, body)
		if lastErr == nil {
			return nil
		}
		c.log.Warn("bot request failed", "path", path, "attempt", attempt, "error", lastErr)
	}
	return fmt.Errorf("bot unreachable after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bot returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}
