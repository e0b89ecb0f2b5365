package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no webhook URL was provided.
var ErrNotConfigured = errors.New("webhook url is not configured")

// StatusError reports a webhook answering outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}

// Client posts JSON payloads to a workflow-automation webhook.
// Every Send is a single attempt; delivery is best effort.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// New returns a Client for url. An empty url yields a Client whose Send fails with ErrNotConfigured.
func New(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("webhook"),
	}
}

// Configured reports whether the client has a destination.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// Send marshals payload and posts it once.
func (c *Client) Send(ctx context.Context, payload any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	key := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.logger.Debug("webhook delivered",
		zap.Int("status", resp.StatusCode),
		zap.String("idempotency_key", key),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
