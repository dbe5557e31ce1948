package legiscan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Config holds LegiScan client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	State          string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// APIError is a provider-reported failure (payload status == "ERROR").
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("legiscan %s: %s", e.Op, e.Message)
}

// Client issues op-keyed GET requests against the LegiScan API root.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	state          string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		state:          cfg.State,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// envelope is the common response wrapper. A provider error is signaled by
// status "ERROR" with a message under alert.
type envelope struct {
	Status string `json:"status"`
	Alert  *struct {
		Message string `json:"message"`
	} `json:"alert"`
}

func (c *Client) request(ctx context.Context, op string, params map[string]string, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("legiscan %s: API key is not configured", op)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	q.Set("op", op)
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		lastErr = c.doRequest(ctx, op, u.String(), out)
		if lastErr == nil {
			return nil
		}
		// Provider-reported errors are authoritative, not transient.
		if _, ok := lastErr.(*APIError); ok {
			return lastErr
		}
		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) doRequest(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "LegisPulse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status == "ERROR" {
		msg := "LegiScan API error"
		if env.Alert != nil && env.Alert.Message != "" {
			msg = env.Alert.Message
		}
		return &APIError{Op: op, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}
