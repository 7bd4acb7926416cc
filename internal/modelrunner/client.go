package modelrunner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fincast/internal/config"
)

// Endpoint paths on the model runner service.
const (
	forecastPath = "/forecast"
	explainPath  = "/explain"
	healthPath   = "/health"
)

// ErrNotConfigured is returned when no base URL has been configured for
// the model runner.
var ErrNotConfigured = errors.New("model runner is not configured")

// StatusError is returned when the model runner replies with a non-2xx
// status code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model runner returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is worth another attempt.
// Upstream 5xx responses are transient; 4xx means the request itself is
// wrong and will not improve on retry.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client talks to the external model runner service hosting the
// forecasting model and the explainability engine.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	maxRetries int
}

// New creates a model runner client from configuration. A client with an
// empty base URL is valid but refuses calls with ErrNotConfigured.
func New(cfg config.ModelRunnerConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultModelRunnerTimeout
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "modelrunner_client")),
		maxRetries: cfg.MaxRetries,
	}
}

// Configured reports whether a base URL has been set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Forecast sends history and future rows to the forecasting model and
// returns the predicted points.
func (c *Client) Forecast(ctx context.Context, req *ForecastRequest) (*ForecastResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	var resp ForecastResponse
	if err := c.postJSONWithRetry(ctx, forecastPath, req, &resp); err != nil {
		return nil, fmt.Errorf("forecast call: %w", err)
	}

	c.logger.DebugContext(ctx, "model runner forecast completed",
		slog.Int("history_rows", len(req.History)),
		slog.Int("future_rows", len(req.Future)),
		slog.Int("points", len(resp.Points)),
		slog.Duration("duration", time.Since(start)))

	return &resp, nil
}

// Explain asks the explainability engine for raw per-feature importance
// values for the given entity.
func (c *Client) Explain(ctx context.Context, req *ExplainRequest) (*ExplainResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	var resp ExplainResponse
	if err := c.postJSONWithRetry(ctx, explainPath, req, &resp); err != nil {
		return nil, fmt.Errorf("explain call: %w", err)
	}

	c.logger.DebugContext(ctx, "model runner explain completed",
		slog.String("entity", req.Entity),
		slog.Int("features", len(resp.Features)),
		slog.Duration("duration", time.Since(start)))

	return &resp, nil
}

// Ping checks model runner reachability with a single health probe.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}
	return nil
}

// postJSONWithRetry posts JSON with up to maxRetries additional attempts
// for transient failures, backing off linearly between attempts.
func (c *Client) postJSONWithRetry(ctx context.Context, path string, payload, dest interface{}) error {
	attempts := c.maxRetries + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = c.postJSON(ctx, path, payload, dest)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == attempts {
			return err
		}

		c.logger.WarnContext(ctx, "model runner call failed, retrying",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// postJSON posts the given payload to path under the base URL and decodes
// the JSON response into dest.
func (c *Client) postJSON(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// isRetryable reports whether err is transient: transport failures and
// upstream 5xx responses qualify, context cancellation and 4xx do not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

// readErrorBody captures a bounded slice of an error response for
// diagnostics.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
