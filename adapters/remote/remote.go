// Package remote provides the HTTP dispatch strategy: capability calls are
// serialized to the module's REST representation and issued against a
// configured endpoint. Every transport failure is classified into the
// capability error taxonomy before it crosses back over the contract, and
// transient failures are retried within a bounded budget.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/pkg/backoff"
)

// DefaultAttempts is the total call budget (first try plus retries).
const DefaultAttempts = 4

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 10 * time.Second

// Client issues JSON requests against a remote module endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	attempts   int
	backoff    backoff.Strategy
	onRetry    func(attempt int)
	logger     zerolog.Logger
}

// ClientConfig configures the remote client.
type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Headers  map[string]string
	Attempts int              // total attempts; 0 = DefaultAttempts
	Backoff  backoff.Strategy // nil = backoff.Default()
	OnRetry  func(attempt int)
	Logger   zerolog.Logger
}

// NewClient creates a new remote HTTP client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	strategy := cfg.Backoff
	if strategy == nil {
		strategy = backoff.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		headers:    cfg.Headers,
		attempts:   attempts,
		backoff:    strategy,
		onRetry:    cfg.OnRetry,
		logger:     cfg.Logger,
	}
}

// Do sends a request and decodes the response into result (when non-nil).
// Unavailable-classified failures are retried up to the attempt budget with
// backoff between tries; retries run strictly sequentially. Validation and
// not-found failures are never retried. The returned error, when non-nil, is
// always a *capability.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return capability.Unexpected("could not encode request", err)
		}
		payload = data
	}

	var last *capability.Error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		err := c.once(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}
		last = capability.Classify(err)
		if last.Kind != capability.KindUnavailable {
			return last
		}
		if attempt == c.attempts {
			break
		}

		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt).
			Msg("transient dispatch failure, retrying")
		if c.onRetry != nil {
			c.onRetry(attempt)
		}

		select {
		case <-time.After(c.backoff.Delay(attempt)):
		case <-ctx.Done():
			return capability.FromContext(ctx.Err())
		}
	}
	return last
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return capability.Unexpected("could not build request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return capability.FromContext(ctxErr)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return capability.Unavailable("endpoint timeout")
		}
		// Connection-level failures are transient by classification.
		return capability.Unavailable(fmt.Sprintf("endpoint unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return classifyStatus(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return capability.Unexpected("malformed response payload", err)
		}
	}
	return nil
}

// errorBody is the structured error the module's REST surface returns.
type errorBody struct {
	Error struct {
		Kind    string `json:"kind"`
		Field   string `json:"field,omitempty"`
		ID      string `json:"id,omitempty"`
		Message string `json:"message"`
	} `json:"error"`
}

// classifyStatus maps an HTTP failure status onto the error taxonomy:
// 404 is NotFound, 400/422 are Validation, 429 and 5xx are transient
// (retryable) Unavailable, anything else is Unexpected. Structured error
// bodies refine the field/id/message when present.
func classifyStatus(resp *http.Response) *capability.Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	message := eb.Error.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		id := eb.Error.ID
		if id == "" {
			id = "unknown"
		}
		return capability.NotFound(id)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		field := eb.Error.Field
		if field == "" {
			field = "request"
		}
		return capability.Validation(field, message)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return capability.Unavailable(fmt.Sprintf("endpoint returned %d: %s", resp.StatusCode, message))
	default:
		return capability.Unexpected(fmt.Sprintf("endpoint returned %d", resp.StatusCode), nil)
	}
}
