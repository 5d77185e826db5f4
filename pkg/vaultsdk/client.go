package vaultsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Client is a client for a Vault-compatible secrets service. It is bound to
// one Config at construction and performs no mutable bookkeeping of its own,
// so a single Client is safe to share across goroutines.
//
// Tokens are not cached or persisted: the configured token rides on every
// request, and call sites that obtain a fresh token decide whether to build
// a new client with WithToken.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client from the given configuration. It fails when
// the address is absent or unparseable, or when TLS trust material cannot
// be loaded.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	httpClient, err := buildHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// WithToken returns a copy of the client bound to a different token. The
// receiver is unchanged; the copy shares the underlying transport.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.config.Token = token
	return &clone
}

// Address returns the base address the client was constructed with.
func (c *Client) Address() string { return c.config.Address }

// Auth returns the authentication API: logins and self-token lifecycle.
func (c *Client) Auth() *Auth { return &Auth{client: c} }

// Token returns the token-backend API: lifecycle operations on arbitrary
// tokens, a superset of what Auth offers for the client's own token.
func (c *Client) Token() *TokenAuth { return &TokenAuth{client: c} }

// Logical returns the generic secret read/write API.
func (c *Client) Logical() *Logical { return &Logical{client: c} }

// response is the outcome of one executed exchange, before any envelope
// shape checks.
type response struct {
	status   int
	body     []byte
	attempts int
}

// request runs the full pipeline for one logical operation: build the HTTP
// request, execute it under the retry policy, and classify the outcome.
// Non-2xx statuses come back as typed errors; 2xx outcomes return the raw
// body for envelope parsing.
func (c *Client) request(ctx context.Context, method, path string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &TransportError{Err: fmt.Errorf("encoding request body: %w", err)}
		}
		payload = encoded
	}

	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if resp.status < 200 || resp.status > 299 {
		if method == http.MethodGet && resp.status == http.StatusNotFound {
			return nil, &NotFoundError{Path: path}
		}
		return nil, parseErrorResponse(resp.status, resp.body, resp.attempts)
	}

	return resp, nil
}

// requestEnvelope is request plus envelope decoding, the shape most
// operations want.
func (c *Client) requestEnvelope(ctx context.Context, method, path string, body any) (*Envelope, error) {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return ParseEnvelope(resp.body)
}

// do executes the exchange under the retry policy. Each attempt builds a
// fresh *http.Request from the captured payload so retried bodies replay
// from the start.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*response, error) {
	op := method + " " + path
	maxAttempts := c.config.MaxRetries + 1

	var lastErr error
	var lastResp *response

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.pause(ctx); err != nil {
				return nil, &NetworkError{Op: op, Attempts: attempt - 1, Err: err}
			}
		}

		if c.config.Limiter != nil {
			if err := c.config.Limiter.Wait(ctx); err != nil {
				return nil, &NetworkError{Op: op, Attempts: attempt, Err: err}
			}
		}

		resp, err := c.attempt(ctx, method, path, payload)
		if err != nil {
			if !retryableNetworkError(ctx, err) {
				// Transport-level malformations and cancellations
				// propagate on first occurrence.
				var transportErr *TransportError
				if errors.As(err, &transportErr) {
					return nil, transportErr
				}
				return nil, &NetworkError{Op: op, Attempts: attempt, Err: err}
			}
			lastErr = err
			lastResp = nil
			c.logAttempt(ctx, method, path, 0, attempt, err)
			continue
		}

		resp.attempts = attempt
		c.logAttempt(ctx, method, path, resp.status, attempt, nil)

		if !retryableStatus(resp.status) {
			return resp, nil
		}
		lastErr = nil
		lastResp = resp
	}

	// Retry budget exhausted. A lingering 5xx body still carries the
	// server's error list, so hand it up for classification.
	if lastResp != nil {
		return lastResp, nil
	}
	return nil, &NetworkError{Op: op, Attempts: maxAttempts, Err: lastErr}
}

// attempt performs exactly one network round trip. No retry logic lives
// here, so the retry policy composes cleanly above it.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte) (*response, error) {
	url := c.config.Address + "/" + path

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("X-Vault-Token", c.config.Token)
	}
	req.Header.Set("X-Request-ID", newRequestID())

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		// Body aborted mid-stream: the exchange is malformed, not
		// transient, so this must not consume the retry budget.
		return nil, &TransportError{StatusCode: httpResp.StatusCode, Err: err}
	}

	return &response{status: httpResp.StatusCode, body: body}, nil
}

// pause waits out the retry interval, honoring cancellation.
func (c *Client) pause(ctx context.Context) error {
	timer := time.NewTimer(c.config.RetryInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logAttempt emits one debug record per attempt. Paths are logged as given;
// tokens never are.
func (c *Client) logAttempt(ctx context.Context, method, path string, status, attempt int, err error) {
	if c.logger == nil {
		return
	}

	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "vault request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "vault request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Int("attempt", attempt),
	)
}
