package exceptionmanager

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

	"caseprocessor/internal/platform/metrics"
	"caseprocessor/pkg/platform/sentinel"
)

// Endpoint paths relative to the manager's base URL.
const (
	pathReportException = "/reportexception"
	pathStoreSkipped    = "/storeskippedmessage"
	pathPeekReply       = "/peekreply"
)

// ErrCircuitOpen is returned while the breaker refuses calls.
var ErrCircuitOpen = fmt.Errorf("%w: exception manager circuit open", sentinel.ErrUnavailable)

// Client calls the exception manager over HTTP with JSON bodies. Every failure,
// including non-2xx responses, wraps sentinel.ErrUnavailable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *CircuitBreaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCircuitBreaker guards calls with cb.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(cl *Client) { cl.breaker = cb }
}

// WithMetrics enables call metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a client for the manager at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("exception manager URL is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ReportException reports a failed message and returns the manager's advice.
func (c *Client) ReportException(ctx context.Context, report ExceptionReport) (*Advice, error) {
	var advice Advice
	if err := c.post(ctx, "report_exception", pathReportException, report, &advice); err != nil {
		return nil, err
	}
	return &advice, nil
}

// StoreMessageBeforeSkipping quarantines msg with the manager.
func (c *Client) StoreMessageBeforeSkipping(ctx context.Context, msg SkippedMessage) error {
	return c.post(ctx, "store_skipped_message", pathStoreSkipped, msg, nil)
}

// RespondToPeek sends the raw bytes of the message identified by messageHash.
func (c *Client) RespondToPeek(ctx context.Context, messageHash string, payload []byte) error {
	return c.post(ctx, "peek_reply", pathPeekReply, PeekReply{MessageHash: messageHash, MessagePayload: payload}, nil)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) (err error) {
	defer func() { c.metrics.IncrementExceptionManagerCall(operation, err) }()

	if c.breaker != nil && !c.breaker.Allow() {
		c.logger.WarnContext(ctx, "exception manager circuit open, call refused", "operation", operation)
		return ErrCircuitOpen
	}
	err = c.do(ctx, path, body, out)
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: call %s: %v", sentinel.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", sentinel.ErrUnavailable, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", sentinel.ErrUnavailable, path, err)
	}
	return nil
}
