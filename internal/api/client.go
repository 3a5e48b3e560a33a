package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultUserAgent = "tickerdesk"

// Client performs platform requests. A Client owns its rate limiter; share a
// Client between goroutines rather than creating one per call.
type Client struct {
	baseURL   *url.URL
	apiKey    string
	userAgent string
	timeout   time.Duration
	retry     RetryPolicy

	httpClient *http.Client
	limiter    *windowLimiter
	tracer     *Tracer
	logger     *logging.Logger

	sleep func(context.Context, time.Duration) error
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
	Attempts   int
}

// New returns a client with defaults applied.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", base)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing host", base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retry := DefaultRetryPolicy()
	if cfg.Retry != nil {
		retry = cfg.Retry.normalized()
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:    parsed,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		userAgent:  userAgent,
		timeout:    timeout,
		retry:      retry,
		httpClient: httpClient,
		limiter:    newWindowLimiter(cfg.RateLimit),
		tracer:     cfg.Tracer,
		logger:     cfg.Logger,
		sleep:      sleepContext,
	}, nil
}

// BaseURL returns the platform base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Get issues a GET and decodes the JSON response into out (if non-nil).
func (c *Client) Get(ctx context.Context, path string, query map[string]any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, out)
}

// Do sends req and decodes a JSON response into out. out may be nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Error{
			Kind:       KindTransport,
			Message:    fmt.Sprintf("decode response: %v", err),
			StatusCode: resp.StatusCode,
			RequestID:  resp.RequestID,
			Err:        err,
		}
	}
	return nil
}

// Send performs req with rate limiting and retries. The returned error is
// always an *Error.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		payload = encoded
	}

	target := resolveURL(c.baseURL, req.Path, req.Query)

	for attempt := 1; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransport, Message: "request canceled", Err: err}
		}

		resp, apiErr := c.attempt(ctx, method, target, payload, attempt)
		if apiErr == nil {
			resp.Attempts = attempt
			return resp, nil
		}

		if attempt > c.retry.MaxRetries || !apiErr.Transient() || ctx.Err() != nil {
			return nil, apiErr
		}

		delay := c.retry.Delay(attempt)
		if apiErr.retryAfter > delay {
			delay = min(apiErr.retryAfter, c.retry.MaxDelay)
		}

		c.debug("Retrying request",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("attempt", attempt),
			zap.String("error_kind", string(apiErr.Kind)),
			zap.Int("status_code", apiErr.StatusCode),
			zap.Duration("delay", delay),
		)

		if err := c.sleep(ctx, delay); err != nil {
			return nil, &Error{Kind: KindTransport, Message: "request canceled", Err: err}
		}
	}
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, attempt int) (*Response, *Error) {
	requestID := uuid.New().String()
	startedAt := time.Now()

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		apiErr := &Error{Kind: KindTransport, Message: fmt.Sprintf("build request: %v", err), RequestID: requestID, Err: err}
		return nil, apiErr
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := classifyTransport(ctx, err, c.baseURL.Host, c.timeout)
		apiErr.RequestID = requestID
		c.trace(method, target, attempt, requestID, 0, apiErr, startedAt)
		return nil, apiErr
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := classifyTransport(ctx, err, c.baseURL.Host, c.timeout)
		apiErr.StatusCode = resp.StatusCode
		apiErr.RequestID = requestID
		c.trace(method, target, attempt, requestID, resp.StatusCode, apiErr, startedAt)
		return nil, apiErr
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := classifyStatus(resp.StatusCode, resp.Header, data)
		apiErr.RequestID = requestID
		c.trace(method, target, attempt, requestID, resp.StatusCode, apiErr, startedAt)
		return nil, apiErr
	}

	c.trace(method, target, attempt, requestID, resp.StatusCode, nil, startedAt)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  requestID,
	}, nil
}

func (c *Client) trace(method, target string, attempt int, requestID string, status int, apiErr *Error, startedAt time.Time) {
	if c.tracer == nil {
		return
	}
	entry := TraceEntry{
		Timestamp:  startedAt,
		Method:     method,
		URL:        target,
		Attempt:    attempt,
		RequestID:  requestID,
		StatusCode: status,
		DurationMs: time.Since(startedAt).Milliseconds(),
	}
	if apiErr != nil {
		entry.ErrorKind = apiErr.Kind
		entry.Error = apiErr.Error()
	}
	if err := c.tracer.Write(entry); err != nil && c.tracer.firstFailure() {
		c.debug("Trace write failed",
			zap.String("path", c.tracer.Path()),
			zap.Error(err),
		)
	}
}

func (c *Client) debug(msg string, fields ...zap.Field) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(msg, fields...)
}
