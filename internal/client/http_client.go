package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stats-loader/internal/logger"
	"stats-loader/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var HttpClientTracer = otel.Tracer("HttpClient")

var (
	ErrRequest = errors.New("request failed")
	ErrRead    = errors.New("read response body failed")
	ErrDecode  = errors.New("decode response body failed")
)

// StatusError is returned for a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status " + e.Status
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// HTTPClient wraps *http.Client with a base URL, tracing and request logging.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// RequestOptions for request configuration
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Timeout     time.Duration
	Context     context.Context
}

// Response wrapper with generic type
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

// NewHTTPClient creates a client. A zero timeout means requests are never cut short.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return NewHTTPClientWith(&http.Client{Timeout: timeout}, baseURL)
}

// NewHTTPClientWith uses hc as the underlying transport client.
func NewHTTPClientWith(hc *http.Client, baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

// SetDefaultHeader adds a header sent with every request.
func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Do performs the request and returns the raw body. Status codes are not checked.
func (c *HTTPClient) Do(opts RequestOptions) (*Response[[]byte], error) {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.buildURL(opts.URL, opts.QueryParams)
	if err != nil {
		logger.Error(ctx, "Failed to build URL", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: build URL: %w", ErrRequest, err)
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient.Do")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", fullURL),
	)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		recordError(span, err)
		logger.Error(ctx, "Failed to create request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: create request: %w", ErrRequest, err)
	}

	// Standard trace context headers only; a no-op unless a propagator is registered.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	c.setHeaders(req, opts.Headers)

	logger.Info(ctx, "HttpClient request",
		slog.String("http.direction", "outgoing::request"),
		slog.String("http.method", req.Method),
		slog.String("http.url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		recordError(span, err)
		logger.Error(ctx, "Failed to execute request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		recordError(span, err)
		logger.Error(ctx, "Failed to read response body", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info(ctx, "HttpClient response", logger.LogClientResponse(req, resp, rawBody, time.Since(start))...)

	return &Response[[]byte]{
		Data:       rawBody,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    rawBody,
	}, nil
}

// GetJSON performs a GET, requires a 2xx status and decodes the body into T.
func GetJSON[T any](c *HTTPClient, url string, opts ...RequestOptions) (*Response[T], error) {
	reqOpts := RequestOptions{
		Method: http.MethodGet,
		URL:    url,
	}
	if len(opts) > 0 {
		reqOpts = c.mergeOptions(reqOpts, opts[0])
	}

	raw, err := c.Do(reqOpts)
	if err != nil {
		return nil, err
	}

	out := &Response[T]{
		StatusCode: raw.StatusCode,
		Headers:    raw.Headers,
		RawBody:    raw.RawBody,
	}
	if !raw.IsSuccess() {
		return out, &StatusError{StatusCode: raw.StatusCode, Status: statusText(raw.StatusCode)}
	}
	if err := json.Unmarshal(raw.RawBody, &out.Data); err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return out, nil
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return ""
}

// buildURL builds complete URL with query parameters
func (c *HTTPClient) buildURL(endpoint string, queryParams map[string]string) (string, error) {
	var fullURL string

	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		fullURL = endpoint
	} else {
		fullURL = utils.JoinURL(c.baseURL, endpoint)
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: scheme and host are required", fullURL)
	}

	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// setHeaders sets defaults first, then per-request headers on top.
func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// mergeOptions merges request options
func (c *HTTPClient) mergeOptions(base, override RequestOptions) RequestOptions {
	if override.Method != "" {
		base.Method = override.Method
	}
	if override.URL != "" {
		base.URL = override.URL
	}
	if override.Context != nil {
		base.Context = override.Context
	}
	if override.Timeout > 0 {
		base.Timeout = override.Timeout
	}

	if base.Headers == nil {
		base.Headers = make(map[string]string)
	}
	for k, v := range override.Headers {
		base.Headers[k] = v
	}

	if base.QueryParams == nil {
		base.QueryParams = make(map[string]string)
	}
	for k, v := range override.QueryParams {
		base.QueryParams[k] = v
	}

	return base
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Utility methods for checking response status
func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response[T]) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response[T]) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response[T]) GetHeader(key string) string {
	return r.Headers.Get(key)
}
