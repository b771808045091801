// Package httpapi is the HTTP client core of the Brotherhood API.
//
// Every request passes through the same pipeline: request interceptors
// (request id, CSRF token, debug log, caller interceptors), dispatch with
// the session cookie jar, then response handling. Successful bodies are
// sanitized. Failures raise user notices, redirect to /login on an expired
// session, and retry server errors with exponential backoff before the
// original *Error is returned.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/brotherhood-social/brotherhood/internal/domain/retry"
	"github.com/brotherhood-social/brotherhood/internal/domain/routing"
	"github.com/brotherhood-social/brotherhood/internal/domain/validation"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// Defaults.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryAfter = "60"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 10 << 20

	tracerName = "github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
)

// User-facing notices.
const (
	MsgNetworkError   = "Network error. Please check your connection."
	MsgSessionExpired = "Session expired. Please login again."
	MsgForbidden      = "You do not have permission to perform this action."
	msgRateLimited    = "Too many requests. Please try again in %s seconds."
)

// Client talks to the Brotherhood REST API. Safe for concurrent use.
type Client struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	maxRetries     int
	backoff        func(n int) time.Duration
	sanitizer      *validation.Sanitizer
	notifier       outbound.Notifier
	navigator      outbound.Navigator
	csrf           CSRFSource
	csrfPageURL    string
	interceptors   []RequestInterceptor
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	logger         *slog.Logger
	now            func() time.Time
}

// NewClient creates a client for the API rooted at baseURL.
// Options can be used to override the defaults.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		backoff:    retry.Delay,
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		// cookiejar.New never fails; the error exists for future options.
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		c.httpClient = &http.Client{
			Timeout: c.timeout,
			Jar:     jar,
		}
	}
	if c.csrf == nil && c.csrfPageURL != "" {
		c.csrf = NewMetaTagCSRF(c.csrfPageURL, c.httpClient)
	}
	if c.sanitizer == nil {
		c.sanitizer = validation.NewSanitizer()
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(tracerName)

	builtin := []RequestInterceptor{
		&requestIDInterceptor{now: c.now},
		&csrfInterceptor{source: c.csrf, logger: c.logger},
		&logInterceptor{logger: c.logger},
	}
	c.interceptors = append(builtin, c.interceptors...)

	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections closes kept-alive connections. The cookie jar is kept.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Do sends req through the full pipeline. On failure the returned error is
// an *Error unless an interceptor or request construction failed first.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.dispatch(ctx, req)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return c.handleError(ctx, apiErr)
		}
		return nil, err
	}
	return c.handleSuccess(ctx, resp), nil
}

// dispatch runs the interceptors and performs one HTTP exchange.
// Any non-2xx status comes back as an *Error carrying the response.
func (c *Client) dispatch(ctx context.Context, req *Request) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL),
			attribute.Int("http.request.resend_count", req.RetryCount),
		),
	)
	defer span.End()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, err
	}

	for _, interceptor := range c.interceptors {
		if err := interceptor.InterceptRequest(ctx, httpReq, req); err != nil {
			c.logger.Error("request interceptor failed",
				"method", req.Method,
				"url", req.URL,
				"error", err,
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "request interceptor")
			return nil, err
		}
	}
	span.SetAttributes(attribute.String("brotherhood.request_id", httpReq.Header.Get(HeaderRequestID)))
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := c.now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0, c.now().Sub(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "network error")
		return nil, &Error{Request: req, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	c.metrics.observeRequest(req.Method, httpResp.StatusCode, c.now().Sub(start))
	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, &Error{Request: req, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	resp := &Response{
		Status:  httpResp.StatusCode,
		Header:  httpResp.Header,
		Data:    decodeBody(raw),
		Request: req,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		span.SetStatus(codes.Error, http.StatusText(httpResp.StatusCode))
		return nil, &Error{Request: req, Response: resp}
	}
	return resp, nil
}

// buildRequest creates the *http.Request for one dispatch of req.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	fullURL, err := resolveURL(c.baseURL, req.URL, req.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	contentType := ""
	switch {
	case req.RawBody != nil:
		payload = req.RawBody
		contentType = req.ContentType
	case req.Body != nil:
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		contentType = ContentTypeJSON
	}
	if contentType == "" && payload != nil {
		contentType = ContentTypeJSON
	}

	var body io.Reader
	if payload != nil {
		body = newProgressReader(payload, req.OnUploadProgress)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		httpReq.ContentLength = int64(len(payload))
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
		httpReq.Header.Set(HeaderContentType, contentType)
	}
	httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// handleSuccess sanitizes the body in place.
func (c *Client) handleSuccess(ctx context.Context, resp *Response) *Response {
	if resp.Data != nil {
		resp.Data = c.sanitizer.Sanitize(resp.Data)
	}
	c.logger.DebugContext(ctx, "api response", "status", resp.Status, "url", resp.Request.URL)
	return resp
}

// handleError applies the failure policy and returns the original error,
// or the outcome of a re-issued request for retryable server errors.
func (c *Client) handleError(ctx context.Context, apiErr *Error) (*Response, error) {
	req := apiErr.Request

	if apiErr.Response == nil {
		// A cancelled caller did not lose its connection.
		if ctx.Err() == nil {
			c.notify(KindNetwork, MsgNetworkError)
		}
		c.logger.Error("api network error", "method", req.Method, "url", req.URL, "error", apiErr.Err)
		return nil, apiErr
	}

	status := apiErr.Response.Status
	switch {
	case status == http.StatusUnauthorized && !req.Retry:
		req.Retry = true
		path := ""
		if c.navigator != nil {
			path = c.navigator.Location().Pathname
		}
		if path != routing.PathLogin && path != routing.PathRegister {
			c.notify(KindAuthentication, MsgSessionExpired)
			if c.navigator != nil {
				c.navigator.Navigate(routing.PathLogin, outbound.NavigateOptions{Replace: true})
			}
		}
		return nil, apiErr

	case status == http.StatusForbidden:
		c.notify(KindAuthorization, MsgForbidden)
		return nil, apiErr

	case status == http.StatusTooManyRequests:
		retryAfter := http.Header(apiErr.Response.Header).Get(HeaderRetryAfter)
		if retryAfter == "" {
			retryAfter = DefaultRetryAfter
		}
		c.notify(KindRateLimited, fmt.Sprintf(msgRateLimited, retryAfter))
		return nil, apiErr

	case status >= 500 && req.RetryCount < c.maxRetries:
		req.RetryCount++
		delay := c.backoff(req.RetryCount)
		c.logger.Warn("retrying after server error",
			"status", status,
			"url", req.URL,
			"attempt", req.RetryCount,
			"delay", delay,
		)
		c.metrics.observeRetry()
		if err := sleep(ctx, delay); err != nil {
			return nil, apiErr
		}
		return c.Do(ctx, req)

	case status >= 500:
		c.logger.Error("api server error", "status", status, "url", req.URL, "error", errorText(apiErr))
		return nil, apiErr

	case status == http.StatusUnprocessableEntity:
		for _, entry := range validationEntries(apiErr.Response.Data) {
			c.notify(KindValidation, entry.String())
		}
		c.logger.Debug("api validation error", "status", status, "url", req.URL, "error", errorText(apiErr))
		return nil, apiErr

	default:
		c.logger.Debug("api client error", "status", status, "url", req.URL, "error", errorText(apiErr))
		return nil, apiErr
	}
}

func (c *Client) notify(kind Kind, msg string) {
	c.metrics.observeNotice(kind)
	c.notifier.Error(msg)
}

// errorText is the server detail, or the status text when there is none.
func errorText(e *Error) string {
	if detail := detailMessage(e.Response.Data); detail != "" {
		return detail
	}
	return http.StatusText(e.Response.Status)
}

// decodeBody parses JSON, falling back to the raw text.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return v
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// progressReader reports how much of the body the transport has consumed.
type progressReader struct {
	r      *bytes.Reader
	total  int64
	loaded int64
	fn     func(loaded, total int64)
}

func newProgressReader(payload []byte, fn func(loaded, total int64)) io.Reader {
	if fn == nil {
		return bytes.NewReader(payload)
	}
	return &progressReader{r: bytes.NewReader(payload), total: int64(len(payload)), fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}

// nopNotifier drops notices when no notifier is configured.
type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
