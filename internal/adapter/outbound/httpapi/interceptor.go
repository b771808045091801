package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/ctxkey"
)

// RequestInterceptor inspects and optionally modifies an outgoing request.
// It runs before every dispatch, retries included. Returning an error
// aborts the dispatch and the error is returned to the caller unchanged.
type RequestInterceptor interface {
	InterceptRequest(ctx context.Context, httpReq *http.Request, req *Request) error
}

// RequestInterceptorFunc adapts a function to RequestInterceptor.
type RequestInterceptorFunc func(ctx context.Context, httpReq *http.Request, req *Request) error

// InterceptRequest calls f.
func (f RequestInterceptorFunc) InterceptRequest(ctx context.Context, httpReq *http.Request, req *Request) error {
	return f(ctx, httpReq, req)
}

// requestIDInterceptor stamps X-Request-ID. A caller-chosen id in the
// context wins over a generated one.
type requestIDInterceptor struct {
	now func() time.Time
}

func (i *requestIDInterceptor) InterceptRequest(ctx context.Context, httpReq *http.Request, _ *Request) error {
	id, _ := ctx.Value(ctxkey.RequestIDKey{}).(string)
	if id == "" {
		id = newRequestID(i.now())
	}
	httpReq.Header.Set(HeaderRequestID, id)
	return nil
}

// csrfInterceptor sets X-CSRF-Token when the source knows a token.
// A source failure is treated as "no token".
type csrfInterceptor struct {
	source CSRFSource
	logger *slog.Logger
}

func (i *csrfInterceptor) InterceptRequest(ctx context.Context, httpReq *http.Request, _ *Request) error {
	if i.source == nil {
		return nil
	}
	token, err := i.source.Token(ctx)
	if err != nil {
		i.logger.Warn("csrf token unavailable", "error", err)
		return nil
	}
	if token != "" {
		httpReq.Header.Set(HeaderCSRFToken, token)
	}
	return nil
}

// logInterceptor writes a debug line per dispatch. Bodies are never logged.
type logInterceptor struct {
	logger *slog.Logger
}

func (i *logInterceptor) InterceptRequest(ctx context.Context, httpReq *http.Request, req *Request) error {
	i.logger.DebugContext(ctx, "api request",
		"method", httpReq.Method,
		"url", req.URL,
		"request_id", httpReq.Header.Get(HeaderRequestID),
		"retry_count", req.RetryCount,
	)
	return nil
}

// Compile-time checks that the built-in interceptors implement RequestInterceptor.
var (
	_ RequestInterceptor = (*requestIDInterceptor)(nil)
	_ RequestInterceptor = (*csrfInterceptor)(nil)
	_ RequestInterceptor = (*logInterceptor)(nil)
	_ RequestInterceptor = RequestInterceptorFunc(nil)
)
