package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/ctxkey"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// DefaultCacheTTL is how long a cached Get is served without refetching.
const DefaultCacheTTL = 5 * time.Minute

// loggerFromContext retrieves the enriched logger from context.
// Returns nil if no logger is in context, allowing caller to fall back.
func loggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxkey.LoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return nil
}

// Compile-time check that APIService implements inbound.API.
var _ inbound.API = (*APIService)(nil)

// APIService is the API façade: the HTTP client plus the GET request cache,
// with an info log line for every call and its outcome.
type APIService struct {
	client   *httpapi.Client
	cache    outbound.RequestCache
	cacheTTL time.Duration
	metrics  *httpapi.Metrics
	logger   *slog.Logger
}

// APIOption configures an APIService.
type APIOption func(*APIService)

// WithCacheTTL sets the default freshness window of cached Gets.
func WithCacheTTL(d time.Duration) APIOption {
	return func(s *APIService) {
		s.cacheTTL = d
	}
}

// WithCacheMetrics records cache hits, misses and size in m.
func WithCacheMetrics(m *httpapi.Metrics) APIOption {
	return func(s *APIService) {
		s.metrics = m
	}
}

// NewAPIService creates the façade over client and cache.
func NewAPIService(client *httpapi.Client, cache outbound.RequestCache, logger *slog.Logger, opts ...APIOption) *APIService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &APIService{
		client:   client,
		cache:    cache,
		cacheTTL: DefaultCacheTTL,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get fetches url. Unless disabled per call, a fresh cached copy is returned
// without touching the network and a live result is stored for later calls.
func (s *APIService) Get(ctx context.Context, url string, opts ...inbound.RequestOption) (*inbound.Response, error) {
	o := inbound.ResolveOptions(opts...)
	logger := s.loggerFor(ctx)
	logger.Info("API request started", "method", http.MethodGet, "url", url)

	key := cacheKey(url, o.Params)
	if o.UseCache {
		maxAge := s.cacheTTL
		if o.CacheTime != nil {
			maxAge = *o.CacheTime
		}
		data, hit := s.cache.Get(key, maxAge)
		s.metrics.ObserveCacheLookup(hit)
		if hit {
			logger.Info("API request succeeded", "method", http.MethodGet, "url", url, "cached", true)
			return &inbound.Response{Data: data, Cached: true}, nil
		}
	}

	resp, err := s.do(ctx, logger, &httpapi.Request{
		Method: http.MethodGet,
		URL:    url,
		Params: o.Params,
		Header: o.Header,
	})
	if err != nil {
		return nil, err
	}

	if o.UseCache {
		evicted := s.cache.Set(key, resp.Data)
		s.metrics.ObserveCacheSize(s.cache.Len(), evicted)
	}
	return resp, nil
}

// Post sends data as JSON.
func (s *APIService) Post(ctx context.Context, url string, data any, opts ...inbound.RequestOption) (*inbound.Response, error) {
	return s.send(ctx, http.MethodPost, url, data, opts)
}

// Put sends data as JSON.
func (s *APIService) Put(ctx context.Context, url string, data any, opts ...inbound.RequestOption) (*inbound.Response, error) {
	return s.send(ctx, http.MethodPut, url, data, opts)
}

// Patch sends data as JSON.
func (s *APIService) Patch(ctx context.Context, url string, data any, opts ...inbound.RequestOption) (*inbound.Response, error) {
	return s.send(ctx, http.MethodPatch, url, data, opts)
}

// Delete removes the resource at url.
func (s *APIService) Delete(ctx context.Context, url string, opts ...inbound.RequestOption) (*inbound.Response, error) {
	return s.send(ctx, http.MethodDelete, url, nil, opts)
}

// Upload posts form as multipart/form-data. onProgress, when set, receives
// the share of the body sent so far as a rounded percentage.
func (s *APIService) Upload(ctx context.Context, url string, form inbound.UploadForm, onProgress inbound.ProgressFunc) (*inbound.Response, error) {
	logger := s.loggerFor(ctx)

	body, contentType, err := encodeMultipart(form)
	if err != nil {
		logger.Error("API request failed", "method", http.MethodPost, "url", url, "error", err.Error())
		return nil, err
	}

	req := &httpapi.Request{
		Method:      http.MethodPost,
		URL:         url,
		RawBody:     body,
		ContentType: contentType,
	}
	if onProgress != nil {
		req.OnUploadProgress = func(loaded, total int64) {
			if total > 0 {
				onProgress(int(math.Round(float64(loaded) * 100 / float64(total))))
			}
		}
	}

	logger.Info("API request started", "method", http.MethodPost, "url", url, "upload", true)
	return s.do(ctx, logger, req)
}

// ClearCache drops every cached Get.
func (s *APIService) ClearCache() {
	s.cache.Clear()
	s.metrics.ObserveCacheSize(0, 0)
}

func (s *APIService) send(ctx context.Context, method, url string, data any, opts []inbound.RequestOption) (*inbound.Response, error) {
	o := inbound.ResolveOptions(opts...)
	logger := s.loggerFor(ctx)
	logger.Info("API request started", "method", method, "url", url)

	return s.do(ctx, logger, &httpapi.Request{
		Method: method,
		URL:    url,
		Params: o.Params,
		Header: o.Header,
		Body:   data,
	})
}

// do dispatches req and logs the outcome. Errors are returned unchanged.
func (s *APIService) do(ctx context.Context, logger *slog.Logger, req *httpapi.Request) (*inbound.Response, error) {
	resp, err := s.client.Do(ctx, req)
	if err != nil {
		attrs := []any{"method", req.Method, "url", req.URL, "error", err.Error()}
		var apiErr *httpapi.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status", apiErr.StatusCode())
		}
		logger.Error("API request failed", attrs...)
		return nil, err
	}

	logger.Info("API request succeeded", "method", req.Method, "url", req.URL, "status", resp.Status)
	return &inbound.Response{Status: resp.Status, Data: resp.Data}, nil
}

func (s *APIService) loggerFor(ctx context.Context) *slog.Logger {
	if logger := loggerFromContext(ctx); logger != nil {
		return logger
	}
	return s.logger
}

// cacheKey is the url and the JSON of its query parameters.
func cacheKey(url string, params map[string]string) string {
	if len(params) == 0 {
		return url + "_{}"
	}
	// Map keys marshal in sorted order, so equal params give equal keys.
	raw, err := json.Marshal(params)
	if err != nil {
		return url + "_{}"
	}
	return url + "_" + string(raw)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart renders form into a multipart body.
func encodeMultipart(form inbound.UploadForm) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %q: %w", name, err)
		}
	}
	for _, f := range form.Files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file %q: %w", f.Name, err)
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", fmt.Errorf("failed to read form file %q: %w", f.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
