// Package inbound defines the inbound port interfaces for the client core.
// Pages and the auth session call these interfaces.
package inbound

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// API is the façade every page and the auth session use to talk to the server.
type API interface {
	// Get fetches url, serving and filling the request cache unless disabled.
	Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error)

	// Post, Put and Patch send data as JSON. They never touch the cache.
	Post(ctx context.Context, url string, data any, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, url string, data any, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, url string, data any, opts ...RequestOption) (*Response, error)

	// Delete removes the resource at url.
	Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error)

	// Upload sends form as multipart/form-data, reporting progress as it goes.
	Upload(ctx context.Context, url string, form UploadForm, onProgress ProgressFunc) (*Response, error)

	// ClearCache drops every cached Get.
	ClearCache()
}

// Response is a successful API result.
type Response struct {
	// Status is the HTTP status, or 0 when served from the cache.
	Status int

	// Data is the sanitized, decoded JSON body.
	Data any

	// Cached is true when Data came from the request cache.
	Cached bool
}

// Decode converts Data into v by round-tripping it through JSON.
func (r *Response) Decode(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// RequestOptions is the resolved set of per-call options.
type RequestOptions struct {
	// Params are encoded into the query string and are part of the cache key.
	Params map[string]string

	// UseCache lets Get read and fill the request cache. Default true.
	UseCache bool

	// CacheTime overrides the cache freshness window for this call when set.
	// Zero or negative never hits.
	CacheTime *time.Duration

	// Header adds request headers.
	Header map[string]string
}

// RequestOption customizes a single API call.
type RequestOption func(*RequestOptions)

// WithParams sets query parameters.
func WithParams(params map[string]string) RequestOption {
	return func(o *RequestOptions) {
		o.Params = params
	}
}

// WithoutCache bypasses the request cache for this Get.
func WithoutCache() RequestOption {
	return func(o *RequestOptions) {
		o.UseCache = false
	}
}

// WithCacheTime sets how long a cached response may be reused by this Get.
func WithCacheTime(d time.Duration) RequestOption {
	return func(o *RequestOptions) {
		o.CacheTime = &d
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(o *RequestOptions) {
		if o.Header == nil {
			o.Header = make(map[string]string)
		}
		o.Header[key] = value
	}
}

// ResolveOptions applies opts over the defaults.
func ResolveOptions(opts ...RequestOption) RequestOptions {
	o := RequestOptions{UseCache: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// UploadFile is one file part of a multipart upload.
type UploadFile struct {
	// Field is the form field name.
	Field string
	// Name is the file name sent to the server.
	Name string
	// ContentType is the part's MIME type; empty sends application/octet-stream.
	ContentType string
	// Content is read once.
	Content io.Reader
}

// UploadForm is a multipart body.
type UploadForm struct {
	Fields map[string]string
	Files  []UploadFile
}

// ProgressFunc receives upload progress as an integer percentage (0..100).
type ProgressFunc func(percent int)
