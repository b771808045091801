package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/brotherhood-social/brotherhood/internal/domain/validation"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client for making requests.
// The client's own Timeout and Jar are used as-is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request network timeout.
// If not set, defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRetries sets how many times a 5xx response is retried.
// If not set, defaults to 3.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBackoff sets the wait before the n-th 5xx retry (n starts at 1).
// If not set, defaults to retry.Delay: 2s, 4s, 8s.
func WithBackoff(fn func(n int) time.Duration) Option {
	return func(c *Client) {
		c.backoff = fn
	}
}

// WithSanitizer sets the sanitizer applied to successful response bodies.
func WithSanitizer(s *validation.Sanitizer) Option {
	return func(c *Client) {
		c.sanitizer = s
	}
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n outbound.Notifier) Option {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithNavigator sets the page history used for the session-expired redirect.
func WithNavigator(n outbound.Navigator) Option {
	return func(c *Client) {
		c.navigator = n
	}
}

// WithCSRFSource sets where the X-CSRF-Token value comes from.
func WithCSRFSource(s CSRFSource) Option {
	return func(c *Client) {
		c.csrf = s
	}
}

// WithCSRFPage reads the X-CSRF-Token value from the csrf-token meta tag of
// pageURL. The page is fetched with the client's own http.Client, so a token
// bound to the session cookie matches the session the API calls carry.
// WithCSRFSource takes precedence.
func WithCSRFPage(pageURL string) Option {
	return func(c *Client) {
		c.csrfPageURL = pageURL
	}
}

// WithInterceptor appends request interceptors run after the built-in ones.
func WithInterceptor(interceptors ...RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithMetrics records every dispatch in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider sets the provider request spans are created from.
// If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock sets the time source used for request ids and durations.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}
