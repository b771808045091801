package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/brotherhood-social/brotherhood/internal/domain/session"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusStarting = "starting"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version,omitempty"`
}

// CacheSizer reports how full a bounded cache is.
type CacheSizer interface {
	Len() int
}

// HealthChecker reports the session and request cache state.
type HealthChecker struct {
	source     session.Source
	cache      CacheSizer
	maxEntries int
	version    string
}

// NewHealthChecker creates a HealthChecker. Pass nil for components that
// aren't available.
func NewHealthChecker(source session.Source, cache CacheSizer, maxEntries int, version string) *HealthChecker {
	return &HealthChecker{
		source:     source,
		cache:      cache,
		maxEntries: maxEntries,
		version:    version,
	}
}

// Check builds the health report. The client is "starting" until the first
// auth check settles.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	status := StatusHealthy

	if h.source != nil {
		snap := h.source.Snapshot()
		checks["session"] = snap.Status().String()
		if snap.Loading {
			status = StatusStarting
		}
	} else {
		checks["session"] = "not configured"
	}

	if h.cache != nil {
		n := h.cache.Len()
		if h.maxEntries > 0 {
			checks["request_cache"] = fmt.Sprintf("ok: %d/%d (%d%%)", n, h.maxEntries, n*100/h.maxEntries)
		} else {
			checks["request_cache"] = fmt.Sprintf("ok: %d", n)
		}
	} else {
		checks["request_cache"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != StatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(health)
	})
}
