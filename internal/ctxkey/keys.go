// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the enriched logger.
// The shell stores a logger carrying the command being run; services pick it up.
type LoggerKey struct{}

// RequestIDKey is the context key type for a caller-chosen X-Request-ID.
// When present the HTTP client sends it instead of generating one.
type RequestIDKey struct{}
