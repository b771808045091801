// Package retry holds the retry classification and backoff schedule shared by
// the HTTP client and the query runner.
package retry

import (
	"errors"
	"net/http"
	"time"
)

const (
	// MaxAttempts is how many times a failed query is retried.
	MaxAttempts = 3

	// BaseDelay is the first backoff step.
	BaseDelay = time.Second

	// MaxDelay caps any single backoff wait.
	MaxDelay = 30 * time.Second

	// MutationAttempts is how many times a failed mutation is retried.
	MutationAttempts = 1

	// MutationDelay is the fixed wait before a mutation retry.
	MutationDelay = time.Second
)

// StatusCoder is implemented by errors that carry an HTTP response status.
type StatusCoder interface {
	StatusCode() int
}

// ShouldRetry decides whether a query that has already failed attempt times
// (counting from zero) should run again. Missing resources, missing
// authentication and permission failures never heal on their own, so 404,
// 401 and 403 are final. A 429 is left for the user to retry once the
// advertised wait has passed.
func ShouldRetry(attempt int, err error) bool {
	var sc StatusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case http.StatusNotFound, http.StatusUnauthorized,
			http.StatusForbidden, http.StatusTooManyRequests:
			return false
		}
	}
	return attempt < MaxAttempts
}

// Delay returns the wait before retry n: BaseDelay * 2^n, capped at MaxDelay.
func Delay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// 2^5 s already exceeds the cap; avoid shifting into overflow.
	if n >= 5 {
		return MaxDelay
	}
	return min(BaseDelay<<n, MaxDelay)
}
