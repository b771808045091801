package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/domain/retry"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
	"github.com/brotherhood-social/brotherhood/internal/port/outbound"
)

// MsgSomethingWentWrong is the last-resort mutation failure notice.
const MsgSomethingWentWrong = "Something went wrong"

// QueryFunc performs one attempt of a read or write.
type QueryFunc func(ctx context.Context) (*inbound.Response, error)

// QueryService runs page-level reads and writes with the retry policy pages
// share: reads retry with exponential backoff unless the failure is final,
// writes retry once and tell the user when they still fail.
type QueryService struct {
	notifier      outbound.Notifier
	delay         func(n int) time.Duration
	mutationDelay time.Duration
	logger        *slog.Logger
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithQueryBackoff overrides the read backoff (retry.Delay by default).
func WithQueryBackoff(fn func(n int) time.Duration) QueryOption {
	return func(s *QueryService) {
		s.delay = fn
	}
}

// WithMutationDelay overrides the wait before a write is retried.
func WithMutationDelay(d time.Duration) QueryOption {
	return func(s *QueryService) {
		s.mutationDelay = d
	}
}

// NewQueryService creates a QueryService reporting write failures to notifier.
func NewQueryService(notifier outbound.Notifier, logger *slog.Logger, opts ...QueryOption) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &QueryService{
		notifier:      notifier,
		delay:         retry.Delay,
		mutationDelay: retry.MutationDelay,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query runs fn until it succeeds, retry.ShouldRetry says stop, or ctx ends.
// The last error is returned.
func (s *QueryService) Query(ctx context.Context, fn QueryFunc) (*inbound.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			return resp, nil
		}
		if !retry.ShouldRetry(attempt, err) {
			return nil, err
		}

		delay := s.delay(attempt)
		s.logger.Debug("retrying query", "attempt", attempt+1, "delay", delay, "error", err)
		if waitErr := wait(ctx, delay); waitErr != nil {
			return nil, err
		}
	}
}

// Mutate runs fn, retrying once after the mutation delay. A final failure
// is shown to the user and returned.
func (s *QueryService) Mutate(ctx context.Context, fn QueryFunc) (*inbound.Response, error) {
	var err error
	for attempt := 0; attempt <= retry.MutationAttempts; attempt++ {
		if attempt > 0 {
			s.logger.Debug("retrying mutation", "attempt", attempt, "error", err)
			if waitErr := wait(ctx, s.mutationDelay); waitErr != nil {
				break
			}
		}

		var resp *inbound.Response
		resp, err = fn(ctx)
		if err == nil {
			return resp, nil
		}
	}

	s.notifier.Error(mutationMessage(err))
	return nil, err
}

// mutationMessage prefers the server's detail, then the error text.
func mutationMessage(err error) string {
	if detail := httpapi.ErrorDetail(err); detail != "" {
		return detail
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return MsgSomethingWentWrong
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
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
