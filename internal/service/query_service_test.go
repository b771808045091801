package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/httpapi"
	"github.com/brotherhood-social/brotherhood/internal/adapter/outbound/notify"
	"github.com/brotherhood-social/brotherhood/internal/logging"
	"github.com/brotherhood-social/brotherhood/internal/port/inbound"
)

func statusError(status int, detail string) error {
	var data any
	if detail != "" {
		data = map[string]any{"detail": detail}
	}
	return &httpapi.Error{
		Request:  &httpapi.Request{Method: "GET", URL: "/x"},
		Response: &httpapi.Response{Status: status, Data: data},
	}
}

// failing returns a QueryFunc that fails with errs in turn, then succeeds.
func failing(calls *int, errs ...error) QueryFunc {
	return func(context.Context) (*inbound.Response, error) {
		n := *calls
		*calls++
		if n < len(errs) {
			return nil, errs[n]
		}
		return &inbound.Response{Status: 200, Data: "ok"}, nil
	}
}

func newTestQueryService(delays *[]int) (*QueryService, *notify.Recorder) {
	rec := notify.NewRecorder()
	qs := NewQueryService(rec, logging.Discard(),
		WithQueryBackoff(func(n int) time.Duration {
			if delays != nil {
				*delays = append(*delays, n)
			}
			return time.Millisecond
		}),
		WithMutationDelay(time.Millisecond),
	)
	return qs, rec
}

func TestQueryService_RetriesThenGivesUp(t *testing.T) {
	var delays []int
	qs, _ := newTestQueryService(&delays)

	calls := 0
	boom := statusError(500, "")
	_, err := qs.Query(context.Background(), failing(&calls, boom, boom, boom, boom, boom))
	if err != boom {
		t.Errorf("Query() error = %v, want the last failure", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4 (1 + 3 retries)", calls)
	}
	if want := []int{0, 1, 2}; !equalInts(delays, want) {
		t.Errorf("backoff attempts = %v, want %v", delays, want)
	}
}

func TestQueryService_SucceedsAfterRetry(t *testing.T) {
	qs, _ := newTestQueryService(nil)

	calls := 0
	resp, err := qs.Query(context.Background(), failing(&calls, errors.New("flaky"), statusError(502, "")))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if resp.Data != "ok" || calls != 3 {
		t.Errorf("Query() = %v after %d calls, want ok after 3", resp.Data, calls)
	}
}

func TestQueryService_FinalStatusesAreNotRetried(t *testing.T) {
	for _, status := range []int{401, 403, 404, 429} {
		qs, _ := newTestQueryService(nil)
		calls := 0
		_, err := qs.Query(context.Background(), failing(&calls, statusError(status, "")))
		if err == nil {
			t.Errorf("%d: Query() error = nil", status)
		}
		if calls != 1 {
			t.Errorf("%d: calls = %d, want 1", status, calls)
		}
	}
}

func TestQueryService_QueryHonoursCancellation(t *testing.T) {
	qs := NewQueryService(notify.NewRecorder(), logging.Discard(),
		WithQueryBackoff(func(int) time.Duration { return time.Hour }))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	fn := func(c context.Context) (*inbound.Response, error) {
		calls++
		cancel()
		return nil, statusError(503, "")
	}
	_, err := qs.Query(ctx, fn)
	if err == nil || calls != 1 {
		t.Errorf("Query() = %v after %d calls, want the error after 1", err, calls)
	}
}

func TestQueryService_MutateRetriesOnce(t *testing.T) {
	qs, rec := newTestQueryService(nil)

	calls := 0
	resp, err := qs.Mutate(context.Background(), failing(&calls, statusError(500, "")))
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if resp.Data != "ok" || calls != 2 {
		t.Errorf("Mutate() = %v after %d calls, want ok after 2", resp.Data, calls)
	}
	if n := len(rec.Notices()); n != 0 {
		t.Errorf("notices = %d, want 0 on eventual success", n)
	}
}

func TestQueryService_MutateFailureNotifies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server detail", statusError(400, "Post is too long"), "Post is too long"},
		{"error text", errors.New("connection reset"), "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, rec := newTestQueryService(nil)
			calls := 0
			_, err := qs.Mutate(context.Background(), failing(&calls, tt.err, tt.err))
			if err != tt.err {
				t.Errorf("Mutate() error = %v, want %v", err, tt.err)
			}
			if calls != 2 {
				t.Errorf("calls = %d, want 2", calls)
			}
			msgs := rec.Messages(notify.KindError)
			if len(msgs) != 1 || msgs[0] != tt.want {
				t.Errorf("notices = %v, want [%q]", msgs, tt.want)
			}
		})
	}
}

func TestMutationMessageFallback(t *testing.T) {
	if got := mutationMessage(nil); got != MsgSomethingWentWrong {
		t.Errorf("mutationMessage(nil) = %q, want %q", got, MsgSomethingWentWrong)
	}
	if got := mutationMessage(errors.New("")); got != MsgSomethingWentWrong {
		t.Errorf("mutationMessage(empty) = %q, want %q", got, MsgSomethingWentWrong)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
