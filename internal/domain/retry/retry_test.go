package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		err     error
		want    bool
	}{
		{"404 never", 0, statusErr(404), false},
		{"401 never", 0, statusErr(401), false},
		{"wrapped 404 never", 0, fmt.Errorf("load: %w", statusErr(404)), false},
		{"500 first", 0, statusErr(500), true},
		{"500 third", 2, statusErr(500), true},
		{"500 exhausted", 3, statusErr(500), false},
		{"403 never", 1, statusErr(403), false},
		{"429 never", 0, statusErr(429), false},
		{"plain error", 1, errors.New("boom"), true},
		{"nil error", 0, nil, true},
		{"nil error exhausted", 3, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.attempt, tt.err); got != tt.want {
				t.Errorf("ShouldRetry(%d, %v) = %v, want %v", tt.attempt, tt.err, got, tt.want)
			}
		})
	}
}

func TestDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{100, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := Delay(tt.n); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDelay_Monotonic(t *testing.T) {
	t.Parallel()

	prev := Delay(0)
	for n := 1; n < 20; n++ {
		d := Delay(n)
		if d < prev {
			t.Fatalf("Delay(%d) = %v < Delay(%d) = %v", n, d, n-1, prev)
		}
		if d > MaxDelay {
			t.Fatalf("Delay(%d) = %v exceeds cap", n, d)
		}
		prev = d
	}
}
