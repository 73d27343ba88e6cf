package archive

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldRetryTransient(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	require.True(t, p.ShouldRetry(errors.New("connection reset"), 1))
	require.True(t, p.ShouldRetry(&RateLimitError{Service: "wayback_machine"}, 2))
	require.False(t, p.ShouldRetry(errors.New("connection reset"), 3))
	require.False(t, p.ShouldRetry(nil, 1))
}

func TestShouldRetryPermanent(t *testing.T) {
	t.Parallel()

	p := DefaultRetryPolicy()

	require.False(t, p.ShouldRetry(Permanent(errors.New("status 404")), 1))
	require.False(t, p.ShouldRetry(context.Canceled, 1))
	require.False(t, p.ShouldRetry(context.DeadlineExceeded, 1))
	// A wrapped permanent error is still permanent.
	wrapped := fmt.Errorf("submit: %w", Permanent(errors.New("status 403")))
	require.False(t, p.ShouldRetry(wrapped, 1))
}

func TestBackoffDoublesWithCeiling(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 4 * time.Second}

	for attempt, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second} {
		got := p.Backoff(attempt)
		require.GreaterOrEqual(t, got, want/2, "attempt %d", attempt)
		require.LessOrEqual(t, got, want, "attempt %d", attempt)
	}
}
