package archive

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SleepFunc waits for d or until the context finishes.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Submitter drives a Service through the retry policy, turning the final
// outcome into a ServiceResult.
type Submitter struct {
	policy RetryPolicy
	clock  Clock
	sleep  SleepFunc
	logger *zap.Logger
}

// NewSubmitter constructs a Submitter using a real timer for backoff waits.
func NewSubmitter(policy RetryPolicy, clock Clock, logger *zap.Logger) *Submitter {
	return &Submitter{
		policy: policy,
		clock:  clock,
		sleep:  sleepContext,
		logger: logger,
	}
}

// WithSleep replaces the backoff wait, for tests with fake delays.
func (s *Submitter) WithSleep(sleep SleepFunc) *Submitter {
	s.sleep = sleep
	return s
}

// Submit sends url to svc, retrying transient failures per the policy.
// Failures after exhaustion are returned as an unsuccessful result, never
// as an error; the caller records them in the log.
func (s *Submitter) Submit(ctx context.Context, svc Service, url string) ServiceResult {
	var lastErr error
	for attempt := 1; ; attempt++ {
		archivedURL, err := svc.Submit(ctx, url)
		if err == nil {
			s.logger.Info("url archived",
				zap.String("service", svc.Name()),
				zap.String("url", url),
				zap.String("archived_url", archivedURL),
				zap.Int("attempt", attempt),
			)
			return ServiceResult{
				Success:     true,
				ArchivedURL: archivedURL,
				LastAttempt: s.clock.Now(),
			}
		}
		lastErr = err
		if !s.policy.ShouldRetry(err, attempt) {
			break
		}
		delay := s.backoffDelay(err, attempt)
		s.logger.Warn("submission failed, backing off",
			zap.String("service", svc.Name()),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if serr := s.sleep(ctx, delay); serr != nil {
			lastErr = serr
			break
		}
	}
	s.logger.Warn("submission abandoned",
		zap.String("service", svc.Name()),
		zap.String("url", url),
		zap.Error(lastErr),
	)
	return ServiceResult{
		Success:     false,
		Error:       lastErr.Error(),
		LastAttempt: s.clock.Now(),
	}
}

// backoffDelay prefers a server-supplied retry-after hint over the
// computed backoff, still capped at the policy ceiling.
func (s *Submitter) backoffDelay(err error, attempt int) time.Duration {
	var rle *RateLimitError
	if errors.As(err, &rle) && rle.RetryAfter > 0 {
		if rle.RetryAfter > s.policy.MaxDelay {
			return s.policy.MaxDelay
		}
		return rle.RetryAfter
	}
	return s.policy.Backoff(attempt - 1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
