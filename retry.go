package langprompt

import (
	"context"
	"net/http"
	"time"

	"github.com/langprompt/langprompt-go/internal/backoff"
)

// RetryCondition decides whether a failed attempt is eligible for retry. It
// receives the observed response when the failure was a non-error status and
// the error otherwise; in the default wiring the transport converts every
// non-2xx status into a typed error before the predicate runs, so resp is
// always nil and eligibility is decided from the error type alone.
type RetryCondition func(resp *http.Response, err error) bool

// DefaultRetryCondition retries transient failures: network faults, timeouts,
// HTTP 5xx and HTTP 429. Other client errors and validation failures are
// permanent.
func DefaultRetryCondition(resp *http.Response, err error) bool {
	if err != nil {
		return IsTransient(err)
	}
	if resp != nil {
		return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// SleepFunc suspends between retry attempts. The retry loop is identical in
// both execution modes; only the suspension primitive differs.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SleepBlocking suspends the calling goroutine with a plain sleep, ignoring
// the context.
func SleepBlocking(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

// SleepContext suspends cooperatively, waking early when the context ends.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryer executes a fallible operation up to maxRetries+1 times, waiting
// min(baseDelay * 2^attempt + jitter, maxDelay) between eligible failures.
// The error from the last attempted call is what surfaces; earlier failures
// are discarded.
type retryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	condition  RetryCondition
	sleep      SleepFunc
	strategy   backoff.Strategy
	logger     Logger
	metrics    *MetricsCollector
}

func newRetryer(cfg *Config, condition RetryCondition, sleep SleepFunc, logger Logger, metrics *MetricsCollector) *retryer {
	if condition == nil {
		condition = DefaultRetryCondition
	}
	if sleep == nil {
		sleep = SleepContext
	}
	return &retryer{
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryDelay,
		maxDelay:   cfg.MaxRetryDelay,
		condition:  condition,
		sleep:      sleep,
		strategy:   backoff.Default(),
		logger:     logger,
		metrics:    metrics,
	}
}

// do runs op until it succeeds, the attempt budget is spent, or the failure
// is ineligible for retry. endpoint is a label for logging and metrics only.
func (r *retryer) do(ctx context.Context, endpoint string, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		// The last allowed attempt propagates immediately, no delay.
		if attempt >= r.maxRetries {
			return err
		}
		if !r.condition(nil, err) {
			return err
		}

		delay := r.strategy.Delay(attempt, r.baseDelay, r.maxDelay)

		if r.metrics != nil {
			r.metrics.RecordRetry(endpoint, attempt+1)
		}
		if r.logger != nil {
			r.logger.Debug("scheduling retry",
				"endpoint", endpoint, "attempt", attempt+1, "maxRetries", r.maxRetries, "delay", delay)
		}

		if serr := r.sleep(ctx, delay); serr != nil {
			// Wait cut short by the caller's context; surface the last
			// attempt's typed failure rather than inventing a new one.
			if r.logger != nil {
				r.logger.Debug("retry wait canceled", "endpoint", endpoint, "cause", serr)
			}
			return err
		}
	}
}
