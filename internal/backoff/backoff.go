// Package backoff computes retry delays for the transport's retry loop.
package backoff

import (
	"math/rand"
	"time"
)

// Strategy is the interface for delay calculation algorithms.
type Strategy interface {
	// Delay returns the wait before the retry following the given 0-indexed
	// failed attempt.
	Delay(attempt int, baseDelay, maxDelay time.Duration) time.Duration
}

// ExponentialUniformJitter doubles the base delay per attempt and adds a
// uniform random jitter of up to one second, capped at maxDelay:
//
//	delay = min(base * 2^attempt + uniform(0, 1s), max)
//
// The jitter spreads out retries from callers that failed at the same moment.
type ExponentialUniformJitter struct{}

// Delay implements Strategy.
func (ExponentialUniformJitter) Delay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^63 overflows time.Duration long before attempt 62; the cap makes
	// anything past ~30 doublings equivalent anyway.
	if attempt > 30 {
		attempt = 30
	}

	delay := time.Duration(float64(baseDelay) * Pow(2, attempt))
	if delay < 0 || delay > maxDelay {
		return maxDelay
	}

	delay += time.Duration(rand.Float64() * float64(time.Second))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// Pow computes base^exponent by repeated multiplication, matching the
// integer-exponent semantics the delay formula needs.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}

// Default returns the strategy used when none is configured.
func Default() Strategy {
	return ExponentialUniformJitter{}
}
