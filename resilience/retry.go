package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopsignal/steadfast/observe"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// Policy is the backoff schedule.
	// Default: ReadPolicy()
	Policy Policy

	// RetryIf determines if an error should trigger a retry.
	// Default: IsRetryable
	RetryIf func(err error) bool

	// Budget optionally bounds retries across many callers sharing one
	// instance. A retry that cannot acquire from the budget is skipped
	// and the last error is returned.
	Budget *Budget

	// OnRetry is called before each wait. Returning false aborts the
	// retry loop and the last error is returned.
	OnRetry func(attempt int, err error, delay time.Duration) bool

	// Metrics records retry attempts when set.
	Metrics observe.Metrics
}

// Retry executes operations with bounded, jittered backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.Policy == (Policy{}) {
		config.Policy = ReadPolicy()
	}
	if config.RetryIf == nil {
		config.RetryIf = IsRetryable
	}
	if config.Metrics == nil {
		config.Metrics = observe.NewNopMetrics()
	}

	return &Retry{config: config}
}

// Execute runs op, retrying per the configured policy. A retry happens
// only when attempts remain, the error classifies as retryable, the
// context is not done, and the budget (if any) admits it.
//
// Cancelling the context during the inter-retry wait returns the last
// operation error, not ctx.Err(), so callers can still distinguish
// "gave up mid-retry" from "never attempted".
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= r.config.Policy.MaxRetries {
			break
		}
		if !r.config.RetryIf(err) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if r.config.Budget != nil && !r.config.Budget.TryAcquire() {
			break
		}

		delay := CalculateBackoff(attempt, r.config.Policy)

		if r.config.OnRetry != nil && !r.config.OnRetry(attempt+1, err, delay) {
			break
		}

		r.config.Metrics.RecordRetry(ctx, attempt+1)

		// Wait for delay or cancellation; on cancellation the original
		// error propagates.
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// ExecuteValue runs op through r and returns its value. The zero value
// of T is returned alongside any error.
func ExecuteValue[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

// CalculateBackoff computes the delay before retry number attempt
// (zero-based) under p, using capped exponential backoff with full
// jitter: the exponential delay is min(MaxDelay, BaseDelay*2^attempt)
// and JitterFactor spreads that over a random range. With JitterFactor
// zero the result is deterministic. Delays round to whole milliseconds.
func CalculateBackoff(attempt int, p Policy) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	exp := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && exp > max {
		exp = max
	}

	delay := exp
	if p.JitterFactor > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay = exp*(1-p.JitterFactor) + rand.Float64()*exp*p.JitterFactor
	}

	ms := math.Round(delay / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}
