package resilience

import "time"

// Policy describes the backoff schedule for one class of operation.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry; subsequent delays
	// double per attempt.
	BaseDelay time.Duration

	// MaxDelay caps the exponential delay.
	MaxDelay time.Duration

	// JitterFactor in [0, 1] controls full jitter: 0 is deterministic,
	// 1 spreads each delay over [0, exponential delay].
	JitterFactor float64
}

// ReadPolicy returns the policy for idempotent reads: frequent, cheap
// to repeat.
func ReadPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		BaseDelay:    300 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		JitterFactor: 0.3,
	}
}

// WritePolicy returns the policy for mutating calls: fewer retries,
// longer waits, lower jitter.
func WritePolicy() Policy {
	return Policy{
		MaxRetries:   2,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.2,
	}
}

// CriticalPolicy returns the policy for operations that must eventually
// land: aggressive retry count with wide jitter.
func CriticalPolicy() Policy {
	return Policy{
		MaxRetries:   5,
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		JitterFactor: 0.5,
	}
}

// NoRetryPolicy disables retries entirely.
func NoRetryPolicy() Policy {
	return Policy{MaxRetries: 0}
}
