package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/shopsignal/steadfast/observe"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the service recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before
	// opening the circuit.
	// Default: 5
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before the next
	// call is allowed through as a half-open probe.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenSuccessThreshold is the number of consecutive successes
	// in half-open state required to close the circuit.
	// Default: 2
	HalfOpenSuccessThreshold int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Metrics records state transitions when set.
	Metrics observe.Metrics
}

// CircuitBreaker implements the circuit breaker pattern for one named
// service. All state is owned by the breaker; callers observe it via
// State and Metrics only.
type CircuitBreaker struct {
	name   string
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker creates a new circuit breaker for the named service.
func NewCircuitBreaker(name string, config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenSuccessThreshold <= 0 {
		config.HalfOpenSuccessThreshold = 2
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Metrics == nil {
		config.Metrics = observe.NewNopMetrics()
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// Name returns the service name this breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute runs the operation through the circuit breaker. It returns
// op's error after recording it, or a *CircuitOpenError without
// invoking op when the circuit is open. Only the latter means the call
// was never attempted.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(ctx, err)
	return err
}

// State returns the current circuit state, applying the lazy open to
// half-open transition if the reset timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked(context.Background())
}

// Reset forces the circuit closed unconditionally.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0

	if oldState != StateClosed {
		cb.notifyTransition(context.Background(), oldState, StateClosed)
	}
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.currentStateLocked(context.Background()) == StateOpen {
		return &CircuitOpenError{
			Service:     cb.name,
			NextRetryAt: cb.lastFailure.Add(cb.config.ResetTimeout),
		}
	}
	return nil
}

func (cb *CircuitBreaker) afterRequest(ctx context.Context, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	isFailure := cb.config.IsFailure(err)
	oldState := cb.state

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.failures++
			cb.lastFailure = time.Now()
			if cb.failures >= cb.config.FailureThreshold {
				cb.state = StateOpen
				cb.failures = 0
			}
		} else {
			// Only consecutive failures count
			cb.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Any failure during probing reopens the circuit
			cb.lastFailure = time.Now()
			cb.state = StateOpen
			cb.successes = 0
		} else {
			cb.successes++
			if cb.successes >= cb.config.HalfOpenSuccessThreshold {
				cb.state = StateClosed
				cb.failures = 0
				cb.successes = 0
			}
		}
	}

	if oldState != cb.state {
		cb.notifyTransition(ctx, oldState, cb.state)
	}
}

// currentStateLocked applies the lazy transition from open to half-open
// once the reset timeout has elapsed. Wall-clock based, recomputed on
// every check, so a suspended process does not drift.
func (cb *CircuitBreaker) currentStateLocked(ctx context.Context) State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.successes = 0
		cb.notifyTransition(ctx, StateOpen, StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) notifyTransition(ctx context.Context, from, to State) {
	cb.config.Metrics.RecordBreakerTransition(ctx, cb.name, from.String(), to.String())
	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}

// Snapshot contains circuit breaker statistics.
type Snapshot struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		State:       cb.currentStateLocked(context.Background()),
		Failures:    cb.failures,
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
}
