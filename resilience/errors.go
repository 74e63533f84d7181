package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	// Matched by CircuitOpenError via errors.Is.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrBudgetExhausted marks a retry skipped because the shared retry
	// budget was spent.
	ErrBudgetExhausted = errors.New("resilience: retry budget exhausted")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// CircuitOpenError is returned when a call is rejected without being
// attempted. It carries the service name and the earliest time a retry
// can transition the breaker to half-open, so callers can surface
// "service unavailable, retry after X" rather than a generic failure.
type CircuitOpenError struct {
	Service     string
	NextRetryAt time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("resilience: circuit open for %q, next retry at %s",
		e.Service, e.NextRetryAt.Format(time.RFC3339))
}

// Is reports ErrCircuitOpen as a match so callers can test with
// errors.Is without knowing the concrete type.
func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

// HTTPError carries an HTTP status code through an error chain so the
// retry classifier can see it. Wrapped API responses surface as this
// type.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("resilience: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("resilience: http %d", e.Status)
}

// HTTPStatus returns the status code. Foreign error types can implement
// the same method to participate in retry classification.
func (e *HTTPError) HTTPStatus() int {
	return e.Status
}
