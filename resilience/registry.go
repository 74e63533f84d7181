package resilience

import (
	"sync"
	"time"
)

// Registry hands out one circuit breaker per service name so every call
// site referencing the same service shares breaker state. Construction
// is idempotent: the config passed to Get only applies on first use of
// a name.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewRegistry creates an empty breaker registry.
func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for service, creating it with config on first
// use.
func (r *Registry) Get(service string, config CircuitBreakerConfig) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[service]; ok {
		return cb
	}
	cb := NewCircuitBreaker(service, config)
	r.breakers[service] = cb
	return cb
}

// Lookup returns the breaker for service if one exists.
func (r *Registry) Lookup(service string) (*CircuitBreaker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[service]
	return cb, ok
}

// ResetAll forces every registered breaker closed. Intended for test
// teardown and manual recovery.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	for _, cb := range breakers {
		cb.Reset()
	}
}

// DefaultProfile suits a typical HTTP API: moderate tolerance, quick
// recovery probing.
func DefaultProfile() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:         5,
		ResetTimeout:             30 * time.Second,
		HalfOpenSuccessThreshold: 2,
	}
}

// SlowBackendProfile suits long-running backends (media generation,
// bulk fulfillment): slower to trip, much slower to re-probe, and a
// single successful probe closes the circuit.
func SlowBackendProfile() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:         3,
		ResetTimeout:             2 * time.Minute,
		HalfOpenSuccessThreshold: 1,
	}
}

// FastEndpointProfile suits cheap, high-volume endpoints (metrics,
// status polls): tolerant of bursts of failures, quick to re-probe,
// but demands sustained success before closing.
func FastEndpointProfile() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:         10,
		ResetTimeout:             10 * time.Second,
		HalfOpenSuccessThreshold: 3,
	}
}
