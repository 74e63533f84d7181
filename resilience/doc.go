// Package resilience provides retry and circuit breaking for calls to
// flaky external services.
//
// # Patterns
//
//   - Retry: exponential backoff with full jitter, retryability
//     classification by HTTP status and network error signatures, an
//     optional shared retry budget, and per-operation idempotency keys.
//
//   - Circuit Breaker: a per-service state machine that short-circuits
//     calls after repeated failures and probes recovery through a
//     half-open trial period. Breakers for the same service are shared
//     through a Registry.
//
//   - Deduplicator: collapses concurrent identical requests into a
//     single in-flight call.
//
//   - Timeout: bounds the duration of a single attempt.
//
// # Usage
//
// Each pattern can be used independently or composed with an Executor:
//
//	reg := resilience.NewRegistry()
//	cb := reg.Get("fulfillment", resilience.SlowBackendProfile())
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        Policy: resilience.WritePolicy(),
//	    })),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callExternalService(ctx)
//	})
package resilience
