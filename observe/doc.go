// Package observe provides structured logging and metrics for the
// resilience components.
//
// The Logger interface is a minimal structured logging contract with a
// JSON implementation suitable for production and a no-op implementation
// for callers that do not care about log output. Metrics wraps the
// OpenTelemetry metric API and records cache, circuit breaker, retry and
// sync activity; the no-op implementation is the default everywhere so
// instrumentation is strictly opt-in.
//
// Background work inside the resilience components (cache revalidation,
// queue persistence) routes its failures through a Logger rather than
// silently dropping them.
package observe
