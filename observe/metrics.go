package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resilience-layer activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCacheHit records a cache hit served from the named tier.
	RecordCacheHit(ctx context.Context, tier string)

	// RecordCacheMiss records a miss across all cache tiers.
	RecordCacheMiss(ctx context.Context)

	// RecordBreakerTransition records a circuit state change for a service.
	RecordBreakerTransition(ctx context.Context, service, from, to string)

	// RecordRetry records one retry attempt.
	RecordRetry(ctx context.Context, attempt int)

	// RecordSyncResult records the outcome of one replayed offline action.
	RecordSyncResult(ctx context.Context, status string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	breakerTrans  metric.Int64Counter
	retryAttempts metric.Int64Counter
	syncResults   metric.Int64Counter
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	cacheHits, err := meter.Int64Counter(
		"resilience.cache.hits",
		metric.WithDescription("Cache hits by storage tier"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"resilience.cache.misses",
		metric.WithDescription("Cache misses across all tiers"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	breakerTrans, err := meter.Int64Counter(
		"resilience.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := meter.Int64Counter(
		"resilience.retry.attempts",
		metric.WithDescription("Retry attempts after first failure"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	syncResults, err := meter.Int64Counter(
		"resilience.offline.sync_results",
		metric.WithDescription("Replayed offline action outcomes by status"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		breakerTrans:  breakerTrans,
		retryAttempts: retryAttempts,
		syncResults:   syncResults,
	}, nil
}

func (m *metricsImpl) RecordCacheHit(ctx context.Context, tier string) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *metricsImpl) RecordCacheMiss(ctx context.Context) {
	m.cacheMisses.Add(ctx, 1)
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, service, from, to string) {
	m.breakerTrans.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *metricsImpl) RecordRetry(ctx context.Context, attempt int) {
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}

func (m *metricsImpl) RecordSyncResult(ctx context.Context, status string) {
	m.syncResults.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordCacheHit(context.Context, string)                          {}
func (noopMetrics) RecordCacheMiss(context.Context)                                 {}
func (noopMetrics) RecordBreakerTransition(context.Context, string, string, string) {}
func (noopMetrics) RecordRetry(context.Context, int)                                {}
func (noopMetrics) RecordSyncResult(context.Context, string)                        {}

// NewNopMetrics returns a Metrics implementation that records nothing.
func NewNopMetrics() Metrics {
	return noopMetrics{}
}

var _ Metrics = (*metricsImpl)(nil)
var _ Metrics = noopMetrics{}
