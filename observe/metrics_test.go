package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("metric %s is %T, want Sum[int64]", name, m.Data)
				}
				return sum
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Sum[int64]{}
}

func TestMetrics_CacheCounters(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordCacheHit(ctx, "memory")
	m.RecordCacheHit(ctx, "memory")
	m.RecordCacheHit(ctx, "kv")
	m.RecordCacheMiss(ctx)

	hits := collectSum(t, reader, "resilience.cache.hits")
	byTier := make(map[string]int64)
	for _, dp := range hits.DataPoints {
		tier, _ := dp.Attributes.Value(attribute.Key("tier"))
		byTier[tier.AsString()] = dp.Value
	}
	if byTier["memory"] != 2 || byTier["kv"] != 1 {
		t.Errorf("hits by tier = %v, want memory=2 kv=1", byTier)
	}
}

func TestMetrics_BreakerTransitions(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordBreakerTransition(ctx, "inventory", "closed", "open")
	m.RecordBreakerTransition(ctx, "inventory", "open", "half_open")

	sum := collectSum(t, reader, "resilience.breaker.transitions")
	var total int64
	for _, dp := range sum.DataPoints {
		svc, _ := dp.Attributes.Value(attribute.Key("service"))
		if svc.AsString() != "inventory" {
			t.Errorf("service attribute = %q, want inventory", svc.AsString())
		}
		total += dp.Value
	}
	if total != 2 {
		t.Errorf("transition total = %d, want 2", total)
	}
}

func TestMetrics_RetryAndSyncCounters(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordRetry(ctx, 1)
	m.RecordRetry(ctx, 2)
	m.RecordSyncResult(ctx, "success")
	m.RecordSyncResult(ctx, "error")
	m.RecordSyncResult(ctx, "error")

	retries := collectSum(t, reader, "resilience.retry.attempts")
	var retryTotal int64
	for _, dp := range retries.DataPoints {
		retryTotal += dp.Value
	}
	if retryTotal != 2 {
		t.Errorf("retry total = %d, want 2", retryTotal)
	}

	syncs := collectSum(t, reader, "resilience.offline.sync_results")
	byStatus := make(map[string]int64)
	for _, dp := range syncs.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		byStatus[status.AsString()] = dp.Value
	}
	if byStatus["success"] != 1 || byStatus["error"] != 2 {
		t.Errorf("sync results = %v, want success=1 error=2", byStatus)
	}
}

func TestNopMetrics_Safe(t *testing.T) {
	ctx := context.Background()
	m := NewNopMetrics()
	m.RecordCacheHit(ctx, "memory")
	m.RecordCacheMiss(ctx)
	m.RecordBreakerTransition(ctx, "svc", "closed", "open")
	m.RecordRetry(ctx, 1)
	m.RecordSyncResult(ctx, "success")
}
