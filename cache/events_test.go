package cache

import (
	"context"
	"testing"

	"github.com/shopsignal/steadfast/store"
)

func TestEvents_EmitNotifiesSubscribers(t *testing.T) {
	m := NewManager(Config{KV: store.NewMemoryKV()})
	defer m.Dispose()

	calls := 0
	m.OnInvalidation("orders-changed", func() { calls++ })
	m.OnInvalidation("orders-changed", func() { calls++ })

	m.EmitInvalidation("orders-changed")

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestEvents_UnsubscribeStopsDelivery(t *testing.T) {
	m := NewManager(Config{})
	defer m.Dispose()

	calls := 0
	unsubscribe := m.OnInvalidation("k", func() { calls++ })

	m.EmitInvalidation("k")
	unsubscribe()
	m.EmitInvalidation("k")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestEvents_PanickingListenerIsolated(t *testing.T) {
	m := NewManager(Config{})
	defer m.Dispose()

	survived := false
	m.OnInvalidation("k", func() { panic("bad listener") })
	m.OnInvalidation("k", func() { survived = true })

	m.EmitInvalidation("k")

	if !survived {
		t.Error("healthy listener was not notified after a peer panicked")
	}
}

func TestEvents_DistinctKeys(t *testing.T) {
	m := NewManager(Config{})
	defer m.Dispose()

	calls := 0
	m.OnInvalidation("a", func() { calls++ })

	m.EmitInvalidation("b")

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
}

func TestDispose_ClearsListeners(t *testing.T) {
	m := NewManager(Config{})

	calls := 0
	m.OnInvalidation("k", func() { calls++ })
	m.Dispose()
	m.EmitInvalidation("k")

	if calls != 0 {
		t.Errorf("calls = %d, want 0 after Dispose", calls)
	}

	// The manager still works for cache operations afterwards.
	m.Set(context.Background(), "x", []byte("v"), SetOptions{Layers: []Layer{LayerMemory}})
	if _, ok := m.Get(context.Background(), "x", nil); !ok {
		t.Error("Get() miss after Dispose")
	}
}
