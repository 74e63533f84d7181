package offline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopsignal/steadfast/observe"
	"github.com/shopsignal/steadfast/store"
)

func seedQueue(t *testing.T, kv store.KV, raw string) {
	t.Helper()
	if err := kv.Set(context.Background(), "q", []byte(raw)); err != nil {
		t.Fatal(err)
	}
}

func TestQueueLoad_CorruptJSONStartsEmpty(t *testing.T) {
	kv := store.NewMemoryKV()
	seedQueue(t, kv, `{"not":"an array`)

	q := newPersistentQueue(kv, "q", 10, observe.NewNopLogger())
	if q.len() != 0 {
		t.Errorf("len() = %d, want 0 for corrupt storage", q.len())
	}
}

func TestQueueLoad_InvalidEntryStartsEmpty(t *testing.T) {
	kv := store.NewMemoryKV()
	seedQueue(t, kv, `[{"id":"a1","url":"https://x/1","method":"POST","timestamp":1},{"id":"","url":"","method":""}]`)

	q := newPersistentQueue(kv, "q", 10, observe.NewNopLogger())
	if q.len() != 0 {
		t.Errorf("len() = %d, want 0 when an entry is invalid", q.len())
	}
}

func TestQueueLoad_UnknownFieldsTolerated(t *testing.T) {
	kv := store.NewMemoryKV()
	seedQueue(t, kv, `[{"id":"a1","url":"https://x/1","method":"POST","timestamp":1,"futureField":{"nested":true}}]`)

	q := newPersistentQueue(kv, "q", 10, observe.NewNopLogger())
	if q.len() != 1 {
		t.Fatalf("len() = %d, want 1", q.len())
	}
	if got := q.snapshot()[0].ID; got != "a1" {
		t.Errorf("ID = %q, want %q", got, "a1")
	}
}

func TestQueuePush_EvictsOldestWhenFull(t *testing.T) {
	kv := store.NewMemoryKV()
	q := newPersistentQueue(kv, "q", 3, observe.NewNopLogger())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		q.push(ctx, Action{ID: fmt.Sprintf("a%d", i), URL: "https://x", Method: "POST", Timestamp: 1})
	}

	if q.len() != 3 {
		t.Fatalf("len() = %d, want 3", q.len())
	}
	snap := q.snapshot()
	if snap[0].ID != "a1" || snap[2].ID != "a3" {
		t.Errorf("queue = [%s .. %s], want oldest a0 evicted", snap[0].ID, snap[2].ID)
	}

	// Persisted state reflects the eviction too.
	restored := newPersistentQueue(kv, "q", 3, observe.NewNopLogger())
	if restored.len() != 3 || restored.snapshot()[0].ID != "a1" {
		t.Errorf("restored head = %q, want a1", restored.snapshot()[0].ID)
	}
}

func TestQueuePrepend_RetainedStayAheadOfNewArrivals(t *testing.T) {
	kv := store.NewMemoryKV()
	q := newPersistentQueue(kv, "q", 10, observe.NewNopLogger())

	ctx := context.Background()
	q.push(ctx, Action{ID: "retained", URL: "https://x", Method: "POST", Timestamp: 1})

	drained := q.drain()
	if q.len() != 0 {
		t.Fatalf("len() = %d after drain, want 0", q.len())
	}

	// Simulates an enqueue landing while the sync pass held the drained
	// actions.
	q.push(ctx, Action{ID: "new", URL: "https://x", Method: "POST", Timestamp: 2})
	q.prepend(ctx, drained)

	snap := q.snapshot()
	if len(snap) != 2 || snap[0].ID != "retained" || snap[1].ID != "new" {
		t.Errorf("order = %v, want retained then new", []string{snap[0].ID, snap[1].ID})
	}
}

func TestQueuePersist_StorageFailureIsNonFatal(t *testing.T) {
	kv := &failingKV{KV: store.NewMemoryKV()}
	q := newPersistentQueue(kv, "q", 10, observe.NewNopLogger())

	// Push must still mutate the in-memory queue even though persistence
	// fails.
	q.push(context.Background(), Action{ID: "a1", URL: "https://x", Method: "POST", Timestamp: 1})
	if q.len() != 1 {
		t.Errorf("len() = %d, want 1", q.len())
	}
}

// failingKV wraps a KV and fails every write.
type failingKV struct {
	store.KV
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	return store.ErrUnavailable
}

func TestActionAge(t *testing.T) {
	a := Action{Timestamp: 1_000}
	if got := a.Age(time.UnixMilli(61_000)); got != 60*time.Second {
		t.Errorf("Age() = %v, want 60s", got)
	}
}
