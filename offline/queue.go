package offline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopsignal/steadfast/observe"
	"github.com/shopsignal/steadfast/store"
)

// Action is one pending mutating HTTP call. The JSON form is the
// persisted queue representation; unknown extra fields are tolerated on
// load so old and new binaries can share a queue.
type Action struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Method        string            `json:"method"`
	Body          []byte            `json:"body,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Timestamp     int64             `json:"timestamp"`
	RetryCount    int               `json:"retryCount"`
	MaxRetries    int               `json:"maxRetries"`
	EntityVersion string            `json:"entityVersion,omitempty"`
	Description   string            `json:"description,omitempty"`
}

// Age returns how long ago the action was enqueued.
func (a Action) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-a.Timestamp) * time.Millisecond
}

// persistentQueue is the durable FIFO queue of pending actions. It is
// not safe for concurrent use; the manager serializes access.
type persistentQueue struct {
	kv      store.KV
	key     string
	logger  observe.Logger
	maxSize int
	actions []Action
}

func newPersistentQueue(kv store.KV, key string, maxSize int, logger observe.Logger) *persistentQueue {
	q := &persistentQueue{kv: kv, key: key, maxSize: maxSize, logger: logger}
	q.load()
	return q
}

// load restores the persisted queue. Corrupt or unreadable storage
// falls back to an empty queue; startup must never fail on it.
func (q *persistentQueue) load() {
	ctx := context.Background()

	raw, ok, err := q.kv.Get(ctx, q.key)
	if err != nil {
		q.logger.Warn(ctx, "offline queue unreadable, starting empty",
			observe.F("error", err.Error()))
		return
	}
	if !ok {
		return
	}

	var actions []Action
	if err := json.Unmarshal(raw, &actions); err != nil {
		q.logger.Warn(ctx, "offline queue corrupt, starting empty",
			observe.F("error", err.Error()))
		return
	}

	// An entry missing its required fields marks the whole queue
	// unreadable rather than replaying partial garbage.
	for _, a := range actions {
		if a.ID == "" || a.URL == "" || a.Method == "" {
			q.logger.Warn(ctx, "offline queue entry invalid, starting empty",
				observe.F("id", a.ID))
			return
		}
	}

	q.actions = actions
}

// persist writes the queue to durable storage; called after every
// mutation. Failures are logged, not propagated.
func (q *persistentQueue) persist(ctx context.Context) {
	raw, err := json.Marshal(q.actions)
	if err != nil {
		q.logger.Warn(ctx, "offline queue serialize failed", observe.F("error", err.Error()))
		return
	}
	if err := q.kv.Set(ctx, q.key, raw); err != nil {
		q.logger.Warn(ctx, "offline queue persist failed", observe.F("error", err.Error()))
	}
}

// push appends an action, evicting the oldest entry first when full.
func (q *persistentQueue) push(ctx context.Context, a Action) {
	if q.maxSize > 0 && len(q.actions) >= q.maxSize {
		evicted := q.actions[0]
		q.actions = append(q.actions[:0], q.actions[1:]...)
		q.logger.Warn(ctx, "offline queue full, evicting oldest action",
			observe.F("id", evicted.ID), observe.F("description", evicted.Description))
	}
	q.actions = append(q.actions, a)
	q.persist(ctx)
}

// drain removes and returns all queued actions without persisting;
// the caller persists once it has decided what to put back.
func (q *persistentQueue) drain() []Action {
	actions := q.actions
	q.actions = nil
	return actions
}

// prepend puts retained actions back at the front, ahead of anything
// enqueued while a sync pass was running.
func (q *persistentQueue) prepend(ctx context.Context, actions []Action) {
	if len(actions) > 0 {
		q.actions = append(actions, q.actions...)
	}
	q.persist(ctx)
}

func (q *persistentQueue) clear(ctx context.Context) {
	q.actions = nil
	q.persist(ctx)
}

func (q *persistentQueue) len() int {
	return len(q.actions)
}

// snapshot returns a copy of the pending actions.
func (q *persistentQueue) snapshot() []Action {
	out := make([]Action, len(q.actions))
	copy(out, q.actions)
	return out
}
