package offline

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopsignal/steadfast/observe"
	"github.com/shopsignal/steadfast/store"
)

// Status is the manager's connectivity state. Syncing takes precedence
// over online while a replay pass runs.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusSyncing Status = "syncing"
)

// Config configures a Manager.
type Config struct {
	// KV persists the queue across restarts.
	// Default: in-memory (no durability)
	KV store.KV

	// StorageKey is the key the queue is persisted under.
	// Default: "offline-action-queue"
	StorageKey string

	// MaxQueueSize bounds the queue; when full, the oldest entry is
	// evicted to admit a new one.
	// Default: 100
	MaxQueueSize int

	// MaxRetries is the per-action retry limit applied to actions that
	// do not carry their own.
	// Default: 3
	MaxRetries int

	// StaleAfter is the freshness ceiling: an action older than this is
	// treated as a conflict instead of replayed. Negative disables the
	// check.
	// Default: 24h
	StaleAfter time.Duration

	// DisableAutoSync turns off the automatic replay pass on
	// reconnect.
	DisableAutoSync bool

	// Connectivity signals when the network is reachable.
	// Default: ManualConnectivity starting online
	Connectivity Connectivity

	// HTTPClient executes the queued actions.
	// Default: client with 30s timeout
	HTTPClient *http.Client

	// Logger receives persistence and replay diagnostics.
	Logger observe.Logger

	// Metrics records sync outcomes when set.
	Metrics observe.Metrics
}

// Manager queues mutating actions while offline and replays them in
// FIFO order once connectivity returns.
type Manager struct {
	config Config

	mu      sync.Mutex
	queue   *persistentQueue
	syncing bool

	nextSub         int
	statusSubs      map[int]func(Status)
	queueSubs       map[int]func(int)
	resultSubs      map[int]func([]SyncResult)
	unsubscribeConn func()
}

// NewManager creates an offline manager, restoring any persisted queue.
func NewManager(config Config) *Manager {
	// Apply defaults
	if config.KV == nil {
		config.KV = store.NewMemoryKV()
	}
	if config.StorageKey == "" {
		config.StorageKey = "offline-action-queue"
	}
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = 100
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.StaleAfter == 0 {
		config.StaleAfter = 24 * time.Hour
	}
	if config.Connectivity == nil {
		config.Connectivity = NewManualConnectivity(true)
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = observe.NewNopLogger()
	}
	if config.Metrics == nil {
		config.Metrics = observe.NewNopMetrics()
	}

	m := &Manager{
		config:     config,
		queue:      newPersistentQueue(config.KV, config.StorageKey, config.MaxQueueSize, config.Logger),
		statusSubs: make(map[int]func(Status)),
		queueSubs:  make(map[int]func(int)),
		resultSubs: make(map[int]func([]SyncResult)),
	}

	m.unsubscribeConn = config.Connectivity.Subscribe(func(online bool) {
		m.onConnectivityChange(online)
	})

	return m
}

// Enqueue submits a mutating action. While online and not mid-sync the
// action is attempted immediately; on success the queue is never
// touched. Otherwise the action joins the durable queue for the next
// replay pass. Returns the action's id.
func (m *Manager) Enqueue(ctx context.Context, a Action) string {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp == 0 {
		a.Timestamp = time.Now().UnixMilli()
	}
	if a.MaxRetries <= 0 {
		a.MaxRetries = m.config.MaxRetries
	}

	if m.Status() == StatusOnline {
		if res := m.execute(ctx, a); res.Status == SyncSuccess {
			return a.ID
		}
	}

	m.mu.Lock()
	m.queue.push(ctx, a)
	length := m.queue.len()
	m.mu.Unlock()

	m.notifyQueue(length)
	return a.ID
}

// SyncNow replays the queue. Only one replay pass runs at a time; a
// caller racing an in-flight pass gets an empty result immediately.
func (m *Manager) SyncNow(ctx context.Context) []SyncResult {
	m.mu.Lock()
	if m.syncing || m.queue.len() == 0 {
		m.mu.Unlock()
		return nil
	}
	m.syncing = true
	pending := m.queue.drain()
	m.mu.Unlock()

	m.notifyStatus(StatusSyncing)

	results := make([]SyncResult, 0, len(pending))
	var retained []Action

	for i, a := range pending {
		// Connectivity lost mid-pass: defer this and everything after
		// it, untouched, to the next pass.
		if !m.config.Connectivity.Online() {
			retained = append(retained, pending[i:]...)
			break
		}

		res := m.execute(ctx, a)
		switch res.Status {
		case SyncSuccess, SyncConflict:
			// Dropped from the queue either way; conflicts are never
			// blindly retried.
		case SyncError:
			a.RetryCount++
			res.Action = a
			if a.RetryCount < a.MaxRetries {
				retained = append(retained, a)
			} else {
				m.config.Logger.Warn(ctx, "offline action dropped after max retries",
					observe.F("id", a.ID), observe.F("description", a.Description))
			}
		}

		m.config.Metrics.RecordSyncResult(ctx, string(res.Status))
		results = append(results, res)
	}

	m.mu.Lock()
	m.queue.prepend(ctx, retained)
	m.syncing = false
	length := m.queue.len()
	m.mu.Unlock()

	m.notifyStatus(m.Status())
	m.notifyQueue(length)
	m.notifyResults(results)

	return results
}

// Status reports the current state: syncing while a replay pass runs,
// otherwise whatever connectivity says.
func (m *Manager) Status() Status {
	m.mu.Lock()
	syncing := m.syncing
	m.mu.Unlock()

	if syncing {
		return StatusSyncing
	}
	if m.config.Connectivity.Online() {
		return StatusOnline
	}
	return StatusOffline
}

// QueueLength reports how many actions are pending.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.len()
}

// Pending returns a copy of the queued actions in replay order.
func (m *Manager) Pending() []Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.snapshot()
}

// ClearQueue drops all pending actions.
func (m *Manager) ClearQueue(ctx context.Context) {
	m.mu.Lock()
	m.queue.clear(ctx)
	m.mu.Unlock()
	m.notifyQueue(0)
}

// OnStatusChange registers a status listener. The returned function
// deregisters it.
func (m *Manager) OnStatusChange(fn func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.statusSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.statusSubs, id)
	}
}

// OnQueueChange registers a queue-length listener.
func (m *Manager) OnQueueChange(fn func(length int)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.queueSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.queueSubs, id)
	}
}

// OnSyncResults registers a listener notified once per replay pass with
// the full batch of results. Permanently failed actions surface only
// here; the queue itself stays clean.
func (m *Manager) OnSyncResults(fn func([]SyncResult)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.resultSubs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.resultSubs, id)
	}
}

// Dispose deregisters the connectivity listener and clears all
// subscriber sets so the manager can be torn down without leaking
// callbacks.
func (m *Manager) Dispose() {
	if m.unsubscribeConn != nil {
		m.unsubscribeConn()
		m.unsubscribeConn = nil
	}

	m.mu.Lock()
	m.statusSubs = make(map[int]func(Status))
	m.queueSubs = make(map[int]func(int))
	m.resultSubs = make(map[int]func([]SyncResult))
	m.mu.Unlock()
}

func (m *Manager) onConnectivityChange(online bool) {
	m.notifyStatus(m.Status())

	if !online || m.config.DisableAutoSync {
		return
	}
	m.mu.Lock()
	hasWork := m.queue.len() > 0
	m.mu.Unlock()
	if hasWork {
		go m.SyncNow(context.Background())
	}
}

func (m *Manager) notifyStatus(s Status) {
	for _, fn := range m.snapshotStatusSubs() {
		func() {
			defer func() { _ = recover() }()
			fn(s)
		}()
	}
}

func (m *Manager) notifyQueue(length int) {
	m.mu.Lock()
	subs := make([]func(int), 0, len(m.queueSubs))
	for _, fn := range m.queueSubs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() { _ = recover() }()
			fn(length)
		}()
	}
}

func (m *Manager) notifyResults(results []SyncResult) {
	m.mu.Lock()
	subs := make([]func([]SyncResult), 0, len(m.resultSubs))
	for _, fn := range m.resultSubs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		func() {
			defer func() { _ = recover() }()
			fn(results)
		}()
	}
}

func (m *Manager) snapshotStatusSubs() []func(Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]func(Status), 0, len(m.statusSubs))
	for _, fn := range m.statusSubs {
		subs = append(subs, fn)
	}
	return subs
}
