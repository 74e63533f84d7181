package offline

// SyncStatus classifies the outcome of replaying one queued action.
type SyncStatus string

const (
	// SyncSuccess means the action was delivered.
	SyncSuccess SyncStatus = "success"
	// SyncConflict means the server rejected the action as stale (409)
	// or the action aged past the freshness ceiling. Never retried.
	SyncConflict SyncStatus = "conflict"
	// SyncError means delivery failed; the action may be retried on a
	// later pass if attempts remain.
	SyncError SyncStatus = "error"
)

// SyncResult is the immutable outcome of one replay attempt.
type SyncResult struct {
	Status SyncStatus
	Action Action

	// ServerVersion is the version or etag reported by a 409 response,
	// when the server included one.
	ServerVersion string

	// Err is set for SyncError results.
	Err error
}
