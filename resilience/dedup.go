package resilience

import "golang.org/x/sync/singleflight"

// Deduplicator collapses concurrent identical requests: while a call
// for a key is in flight, further calls with the same key wait for and
// share its result instead of invoking fn again. The in-flight entry is
// released when the call settles, success or failure.
type Deduplicator struct {
	group singleflight.Group
}

// NewDeduplicator creates an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Do executes fn for key unless an identical call is already in flight,
// in which case it waits and returns that call's result. The shared
// return reports whether the result was shared with other callers.
func (d *Deduplicator) Do(key string, fn func() (any, error)) (v any, err error, shared bool) {
	return d.group.Do(key, fn)
}

// Forget drops the in-flight entry for key so the next Do call invokes
// fn again even if an older call has not settled.
func (d *Deduplicator) Forget(key string) {
	d.group.Forget(key)
}
