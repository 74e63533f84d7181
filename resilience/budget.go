package resilience

import (
	"sync"
	"time"
)

// Budget bounds how many retries may be spent within a sliding time
// window. One Budget shared across many Retry instances caps total
// retry volume system-wide, which is what prevents retry storms.
type Budget struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time
}

// NewBudget creates a budget admitting at most max retries per window.
func NewBudget(max int, window time.Duration) *Budget {
	// Apply defaults
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Budget{max: max, window: window}
}

// TryAcquire admits one retry if the budget has room, recording the
// spend. Timestamps older than the window are pruned first, recomputed
// against the wall clock on every call.
func (b *Budget) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.pruneLocked(now)

	if len(b.stamps) >= b.max {
		return false
	}
	b.stamps = append(b.stamps, now)
	return true
}

// Remaining reports how many retries the budget would still admit.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(time.Now())
	return b.max - len(b.stamps)
}

func (b *Budget) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.stamps) && !b.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[i:]...)
	}
}
