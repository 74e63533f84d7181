package cache

import (
	"encoding/json"
	"time"
)

// Entry is the persisted form of one cached value. Timestamps and TTL
// are epoch milliseconds so the durable representation stays portable
// across processes; TTL zero means the entry never expires.
type Entry struct {
	Key        string `json:"key"`
	Value      []byte `json:"value"`
	CreatedAt  int64  `json:"createdAt"`
	AccessedAt int64  `json:"accessedAt"`
	TTL        int64  `json:"ttl"`
	Version    int    `json:"version"`
}

func newEntry(key string, value []byte, ttl time.Duration, version int) *Entry {
	now := time.Now().UnixMilli()
	var ttlMs int64
	if ttl > 0 {
		ttlMs = ttl.Milliseconds()
	}
	return &Entry{
		Key:        key,
		Value:      value,
		CreatedAt:  now,
		AccessedAt: now,
		TTL:        ttlMs,
		Version:    version,
	}
}

// Expired reports whether the entry's TTL has elapsed. TTL zero never
// expires.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL == 0 {
		return false
	}
	return now.UnixMilli()-e.CreatedAt > e.TTL
}

// usable reports whether the entry belongs to the given cache format
// version; a mismatch is treated as absence, which is what makes
// format migrations safe.
func (e *Entry) usable(version int) bool {
	return e.Version == version
}

func (e *Entry) touch(now time.Time) {
	e.AccessedAt = now.UnixMilli()
}

func encodeEntry(e *Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
