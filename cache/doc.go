// Package cache provides a tiered read-through cache with
// stale-while-revalidate semantics.
//
// Values flow through up to three storage tiers of increasing capacity
// and latency: a bounded in-memory map, a durable small-value store and
// a durable large-object store. Reads check the tiers fastest-first and
// promote hits upward, so frequently accessed cold data becomes warm
// automatically. Expired entries can be served stale while a background
// refresh repopulates them.
//
// Storage-tier failures never surface to callers: a broken tier reads
// as absent and skips writes, degrading capacity rather than
// correctness.
package cache
