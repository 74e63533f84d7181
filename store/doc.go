// Package store provides the storage backends the cache and offline
// queue persist to.
//
// Two interfaces cover the two durable tiers: KV for small values with
// native prefix listing, and Blob for large objects where key discovery
// happens by cursor iteration. In-memory implementations of both serve
// as fallbacks when no durable backend is available, so the components
// built on top never branch on the environment.
//
// Durable implementations: RedisKV on go-redis, SQLiteBlob on a local
// SQLite database file.
package store
