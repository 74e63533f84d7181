// Package offline guarantees that mutating HTTP actions requested while
// disconnected are not lost.
//
// Actions enqueued while online are attempted immediately; on failure,
// or while offline or mid-sync, they join a durable FIFO queue that
// survives process restarts. When connectivity returns the queue is
// replayed in submission order with bounded per-action retries,
// optimistic-concurrency conflict detection (If-Match / 409), and a
// configurable freshness ceiling beyond which an action is treated as
// conflicted rather than replayed blindly.
//
// Connectivity is an injected interface so the manager never probes the
// environment itself; ManualConnectivity suits applications that learn
// about connectivity elsewhere, ProbeConnectivity polls an endpoint.
package offline
