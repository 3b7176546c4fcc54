// Package hudp implements a hybrid UDP transport: one unreliable,
// best-effort channel and one reliable channel using Selective-Repeat ARQ,
// multiplexed over a single UDP socket per endpoint.
//
// The reliable channel gives in-order, at-most-once delivery via per-packet
// acknowledgments, per-packet retransmission timers, a sliding send window,
// a reordering receive buffer, and a bounded gap-skip policy that trades
// completeness for bounded delivery latency. The unreliable channel is a
// stateless pass-through with no ordering, buffering, or acknowledgment.
//
// Every Transport (Client or Server) runs its engine on a single goroutine;
// callers interact with it over the Send/Close API, which hands work to
// that goroutine through channels rather than locking shared state.
package hudp
