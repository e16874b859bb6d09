// SPDX-License-Identifier: EPL-2.0

// Package playback turns string requests into pooled, sequenced playback.
//
// A Manager resolves a Request against a library.Library, takes a Player from
// a pool.Pool and wraps both in a Sequence:
//
//	Idle -> Playing <-> Paused -> Completed
//	          \________________-> Stopped
//
// Requests resolve before a player is taken, so an unknown key never holds a
// pool member. When a sequence finishes its player goes back to the pool
// exactly once.
//
// Players that implement CompletionNotifier report the end of a clip through
// a callback; all others are polled by Manager.Tick, which also counts down
// Delay modules and advances fades.
package playback
