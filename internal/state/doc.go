// Package state provides thread-safe state management for the pingdeck
// application.
//
// # Overview
//
// Two independent stores live here, and they are never merged into one
// authoritative structure:
//
//   - LiveStore: the push-sourced live-status collection, one current
//     value per service id, written only by the push manager's read loop.
//   - SiteStore: the request/response cache of site configuration,
//     written only by its own fulfillment handlers.
//
// The view package combines the two, read-only, for display.
//
// # Architecture
//
//	Producer (push read loop):       Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────────┐
//	│ ApplySnapshot()      │        │ live.Services()      │
//	│ ApplyUpdate()        │───────→│ live.Version()       │
//	└──────────────────────┘ (mutex)└──────────────────────┘
//
//	Producer (CRUD calls):           Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────────┐
//	│ Fetch/Create/Update/ │        │ sites.Snapshot()     │
//	│ Delete/RunCheck      │───────→│                      │
//	└──────────────────────┘ (mutex)└──────────────────────┘
//
// # Update Semantics
//
// LiveStore: a snapshot is a total replace (ids it omits are gone); an
// update is an upsert of exactly one id. Both are idempotent, last write
// wins, no timestamp arbitration.
//
// SiteStore: every operation is pending -> fulfilled/rejected. A
// rejected operation records a human-readable error and leaves the
// previously cached collection untouched; there are no optimistic
// mutations. Concurrent operations share a single Loading/Error pair by
// design (last completion wins); callers needing strict ordering must
// serialize themselves.
//
// # Concurrency Model
//
// Both stores use a readers-writer lock and return defensive copies, so
// the UI can read frequently without blocking the producers. Locks are
// held only for copy operations, never across network I/O.
package state
