// Package state coordinates every change to the booking list, the
// customer book, and the archive ledger.
//
// # Overview
//
// The booking, customer, and archive packages are plain single-threaded
// types. This package wraps them so the UI, the CLI, and the sync engine
// can drive them from different goroutines without interleaving.
//
// # Architecture
//
//	UI / CLI intents            Sync engine (poll, join)
//	       │                             │
//	       │ AddBooking, MoveBooking…    │ Replica().Adopt
//	       ▼                             ▼
//	┌──────────────────────────────────────────┐
//	│ mutations channel → Run goroutine        │
//	│   1. apply to booking/customer/ledger    │
//	│   2. fold delivered bookings into ledger │
//	│   3. persist changed blobs (Backend)     │
//	│   4. publish snapshot (RWMutex)          │
//	│   5. local booking change → NotifyChanged│
//	└──────────────────────────────────────────┘
//	                     │
//	                     ▼
//	             Snapshot() / Bookings()
//
// Mutations are closures sent to the goroutine running Run, so two intents
// never observe each other half-applied. Callers block until their
// mutation has been applied and persisted.
//
// # Snapshots
//
// Readers never touch the live owners. After each mutation the loop
// publishes fresh copies under a write lock; Snapshot takes a read lock
// and copies again, so the UI can hold a snapshot across renders.
//
// # Echo Suppression
//
// Only locally originated booking changes signal the sync engine.
// Snapshots adopted from the remote store go through the same loop (they
// are persisted and folded) but are not pushed back.
//
// # Error Propagation
//
// Store operations never fail for unknown ids; they report ok=false.
// Validation errors are returned before anything is submitted.
// Persistence failures are returned to the caller, logged, and recorded
// on the snapshot (LastError, ConsecutiveFailures) while the in-memory
// change stands.
package state
