// Package ui is the SwiftRun terminal interface, built on Bubble Tea.
//
// The model never mutates bookings directly. Every edit is a tea.Cmd that
// calls a state.Store operation on a background goroutine and reports back
// with an opResultMsg; the next snapshot fetch picks up the change. A
// ticker refreshes the snapshot and the sync status once per PollTick, so
// edits arriving from the sync engine show up without user input.
//
// Views:
//
//   - Run sheet: active bookings in sequence order, with selection for
//     bulk delivery and K/J to reorder.
//   - History: delivered bookings, newest first.
//   - Map: active stops with coordinates; opening it highlights the
//     selected booking for five seconds.
//   - Logs: the tail of the log file, colored by level.
//
// Modal state (add form, sync prompt, confirmations, read-only overlays)
// takes all key input while open.
package ui
