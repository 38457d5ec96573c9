// Package app is the composition root for SwiftRun.
//
// Startup order matters and is the same for the TUI and the CLI:
//
//  1. Load config.toml and prefs.toml.
//  2. Open the SQLite local store and load bookings, customers, and the
//     archive into a state.Store (folding any delivered bookings into the
//     archive on the way).
//  3. Build the blob client and the sync engine, and register the engine
//     as the store's change notifier. The engine reports key changes back
//     through a listener that saves sync_key in prefs.toml.
//  4. Start launches the state loop and the sync loop. Nothing may submit
//     a mutation before this point, including the adoption triggered by
//     resuming a saved sync key.
//
// The TUI resumes the saved key in the background so a slow or offline
// remote never delays the first frame. CLI commands resume synchronously
// when they touch synced data and call Flush before exiting so their edits
// are pushed instead of waiting for the next loop iteration.
package app
