// Package cli implements the swiftrun command tree. Every command except
// ui and logs opens the local store, resumes the remembered sync session,
// applies its change, and pushes before exiting, so a one-shot edit from
// the shell reaches other devices the same way a TUI edit does.
package cli
