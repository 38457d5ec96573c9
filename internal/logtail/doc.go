// Package logtail reads the tail of the SwiftRun log file for the log
// view and the `swiftrun logs` command.
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays bounded by the requested window rather than the file size.
// A missing log file is not an error; it simply has no lines yet.
//
// The log is written by slog's text handler, so every record carries a
// level=INFO style field. LevelOf parses that field and Filter drops records
// below a threshold. Continuation lines without a level are always kept.
package logtail
