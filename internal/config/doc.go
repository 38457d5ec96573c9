// Package config loads SwiftRun's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/swiftrun/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// # Keys
//
//	remote_url               = "http://127.0.0.1:7490/api/blobs"
//	poll_seconds             = 10
//	request_timeout_seconds  = 8
//	data_dir                 = "~/.local/share/swiftrun"
//	log_level                = "info"   # debug | info | warn | error
//
// String values are trimmed and paths starting with ~ are expanded to the
// user's home directory.
//
// # Derived Paths
//
//   - Database: <data_dir>/swiftrun.db (bookings, customers, archive)
//   - Log file: <data_dir>/swiftrun.log
//
// # Errors
//
// A missing file is not an error. An unreadable file returns "open config"
// or "read config", and malformed TOML or an unknown log level returns
// "parse config".
package config
