// Package archive keeps the durable record of delivered bookings.
//
// The ledger is fed by folding every store snapshot: each booking whose
// status is Delivered is upserted by id, so the ledger always holds the
// latest delivered form of a booking. Folding never removes a record.
// Deleting a booking from the run, toggling it back to Pending, or
// adopting an empty snapshot from the remote store all leave the ledger
// untouched. The only destructive operation is Wipe, which requires the
// operator to type WipeConfirmation.
//
// Backups are zstd-compressed JSON documents that can be copied off the
// machine and merged back with Restore.
package archive
