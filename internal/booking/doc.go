// Package booking owns the delivery booking model and the mutation rules
// for the day's run sheet.
//
// # Model
//
// A Booking moves through a three-state cycle:
//
//	Pending → On Board → Delivered → Pending
//
// Entering Delivered stamps DeliveredAt; cycling back to Pending clears it.
// There is no terminal state so a mistaken delivery can be corrected.
//
// # Route order
//
// Sequence orders the active (non-delivered) bookings. Move renumbers the
// active set densely as 1..N after every call. Add appends after the
// highest sequence and Delete leaves gaps; only Move guarantees density.
// A delivered booking keeps the sequence it had when it was delivered.
//
// # Failure semantics
//
// Store methods never return errors. An unknown id turns the call into a
// no-op and the boolean result reports whether anything changed. Payload
// and Fields validation happens before a call reaches the store and
// yields *ValidationError.
package booking
