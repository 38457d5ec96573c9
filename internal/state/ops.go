package state

import (
	"context"
	"io"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/customer"
)

// AddBooking validates p and appends it to the run. With saveContact the
// recipient is also saved to the customer book unless a contact with the
// same name exists.
func (s *Store) AddBooking(ctx context.Context, p booking.Payload, saveContact bool) (booking.Booking, error) {
	if err := p.Validate(); err != nil {
		return booking.Booking{}, err
	}
	var added booking.Booking
	err := s.submit(ctx, true, func() (change, error) {
		added = s.bookings.Add(p)
		ch := changeBookings
		if saveContact {
			if _, ok := s.customers.Save(customer.Details{
				Name:    p.CustomerName,
				Address: p.DeliveryAddress,
				Contact: p.Contact,
			}); ok {
				ch |= changeCustomers
			}
		}
		return ch, nil
	})
	return added, err
}

// UpdateBooking merges f into booking id. ok is false for unknown ids.
func (s *Store) UpdateBooking(ctx context.Context, id string, f booking.Fields) (ok bool, err error) {
	if err := f.Validate(); err != nil {
		return false, err
	}
	if f.IsEmpty() {
		return false, nil
	}
	err = s.submit(ctx, true, func() (change, error) {
		ok = s.bookings.Update(id, f)
		return changedIf(ok, changeBookings), nil
	})
	return ok, err
}

// MoveBooking drops dragged onto target in the active route.
func (s *Store) MoveBooking(ctx context.Context, draggedID, targetID string) (ok bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		ok = s.bookings.Move(draggedID, targetID)
		return changedIf(ok, changeBookings), nil
	})
	return ok, err
}

// ToggleStatus advances booking id one step around the status cycle.
func (s *Store) ToggleStatus(ctx context.Context, id string) (b booking.Booking, ok bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		b, ok = s.bookings.ToggleStatus(id)
		return changedIf(ok, changeBookings), nil
	})
	return b, ok, err
}

// BulkMarkDelivered delivers the active bookings among ids.
func (s *Store) BulkMarkDelivered(ctx context.Context, ids []string) (n int, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		n = s.bookings.BulkMarkDelivered(ids)
		return changedIf(n > 0, changeBookings), nil
	})
	return n, err
}

// DeleteBooking removes booking id. Archived records are kept.
func (s *Store) DeleteBooking(ctx context.Context, id string) (ok bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		ok = s.bookings.Delete(id)
		return changedIf(ok, changeBookings), nil
	})
	return ok, err
}

// SaveCustomer adds a contact unless the name already exists.
func (s *Store) SaveCustomer(ctx context.Context, d customer.Details) (c customer.Customer, added bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		c, added = s.customers.Save(d)
		return changedIf(added, changeCustomers), nil
	})
	return c, added, err
}

// EditCustomer replaces the details of contact id.
func (s *Store) EditCustomer(ctx context.Context, id string, d customer.Details) (ok bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		ok = s.customers.Edit(id, d)
		return changedIf(ok, changeCustomers), nil
	})
	return ok, err
}

// DeleteCustomer removes contact id.
func (s *Store) DeleteCustomer(ctx context.Context, id string) (ok bool, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		ok = s.customers.Delete(id)
		return changedIf(ok, changeCustomers), nil
	})
	return ok, err
}

// RestoreArchive merges records (from a backup) into the ledger.
func (s *Store) RestoreArchive(ctx context.Context, records []booking.Booking) (n int, err error) {
	err = s.submit(ctx, true, func() (change, error) {
		n = s.ledger.Restore(records)
		return changedIf(n > 0, changeArchive), nil
	})
	return n, err
}

// WipeArchive clears the ledger when confirmation matches
// archive.WipeConfirmation.
func (s *Store) WipeArchive(ctx context.Context, confirmation string) error {
	return s.submit(ctx, true, func() (change, error) {
		if err := s.ledger.Wipe(confirmation); err != nil {
			return 0, err
		}
		s.logger.Warn("archive wiped")
		return changeArchive, nil
	})
}

// WriteArchiveBackup writes a compressed backup of the ledger to w.
func (s *Store) WriteArchiveBackup(ctx context.Context, w io.Writer) error {
	return s.submit(ctx, false, func() (change, error) {
		return 0, s.ledger.WriteBackup(w, s.clock.Now())
	})
}

func changedIf(ok bool, ch change) change {
	if ok {
		return ch
	}
	return 0
}
