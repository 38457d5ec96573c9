package archive

import (
	"errors"
	"fmt"
	"sort"

	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/view"
)

// WipeConfirmation is the phrase an operator must type to clear the
// ledger.
const WipeConfirmation = "WIPE ARCHIVE"

// ErrWipeNotConfirmed is returned by Wipe when the confirmation phrase
// does not match.
var ErrWipeNotConfirmed = errors.New("archive wipe not confirmed")

// Ledger maps booking ids to the latest snapshot seen while delivered.
// Not safe for concurrent use.
type Ledger struct {
	records map[string]booking.Booking
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{records: make(map[string]booking.Booking)}
}

// Fold upserts every delivered booking in snapshot and returns how many
// records were created or changed. It never removes anything.
func (l *Ledger) Fold(snapshot []booking.Booking) int {
	changed := 0
	for _, b := range snapshot {
		if b.Status != booking.StatusDelivered || b.ID == "" {
			continue
		}
		if existing, ok := l.records[b.ID]; ok && equal(existing, b) {
			continue
		}
		l.records[b.ID] = b.Clone()
		changed++
	}
	return changed
}

// Len returns the number of archived bookings.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Get returns the archived record for id.
func (l *Ledger) Get(id string) (booking.Booking, bool) {
	b, ok := l.records[id]
	if !ok {
		return booking.Booking{}, false
	}
	return b.Clone(), true
}

// All returns every record, newest delivery first, ties by id.
func (l *Ledger) All() []booking.Booking {
	out := l.Records()
	view.SortHistory(out)
	return out
}

// Records returns the records sorted by id, the order they are persisted in.
func (l *Ledger) Records() []booking.Booking {
	out := make([]booking.Booking, 0, len(l.records))
	for _, b := range l.records {
		out = append(out, b.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Restore merges previously persisted records into the ledger. Records
// already present are overwritten; nothing is removed.
func (l *Ledger) Restore(records []booking.Booking) int {
	n := 0
	for _, b := range records {
		if b.ID == "" {
			continue
		}
		l.records[b.ID] = b.Clone()
		n++
	}
	return n
}

// Wipe clears the ledger. It refuses unless confirmation equals
// WipeConfirmation.
func (l *Ledger) Wipe(confirmation string) error {
	if confirmation != WipeConfirmation {
		return fmt.Errorf("%w: type %q to confirm", ErrWipeNotConfirmed, WipeConfirmation)
	}
	l.records = make(map[string]booking.Booking)
	return nil
}

func equal(a, b booking.Booking) bool {
	if !sameFloat(a.Latitude, b.Latitude) || !sameFloat(a.Longitude, b.Longitude) {
		return false
	}
	a.Latitude, a.Longitude, b.Latitude, b.Longitude = nil, nil, nil, nil
	return a == b
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
