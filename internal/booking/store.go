package booking

import (
	"sort"

	"github.com/google/uuid"

	"github.com/five82/swiftrun/internal/clock"
)

// Store is the authoritative booking list. It is not safe for concurrent
// use; state.Store serialises every call onto one goroutine.
//
// The slice is the arena: list order is insertion order and is what gets
// persisted and synced. Route order lives only in Sequence, so reordering
// rewrites numbers instead of moving elements.
type Store struct {
	clock    clock.Clock
	newID    func() string
	bookings []Booking
	index    map[string]int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for bookedAt/deliveredAt.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator overrides the id source (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock: clock.Real(),
		newID: uuid.NewString,
		index: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of bookings, delivered included.
func (s *Store) Len() int {
	return len(s.bookings)
}

// Get returns a copy of the booking with id.
func (s *Store) Get(id string) (Booking, bool) {
	i, ok := s.index[id]
	if !ok {
		return Booking{}, false
	}
	return s.bookings[i].Clone(), true
}

// Snapshot returns a deep copy of the list in stored order.
func (s *Store) Snapshot() []Booking {
	return CloneAll(s.bookings)
}

// Active returns copies of the non-delivered bookings in route order.
func (s *Store) Active() []Booking {
	order := s.activeOrder()
	out := make([]Booking, 0, len(order))
	for _, i := range order {
		out = append(out, s.bookings[i].Clone())
	}
	return out
}

// Add appends a booking built from p. The caller validates p first.
func (s *Store) Add(p Payload) Booking {
	seq := p.Sequence
	if seq <= 0 {
		seq = s.maxSequence() + 1
	}
	b := Booking{
		ID:                   s.newID(),
		Sequence:             seq,
		Status:               StatusPending,
		PickupLocation:       p.PickupLocation,
		CustomerName:         p.CustomerName,
		DeliveryAddress:      p.DeliveryAddress,
		Contact:              p.Contact,
		Cartons:              p.Cartons,
		SalesOrder:           p.SalesOrder,
		PurchaseOrder:        p.PurchaseOrder,
		DeliveryInstructions: p.DeliveryInstructions,
		BookedAt:             FormatTimestamp(s.clock.Now()),
		Latitude:             p.Latitude,
		Longitude:            p.Longitude,
	}
	b = b.Clone()
	s.index[b.ID] = len(s.bookings)
	s.bookings = append(s.bookings, b)
	return b.Clone()
}

// Update shallow-merges f into the booking with id. Unknown ids are a no-op.
func (s *Store) Update(id string, f Fields) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	f.apply(&s.bookings[i])
	return true
}

// Move takes the dragged booking out of the active route and reinserts it
// at the target's position, then renumbers every active booking 1..N.
// Delivered bookings keep their sequence. Returns false (and changes
// nothing) when either id is not active or the ids are equal.
func (s *Store) Move(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}
	order := s.activeOrder()
	from, to := -1, -1
	for pos, i := range order {
		switch s.bookings[i].ID {
		case draggedID:
			from = pos
		case targetID:
			to = pos
		}
	}
	if from < 0 || to < 0 {
		return false
	}

	dragged := order[from]
	order = append(order[:from], order[from+1:]...)
	order = append(order[:to], append([]int{dragged}, order[to:]...)...)

	for pos, i := range order {
		s.bookings[i].Sequence = pos + 1
	}
	return true
}

// ToggleStatus advances the booking one step around the status cycle.
func (s *Store) ToggleStatus(id string) (Booking, bool) {
	i, ok := s.index[id]
	if !ok {
		return Booking{}, false
	}
	b := &s.bookings[i]
	next := b.Status.Next()
	switch next {
	case StatusDelivered:
		b.DeliveredAt = FormatTimestamp(s.clock.Now())
	case StatusPending:
		b.DeliveredAt = ""
	}
	b.Status = next
	return b.Clone(), true
}

// BulkMarkDelivered delivers every active booking named in ids with one
// shared timestamp and returns how many changed. Unknown and already
// delivered ids are ignored.
func (s *Store) BulkMarkDelivered(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	now := FormatTimestamp(s.clock.Now())
	changed := 0
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok || !s.bookings[i].IsActive() {
			continue
		}
		s.bookings[i].Status = StatusDelivered
		s.bookings[i].DeliveredAt = now
		changed++
	}
	return changed
}

// Delete removes the booking. Remaining sequences are not renumbered.
func (s *Store) Delete(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
	s.reindex()
	return true
}

// ReplaceAll swaps the whole list for snapshot. Bookings without a
// sequence get their 1-based list position; unknown statuses read as
// Pending.
func (s *Store) ReplaceAll(snapshot []Booking) {
	s.bookings = Sanitize(snapshot)
	s.reindex()
}

// Sanitize returns a deep copy of items with missing sequences and
// statuses filled in. Used for remote snapshots and local storage alike.
func Sanitize(items []Booking) []Booking {
	out := CloneAll(items)
	for i := range out {
		if out[i].Sequence <= 0 {
			out[i].Sequence = i + 1
		}
		if st, ok := ParseStatus(string(out[i].Status)); ok {
			out[i].Status = st
		} else {
			out[i].Status = StatusPending
		}
	}
	return out
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.bookings))
	for i, b := range s.bookings {
		s.index[b.ID] = i
	}
}

func (s *Store) maxSequence() int {
	highest := 0
	for _, b := range s.bookings {
		if b.Sequence > highest {
			highest = b.Sequence
		}
	}
	return highest
}

// activeOrder returns arena indices of active bookings sorted by
// sequence; equal sequences keep list order.
func (s *Store) activeOrder() []int {
	order := make([]int, 0, len(s.bookings))
	for i, b := range s.bookings {
		if b.IsActive() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.bookings[order[a]].Sequence < s.bookings[order[b]].Sequence
	})
	return order
}
