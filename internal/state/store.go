package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/swiftrun/internal/archive"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/clock"
	"github.com/five82/swiftrun/internal/customer"
	"github.com/five82/swiftrun/internal/syncer"
)

// ErrClosed is returned when a mutation is submitted after Run exited.
var ErrClosed = errors.New("state store closed")

// Backend loads and persists the three owners.
type Backend interface {
	LoadBookings(ctx context.Context) ([]booking.Booking, error)
	LoadCustomers(ctx context.Context) ([]customer.Customer, error)
	LoadArchive(ctx context.Context) ([]booking.Booking, error)
	SaveBookings(ctx context.Context, items []booking.Booking) error
	SaveCustomers(ctx context.Context, items []customer.Customer) error
	SaveArchive(ctx context.Context, ledger *archive.Ledger) error
}

// Notifier is told about local booking changes that should be pushed.
type Notifier interface {
	NotifyChanged()
}

// Snapshot represents the latest data available to readers.
type Snapshot struct {
	Bookings            []booking.Booking
	Customers           []customer.Customer
	Archive             []booking.Booking
	Version             uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // consecutive persistence failures
}

// PersistenceFailing reports whether local saves failed more than once in
// a row.
func (s Snapshot) PersistenceFailing() bool {
	return s.ConsecutiveFailures >= 2
}

type change uint8

const (
	changeBookings change = 1 << iota
	changeCustomers
	changeArchive
)

type mutation struct {
	apply func() (change, error)
	local bool
	done  chan error
}

// Store owns the booking list, the customer book, and the archive ledger.
// Every mutation runs on the goroutine executing Run; readers take
// defensive copies through Snapshot.
type Store struct {
	bookings  *booking.Store
	customers *customer.Book
	ledger    *archive.Ledger
	backend   Backend
	clock     clock.Clock
	logger    *slog.Logger
	newID     func() string

	mutations chan mutation
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	snapshot Snapshot
	notifier Notifier
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock for booking timestamps and snapshot times.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator overrides booking and customer ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New builds an empty store persisting through backend (nil keeps
// everything in memory).
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		ledger:    archive.New(),
		backend:   backend,
		clock:     clock.Real(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		mutations: make(chan mutation),
		closed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bookings = booking.NewStore(booking.WithClock(s.clock), booking.WithIDGenerator(s.newID))
	s.customers = customer.NewBook(s.newID)
	s.publish(0, nil)
	return s
}

// SetNotifier registers the sync engine. Call before Run.
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Load reads all three owners from the backend. Call before Run. Delivered
// bookings found in the list are folded into the ledger so it never lags
// the list it was saved with.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	items, err := s.backend.LoadBookings(ctx)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	customers, err := s.backend.LoadCustomers(ctx)
	if err != nil {
		return fmt.Errorf("load customers: %w", err)
	}
	records, err := s.backend.LoadArchive(ctx)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	s.bookings.ReplaceAll(items)
	s.customers.Replace(customers)
	s.ledger.Restore(records)
	var persistErr error
	if s.ledger.Fold(s.bookings.Snapshot()) > 0 {
		persistErr = s.persist(ctx, changeArchive)
	}
	s.publish(changeBookings|changeCustomers|changeArchive, persistErr)
	s.logger.Info("local data loaded",
		"bookings", s.bookings.Len(), "customers", s.customers.Len(), "archived", s.ledger.Len())
	return persistErr
}

// Run applies mutations until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	defer s.closeOnce.Do(func() { close(s.closed) })
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-s.mutations:
			m.done <- s.apply(ctx, m)
		}
	}
}

func (s *Store) apply(ctx context.Context, m mutation) error {
	ch, err := m.apply()
	if err != nil || ch == 0 {
		return err
	}
	if ch&changeBookings != 0 && s.ledger.Fold(s.bookings.Snapshot()) > 0 {
		ch |= changeArchive
	}
	persistErr := s.persist(ctx, ch)
	s.publish(ch, persistErr)

	if m.local && ch&changeBookings != 0 {
		s.mu.RLock()
		n := s.notifier
		s.mu.RUnlock()
		if n != nil {
			n.NotifyChanged()
		}
	}
	return persistErr
}

func (s *Store) persist(ctx context.Context, ch change) error {
	if s.backend == nil {
		return nil
	}
	var errs []error
	if ch&changeBookings != 0 {
		errs = append(errs, s.backend.SaveBookings(ctx, s.bookings.Snapshot()))
	}
	if ch&changeCustomers != 0 {
		errs = append(errs, s.backend.SaveCustomers(ctx, s.customers.All()))
	}
	if ch&changeArchive != 0 {
		errs = append(errs, s.backend.SaveArchive(ctx, s.ledger))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("persist local data failed", "error", err)
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// publish refreshes the parts of the snapshot named by ch and records the
// persistence outcome.
func (s *Store) publish(ch change, persistErr error) {
	var (
		bookings  []booking.Booking
		customers []customer.Customer
		records   []booking.Booking
	)
	if ch&changeBookings != 0 {
		bookings = s.bookings.Snapshot()
	}
	if ch&changeCustomers != 0 {
		customers = s.customers.All()
	}
	if ch&changeArchive != 0 {
		records = s.ledger.All()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ch&changeBookings != 0 {
		s.snapshot.Bookings = bookings
	}
	if ch&changeCustomers != 0 {
		s.snapshot.Customers = customers
	}
	if ch&changeArchive != 0 {
		s.snapshot.Archive = records
	}
	s.snapshot.Version++
	s.snapshot.LastUpdated = s.clock.Now()
	if persistErr != nil {
		s.snapshot.LastError = persistErr
		s.snapshot.ConsecutiveFailures++
	} else {
		s.snapshot.LastError = nil
		s.snapshot.ConsecutiveFailures = 0
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Bookings = booking.CloneAll(s.snapshot.Bookings)
	snap.Customers = cloneCustomers(s.snapshot.Customers)
	snap.Archive = booking.CloneAll(s.snapshot.Archive)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Bookings returns a copy of the current booking list.
func (s *Store) Bookings() []booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return booking.CloneAll(s.snapshot.Bookings)
}

// submit hands fn to the Run goroutine and waits for it to finish.
func (s *Store) submit(ctx context.Context, local bool, fn func() (change, error)) error {
	m := mutation{apply: fn, local: local, done: make(chan error, 1)}
	select {
	case s.mutations <- m:
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-m.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func cloneCustomers(items []customer.Customer) []customer.Customer {
	if len(items) == 0 {
		return nil
	}
	dup := make([]customer.Customer, len(items))
	copy(dup, items)
	return dup
}

// Replica adapts the store to the sync engine.
func (s *Store) Replica() syncer.Replica {
	return replica{s}
}

type replica struct{ s *Store }

func (r replica) Snapshot() []booking.Booking {
	return r.s.Bookings()
}

// Adopt replaces the booking list with a remote snapshot. It does not
// signal the engine, so an adopted snapshot is never echoed back.
func (r replica) Adopt(items []booking.Booking) {
	err := r.s.submit(context.Background(), false, func() (change, error) {
		r.s.bookings.ReplaceAll(items)
		return changeBookings, nil
	})
	if err != nil && !errors.Is(err, ErrClosed) {
		r.s.logger.Warn("adopt remote snapshot", "error", err)
	}
}
