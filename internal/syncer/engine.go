package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/five82/swiftrun/internal/blob"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/clock"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 10 * time.Second

// Replica is the local side of replication.
type Replica interface {
	// Snapshot returns the current bookings.
	Snapshot() []booking.Booking
	// Adopt replaces the local bookings with a remote snapshot. It must
	// not signal the engine back.
	Adopt(items []booking.Booking)
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock that drives the poll ticker.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithPollInterval sets the poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithKeyListener registers fn to be called with the session key whenever
// it changes ("" after a disconnect or failed bootstrap).
func WithKeyListener(fn func(key string)) Option {
	return func(e *Engine) {
		e.onKey = fn
	}
}

// Engine replicates the local booking list to one remote blob.
//
// Network operations are serialised by opMu. Run is the only caller in
// the application; the exported operations are also used directly by the
// CLI. Session fields are guarded by mu, which is never held across a
// network call.
type Engine struct {
	remote   blob.Remote
	replica  Replica
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
	onKey    func(string)

	opMu sync.Mutex
	push chan struct{}

	mu          sync.Mutex
	state       State
	session     Session
	lastSync    time.Time
	lastFailure time.Time
	counters    struct {
		guarded, pushes, polls, adoptions, failures int
	}
}

// New builds an engine in the Disconnected state.
func New(remote blob.Remote, replica Replica, opts ...Option) *Engine {
	e := &Engine{
		remote:   remote,
		replica:  replica,
		clock:    clock.Real(),
		interval: DefaultPollInterval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		push:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Status returns a copy of the current session state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		State:               e.state,
		Key:                 e.session.Key,
		LastError:           e.session.LastError,
		InFlight:            e.session.InFlight,
		LastSync:            e.lastSync,
		GuardedOverwrites:   e.counters.guarded,
		Pushes:              e.counters.pushes,
		Polls:               e.counters.polls,
		Adoptions:           e.counters.adoptions,
		ConsecutiveFailures: e.counters.failures,
	}
}

// NotifyChanged requests a push of the newest snapshot. It never blocks;
// requests made while a push is pending collapse into that push.
func (e *Engine) NotifyChanged() {
	if !e.connected() {
		return
	}
	select {
	case e.push <- struct{}{}:
	default:
	}
}

// Bootstrap creates a remote blob seeded with the local snapshot and
// connects to it, replacing any current session. It returns the new key.
func (e *Engine) Bootstrap(ctx context.Context) (string, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	gen := e.begin(Bootstrapping, "")
	key, err := e.remote.Create(ctx, e.replica.Snapshot())

	e.mu.Lock()
	if e.session.generation != gen {
		e.mu.Unlock()
		return "", ErrNotConnected
	}
	e.session.InFlight = false
	if err != nil {
		e.state = Error
		e.session.Key = ""
		e.recordFailureLocked(err)
		e.mu.Unlock()
		e.logger.Error("sync bootstrap failed", "error", err)
		e.notifyKey("")
		return "", fmt.Errorf("bootstrap: %w", err)
	}
	e.state = Connected
	e.session.Key = key
	e.recordSuccessLocked()
	e.counters.pushes++
	e.mu.Unlock()

	e.logger.Info("sync session created", "key", key)
	e.notifyKey(key)
	return key, nil
}

// Join fetches the blob for key, adopts it as the local list, and
// connects. On failure the engine is left Disconnected with the error
// recorded.
func (e *Engine) Join(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	e.opMu.Lock()
	defer e.opMu.Unlock()

	gen := e.begin(Disconnected, "")
	items, err := e.remote.Fetch(ctx, key)

	e.mu.Lock()
	if e.session.generation != gen {
		e.mu.Unlock()
		return ErrNotConnected
	}
	e.session.InFlight = false
	if err != nil {
		e.state = Disconnected
		e.recordFailureLocked(err)
		e.mu.Unlock()
		e.logger.Warn("sync join failed", "key", key, "error", err)
		return fmt.Errorf("join %s: %w", key, err)
	}
	e.state = Connected
	e.session.Key = key
	e.recordSuccessLocked()
	e.counters.adoptions++
	e.mu.Unlock()

	e.replica.Adopt(items)
	e.logger.Info("sync session joined", "key", key, "bookings", len(items))
	e.notifyKey(key)
	return nil
}

// Resume reconnects to a remembered key without adopting blindly: the
// session becomes Connected and an immediate Poll reconciles under the
// guard rule. A key the remote no longer knows is dropped.
func (e *Engine) Resume(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	e.begin(Connected, key)
	e.mu.Lock()
	e.session.InFlight = false
	e.mu.Unlock()

	err := e.Poll(ctx)
	if errors.Is(err, blob.ErrNotFound) {
		e.mu.Lock()
		e.state = Disconnected
		e.session.Key = ""
		e.session.generation++
		e.mu.Unlock()
		e.logger.Warn("remembered sync key expired", "key", key)
		e.notifyKey("")
	}
	return err
}

// Disconnect drops the session. Remote data is left alone and any
// in-flight result is discarded.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	had := e.session.Key != "" || e.state != Disconnected
	e.state = Disconnected
	e.session = Session{generation: e.session.generation + 1}
	e.counters.failures = 0
	e.mu.Unlock()

	select {
	case <-e.push:
	default:
	}
	if had {
		e.logger.Info("sync session disconnected")
		e.notifyKey("")
	}
}

// Push writes the full local snapshot to the remote blob. Failures are
// recorded and the session stays Connected.
func (e *Engine) Push(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.pushLocked(ctx)
}

func (e *Engine) pushLocked(ctx context.Context) error {
	key, gen, ok := e.acquire()
	if !ok {
		return ErrNotConnected
	}
	err := e.remote.Update(ctx, key, e.replica.Snapshot())
	if !e.release(gen, err) {
		return ErrNotConnected
	}
	if err != nil {
		e.logger.Warn("sync push failed", "key", key, "error", err)
		return fmt.Errorf("push: %w", err)
	}
	e.mu.Lock()
	e.counters.pushes++
	e.mu.Unlock()
	e.logger.Debug("sync push complete", "key", key)
	return nil
}

// Poll fetches the remote blob and reconciles it with the local list.
// It is skipped (nil) while another operation is in flight.
//
// Guard rule: an empty remote list never replaces a non-empty local one.
// The local list is pushed back once instead and the event is counted in
// Status.GuardedOverwrites.
//
// A local edit made while the fetch was in flight is never overwritten:
// the fetched copy is dropped and the queued push sends the edit.
func (e *Engine) Poll(ctx context.Context) error {
	if !e.opMu.TryLock() {
		return nil
	}
	defer e.opMu.Unlock()

	if !e.connected() {
		return ErrNotConnected
	}
	before, err := Fingerprint(e.replica.Snapshot())
	if err != nil {
		return e.pollFailed("", err)
	}

	key, gen, ok := e.acquire()
	if !ok {
		return ErrNotConnected
	}
	remote, err := e.remote.Fetch(ctx, key)
	if !e.release(gen, err) {
		return ErrNotConnected
	}
	if err != nil {
		e.logger.Warn("sync poll failed", "key", key, "error", err)
		return fmt.Errorf("poll: %w", err)
	}
	e.mu.Lock()
	e.counters.polls++
	e.mu.Unlock()

	local := e.replica.Snapshot()
	if len(remote) == 0 && len(local) > 0 {
		e.mu.Lock()
		e.counters.guarded++
		e.mu.Unlock()
		e.logger.Warn("remote snapshot empty, keeping local bookings",
			"key", key, "local_bookings", len(local))
		return e.pushLocked(ctx)
	}
	remoteSum, err := Fingerprint(remote)
	if err != nil {
		return e.pollFailed(key, err)
	}
	localSum, err := Fingerprint(local)
	if err != nil {
		return e.pollFailed(key, err)
	}
	if remoteSum == localSum {
		return nil
	}
	if localSum != before || len(e.push) > 0 {
		e.logger.Debug("local bookings changed during poll, keeping them", "key", key)
		return nil
	}

	// Drop the result if the session changed while hashing.
	e.mu.Lock()
	if e.session.generation != gen {
		e.mu.Unlock()
		return ErrNotConnected
	}
	e.counters.adoptions++
	e.mu.Unlock()

	e.replica.Adopt(remote)
	e.logger.Info("adopted remote snapshot", "key", key, "bookings", len(remote))
	return nil
}

func (e *Engine) pollFailed(key string, err error) error {
	e.mu.Lock()
	e.recordFailureLocked(err)
	e.mu.Unlock()
	e.logger.Warn("sync poll failed", "key", key, "error", err)
	return fmt.Errorf("poll: %w", err)
}

// Run serialises pushes and polls until ctx is cancelled. Errors are
// recorded on the session, never returned.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.push:
			if e.connected() {
				_ = e.Push(ctx)
			}
		case <-ticker.C:
			if !e.connected() {
				continue
			}
			// A queued push goes out before the poll reads the remote.
			select {
			case <-e.push:
				_ = e.Push(ctx)
			default:
			}
			if e.pollDue() {
				_ = e.Poll(ctx)
			}
		}
	}
}

func (e *Engine) connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == Connected && e.session.Key != ""
}

// begin starts a new session generation in state st with key.
func (e *Engine) begin(st State, key string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = st
	e.session = Session{
		Key:        key,
		LastError:  e.session.LastError,
		InFlight:   true,
		generation: e.session.generation + 1,
	}
	return e.session.generation
}

// acquire marks an operation in flight on the connected session.
func (e *Engine) acquire() (key string, gen uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Connected || e.session.Key == "" {
		return "", 0, false
	}
	e.session.InFlight = true
	return e.session.Key, e.session.generation, true
}

// release ends an in-flight operation and records its outcome. It returns
// false when the session changed meanwhile; the outcome is then dropped.
func (e *Engine) release(gen uint64, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session.generation != gen {
		return false
	}
	e.session.InFlight = false
	if err != nil {
		e.recordFailureLocked(err)
	} else {
		e.recordSuccessLocked()
	}
	return true
}

func (e *Engine) recordFailureLocked(err error) {
	e.session.LastError = err
	e.counters.failures++
	e.lastFailure = e.clock.Now()
}

func (e *Engine) recordSuccessLocked() {
	e.session.LastError = nil
	e.counters.failures = 0
	e.lastSync = e.clock.Now()
}

func (e *Engine) notifyKey(key string) {
	if e.onKey != nil {
		e.onKey(key)
	}
}
