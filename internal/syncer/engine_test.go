package syncer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/five82/swiftrun/internal/blob"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/clock"
)

type fakeRemote struct {
	mu        sync.Mutex
	blobs     map[string][]booking.Booking
	creates   int
	fetches   int
	updates   int
	createErr error
	fetchErr  error
	updateErr error

	// When set, Fetch/Update signal started and wait on gate.
	gate    chan struct{}
	started chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: map[string][]booking.Booking{}}
}

func (f *fakeRemote) wait() {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if gate == nil {
		return
	}
	started <- struct{}{}
	<-gate
}

func (f *fakeRemote) Create(_ context.Context, items []booking.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return "", f.createErr
	}
	key := fmt.Sprintf("key%d", f.creates)
	f.blobs[key] = booking.CloneAll(items)
	return key, nil
}

func (f *fakeRemote) Fetch(_ context.Context, key string) ([]booking.Booking, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	items, ok := f.blobs[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return booking.CloneAll(items), nil
}

func (f *fakeRemote) Update(_ context.Context, key string, items []booking.Booking) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.blobs[key]; !ok {
		return blob.ErrNotFound
	}
	f.blobs[key] = booking.CloneAll(items)
	return nil
}

func (f *fakeRemote) set(key string, items []booking.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = booking.CloneAll(items)
}

func (f *fakeRemote) get(key string) []booking.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return booking.CloneAll(f.blobs[key])
}

func (f *fakeRemote) counts() (creates, fetches, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.fetches, f.updates
}

type fakeReplica struct {
	mu      sync.Mutex
	items   []booking.Booking
	adopted int
}

func (r *fakeReplica) Snapshot() []booking.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return booking.CloneAll(r.items)
}

func (r *fakeReplica) Adopt(items []booking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = booking.Sanitize(items)
	r.adopted++
}

func (r *fakeReplica) adoptions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adopted
}

func idsOf(items []booking.Booking) string {
	ids := make([]string, len(items))
	for i, b := range items {
		ids[i] = b.ID
	}
	return fmt.Sprint(ids)
}

func sample(ids ...string) []booking.Booking {
	out := make([]booking.Booking, 0, len(ids))
	for i, id := range ids {
		out = append(out, booking.Booking{ID: id, Sequence: i + 1, Status: booking.StatusPending, Cartons: 1})
	}
	return out
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBootstrap_SeedsRemoteAndConnects(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a", "b")}
	var keys []string
	e := New(remote, replica, WithKeyListener(func(k string) { keys = append(keys, k) }))

	key, err := e.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	st := e.Status()
	if st.State != Connected || st.Key != key || st.LastError != nil {
		t.Fatalf("status = %+v", st)
	}
	if got := remote.get(key); len(got) != 2 {
		t.Fatalf("remote seeded with %d bookings, want 2", len(got))
	}
	if fmt.Sprint(keys) != "["+key+"]" {
		t.Fatalf("key listener calls = %v", keys)
	}
	if st.Label() != "SYNC "+key {
		t.Fatalf("label = %q", st.Label())
	}
}

func TestBootstrap_FailureRetainsNoKey(t *testing.T) {
	remote := newFakeRemote()
	remote.createErr = errors.New("connection refused")
	e := New(remote, &fakeReplica{items: sample("a")})

	if _, err := e.Bootstrap(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	st := e.Status()
	if st.State != Error || st.Key != "" || st.LastError == nil {
		t.Fatalf("status = %+v", st)
	}
	if st.Label() != "SYNC ERROR" {
		t.Fatalf("label = %q", st.Label())
	}

	// Local changes stay local.
	e.NotifyChanged()
	if len(e.push) != 0 {
		t.Fatal("push queued without a session")
	}
	if err := e.Push(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Push err = %v, want ErrNotConnected", err)
	}
}

func TestJoin(t *testing.T) {
	remote := newFakeRemote()
	remote.set("shared", sample("r1", "r2", "r3"))
	replica := &fakeReplica{items: sample("local")}
	e := New(remote, replica)

	if err := e.Join(context.Background(), "  "); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("Join blank err = %v, want ErrEmptyKey", err)
	}

	err := e.Join(context.Background(), "missing")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Join err = %v, want ErrNotFound", err)
	}
	if st := e.Status(); st.State != Disconnected || st.LastError == nil || st.Key != "" {
		t.Fatalf("status after failed join = %+v", st)
	}
	if replica.adoptions() != 0 {
		t.Fatal("failed join adopted data")
	}

	if err := e.Join(context.Background(), "shared"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if st := e.Status(); st.State != Connected || st.Key != "shared" || st.LastError != nil {
		t.Fatalf("status after join = %+v", st)
	}
	if got := replica.Snapshot(); len(got) != 3 || got[0].ID != "r1" {
		t.Fatalf("local after join = %+v", got)
	}
}

func TestPush_FailureKeepsSession(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a")}
	e := New(remote, replica)
	key, _ := e.Bootstrap(context.Background())

	remote.mu.Lock()
	remote.updateErr = errors.New("timeout")
	remote.mu.Unlock()
	if err := e.Push(context.Background()); err == nil {
		t.Fatal("expected push error")
	}
	if err := e.Push(context.Background()); err == nil {
		t.Fatal("expected push error")
	}
	st := e.Status()
	if st.State != Connected || st.Key != key || st.LastError == nil {
		t.Fatalf("status = %+v", st)
	}
	if !st.IsOffline() || st.Label() != "OFFLINE" {
		t.Fatalf("two failures should read offline, got %q", st.Label())
	}

	remote.mu.Lock()
	remote.updateErr = nil
	remote.mu.Unlock()
	replica.items = sample("a", "b")
	if err := e.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if st := e.Status(); st.LastError != nil || st.ConsecutiveFailures != 0 {
		t.Fatalf("status after recovery = %+v", st)
	}
	if got := remote.get(key); len(got) != 2 {
		t.Fatalf("remote has %d bookings, want 2", len(got))
	}
}

func TestPoll_GuardKeepsLocalAndPushesOnce(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a", "b")}
	e := New(remote, replica)
	key, _ := e.Bootstrap(context.Background())

	// Someone wiped the remote.
	remote.set(key, nil)
	_, _, updatesBefore := remote.counts()

	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got := replica.Snapshot(); len(got) != 2 {
		t.Fatalf("local changed to %d bookings", len(got))
	}
	if replica.adoptions() != 0 {
		t.Fatal("empty remote was adopted")
	}
	if _, _, updates := remote.counts(); updates-updatesBefore != 1 {
		t.Fatalf("pushes = %d, want exactly 1", updates-updatesBefore)
	}
	if got := remote.get(key); len(got) != 2 {
		t.Fatalf("remote not restored: %d bookings", len(got))
	}
	if st := e.Status(); st.GuardedOverwrites != 1 {
		t.Fatalf("GuardedOverwrites = %d, want 1", st.GuardedOverwrites)
	}
}

func TestPoll_EmptyOnBothSidesIsQuiet(t *testing.T) {
	remote := newFakeRemote()
	e := New(remote, &fakeReplica{})
	e.Bootstrap(context.Background())
	_, _, before := remote.counts()

	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if _, _, after := remote.counts(); after != before {
		t.Fatal("poll of empty remote with empty local pushed")
	}
	if e.Status().GuardedOverwrites != 0 {
		t.Fatal("guard fired with empty local")
	}
}

func TestPoll_AdoptsOnlyWhenDifferent(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a", "b")}
	e := New(remote, replica)
	key, _ := e.Bootstrap(context.Background())

	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if replica.adoptions() != 0 {
		t.Fatal("identical remote adopted")
	}

	remote.set(key, sample("b", "a"))
	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if replica.adoptions() != 1 {
		t.Fatalf("adoptions = %d, want 1", replica.adoptions())
	}
	if got := replica.Snapshot(); got[0].ID != "b" {
		t.Fatalf("local order = %s first, want b", got[0].ID)
	}
}

func TestPoll_NotConnected(t *testing.T) {
	e := New(newFakeRemote(), &fakeReplica{})
	if err := e.Poll(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Poll err = %v, want ErrNotConnected", err)
	}
}

func TestDisconnect_DiscardsInFlightPoll(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a")}
	var keys []string
	var keysMu sync.Mutex
	e := New(remote, replica, WithKeyListener(func(k string) {
		keysMu.Lock()
		keys = append(keys, k)
		keysMu.Unlock()
	}))
	key, _ := e.Bootstrap(context.Background())
	remote.set(key, sample("x", "y"))

	remote.mu.Lock()
	remote.gate = make(chan struct{})
	remote.started = make(chan struct{}, 1)
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.Poll(context.Background()) }()
	<-remote.started
	if !e.Status().InFlight {
		t.Fatal("InFlight not set during poll")
	}

	e.Disconnect()
	close(remote.gate)

	if err := <-done; !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Poll err = %v, want ErrNotConnected", err)
	}
	if replica.adoptions() != 0 {
		t.Fatal("stale poll result adopted after disconnect")
	}
	st := e.Status()
	if st.State != Disconnected || st.Key != "" || st.InFlight {
		t.Fatalf("status = %+v", st)
	}
	if got := remote.get(key); len(got) != 2 {
		t.Fatal("disconnect touched remote data")
	}
	keysMu.Lock()
	defer keysMu.Unlock()
	if keys[len(keys)-1] != "" {
		t.Fatalf("key listener calls = %v, want trailing empty key", keys)
	}
}

func TestPoll_KeepsLocalEditMadeDuringFetch(t *testing.T) {
	remote := newFakeRemote()
	remote.set("k", sample("a"))
	replica := &fakeReplica{}
	e := New(remote, replica)
	if err := e.Join(context.Background(), "k"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	remote.mu.Lock()
	remote.gate = make(chan struct{})
	remote.started = make(chan struct{}, 1)
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- e.Poll(context.Background()) }()
	<-remote.started

	replica.mu.Lock()
	replica.items = sample("a", "b")
	replica.mu.Unlock()
	e.NotifyChanged()

	remote.mu.Lock()
	gate := remote.gate
	remote.gate = nil
	remote.mu.Unlock()
	close(gate)

	if err := <-done; err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got := idsOf(replica.Snapshot()); got != "[a b]" {
		t.Fatalf("local after poll = %s, want [a b]", got)
	}
	if replica.adoptions() != 1 {
		t.Fatalf("adoptions = %d, want only the join", replica.adoptions())
	}

	if err := e.Push(context.Background()); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if got := idsOf(remote.get("k")); got != "[a b]" {
		t.Fatalf("remote after push = %s, want [a b]", got)
	}
}

func TestPoll_DefersToQueuedPush(t *testing.T) {
	remote := newFakeRemote()
	remote.set("k", sample("a"))
	replica := &fakeReplica{}
	e := New(remote, replica)
	if err := e.Join(context.Background(), "k"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	replica.mu.Lock()
	replica.items = sample("a", "b")
	replica.mu.Unlock()
	e.NotifyChanged()

	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got := idsOf(replica.Snapshot()); got != "[a b]" {
		t.Fatalf("local = %s, want queued edit kept", got)
	}
	if replica.adoptions() != 1 {
		t.Fatalf("adoptions = %d, want only the join", replica.adoptions())
	}
}

func TestRun_PushesQueuedEditBeforeTickPoll(t *testing.T) {
	remote := newFakeRemote()
	remote.set("k", sample("a"))
	replica := &fakeReplica{}
	fc := clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	e := New(remote, replica, WithClock(fc), WithPollInterval(10*time.Second))
	if err := e.Join(context.Background(), "k"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	// Queue the push before Run starts so both cases are ready on the
	// first tick.
	replica.mu.Lock()
	replica.items = sample("a", "b")
	replica.mu.Unlock()
	e.NotifyChanged()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	fc.WaitForTickers(1)
	fc.Advance(10 * time.Second)

	waitFor(t, "push", func() bool { return idsOf(remote.get("k")) == "[a b]" })
	if got := idsOf(replica.Snapshot()); got != "[a b]" {
		t.Fatalf("local = %s, want [a b]", got)
	}
	if replica.adoptions() != 1 {
		t.Fatalf("adoptions = %d, want only the join", replica.adoptions())
	}
}

func TestPoll_UnencodableSnapshotIsAFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.set("k", sample("a"))
	replica := &fakeReplica{}
	e := New(remote, replica)
	if err := e.Join(context.Background(), "k"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	bad := sample("a")
	nan := math.NaN()
	bad[0].Latitude = &nan
	replica.mu.Lock()
	replica.items = bad
	replica.mu.Unlock()

	err := e.Poll(context.Background())
	if err == nil {
		t.Fatal("Poll succeeded on an unencodable snapshot")
	}
	st := e.Status()
	if st.State != Connected || st.ConsecutiveFailures != 1 || st.LastError == nil {
		t.Fatalf("status = %+v", st)
	}
	if replica.adoptions() != 1 {
		t.Fatal("poll adopted after a fingerprint failure")
	}
}

func TestResume(t *testing.T) {
	remote := newFakeRemote()
	remote.set("k", nil)
	replica := &fakeReplica{items: sample("a")}
	e := New(remote, replica)

	// Resuming onto a wiped blob triggers the guard instead of adopting.
	if err := e.Resume(context.Background(), "k"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if st := e.Status(); st.State != Connected || st.GuardedOverwrites != 1 {
		t.Fatalf("status = %+v", st)
	}

	var last string
	e2 := New(remote, replica, WithKeyListener(func(k string) { last = k }))
	last = "unset"
	err := e2.Resume(context.Background(), "expired")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("Resume err = %v, want ErrNotFound", err)
	}
	if st := e2.Status(); st.State != Disconnected || st.Key != "" {
		t.Fatalf("status = %+v", st)
	}
	if last != "" {
		t.Fatalf("listener last key = %q, want empty", last)
	}
}

func TestRun_PollsOnTickAndPushesOnChange(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a")}
	fc := clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	e := New(remote, replica, WithClock(fc), WithPollInterval(10*time.Second))
	key, _ := e.Bootstrap(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)
	fc.WaitForTickers(1)

	remote.set(key, sample("a", "remote"))
	fc.Advance(10 * time.Second)
	waitFor(t, "poll adoption", func() bool { return replica.adoptions() == 1 })

	replica.mu.Lock()
	replica.items = sample("a", "remote", "local")
	replica.mu.Unlock()
	e.NotifyChanged()
	waitFor(t, "push", func() bool { return len(remote.get(key)) == 3 })
}

func TestRun_CoalescesPushesWhileInFlight(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a")}
	fc := clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	e := New(remote, replica, WithClock(fc))
	key, _ := e.Bootstrap(context.Background())

	gate := make(chan struct{})
	remote.mu.Lock()
	remote.gate = gate
	remote.started = make(chan struct{}, 8)
	remote.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	e.NotifyChanged()
	<-remote.started

	replica.mu.Lock()
	replica.items = sample("a", "b", "c")
	replica.mu.Unlock()
	for i := 0; i < 5; i++ {
		e.NotifyChanged()
	}

	remote.mu.Lock()
	remote.gate = nil
	remote.mu.Unlock()
	close(gate)

	waitFor(t, "follow-up push", func() bool {
		_, _, updates := remote.counts()
		return updates == 2
	})
	if len(e.push) != 0 {
		t.Fatal("more than one follow-up push queued")
	}
	if got := remote.get(key); len(got) != 3 {
		t.Fatalf("remote has %d bookings, want newest snapshot of 3", len(got))
	}
}

func TestFingerprint(t *testing.T) {
	sum := func(items []booking.Booking) string {
		t.Helper()
		fp, err := Fingerprint(items)
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		return fp
	}
	a := sample("a", "b")
	unsanitised := []booking.Booking{
		{ID: "a", Status: "pending", Cartons: 1},
		{ID: "b", Cartons: 1},
	}
	if sum(a) != sum(unsanitised) {
		t.Fatal("sanitisation-equivalent snapshots should match")
	}
	if sum(a) == sum(sample("b", "a")) {
		t.Fatal("reordered snapshots should differ")
	}
	if sum(nil) != sum([]booking.Booking{}) {
		t.Fatal("nil and empty should match")
	}

	inf := math.Inf(1)
	bad := sample("a")
	bad[0].Longitude = &inf
	if _, err := Fingerprint(bad); err == nil {
		t.Fatal("Fingerprint accepted a non-finite coordinate")
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{Status{}, "LOCAL"},
		{Status{State: Connected, Key: "k"}, "SYNC k"},
		{Status{State: Connected, Key: "k", LastError: errors.New("x"), ConsecutiveFailures: 1}, "SYNC ERROR"},
		{Status{State: Connected, Key: "k", LastError: errors.New("x"), ConsecutiveFailures: 2}, "OFFLINE"},
		{Status{State: Error}, "SYNC ERROR"},
		{Status{State: Disconnected, LastError: errors.New("x"), ConsecutiveFailures: 3}, "LOCAL"},
	}
	for _, tt := range tests {
		if got := tt.st.Label(); got != tt.want {
			t.Fatalf("Label(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}
