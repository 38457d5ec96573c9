package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/swiftrun/internal/clock"
)

func TestCalculateBackoff(t *testing.T) {
	base := 10 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 10 * time.Second},
		{"negative failures", -1, 10 * time.Second},
		{"one failure", 1, 20 * time.Second},
		{"two failures", 2, 40 * time.Second},
		{"three failures", 3, 80 * time.Second},
		{"four failures capped", 4, 2 * time.Minute},
		{"many failures capped", 40, 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, base)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
			}
		})
	}
}

func TestPollDue_BacksOffAfterFailures(t *testing.T) {
	remote := newFakeRemote()
	replica := &fakeReplica{items: sample("a")}
	fc := clock.Fake(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	e := New(remote, replica, WithClock(fc), WithPollInterval(10*time.Second))
	if _, err := e.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if !e.pollDue() {
		t.Fatal("healthy session should poll on every tick")
	}

	remote.mu.Lock()
	remote.fetchErr = errors.New("connection refused")
	remote.mu.Unlock()
	if err := e.Poll(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}

	fc.Set(fc.Now().Add(10 * time.Second))
	if e.pollDue() {
		t.Fatal("poll should wait out the backoff")
	}
	fc.Set(fc.Now().Add(10 * time.Second))
	if !e.pollDue() {
		t.Fatal("poll should be due after 2x interval")
	}

	remote.mu.Lock()
	remote.fetchErr = nil
	remote.mu.Unlock()
	if err := e.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !e.pollDue() {
		t.Fatal("success should reset the backoff")
	}
}
