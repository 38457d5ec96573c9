package syncer

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected is returned by Push and Poll without an active session,
	// and by operations whose session was dropped while they ran.
	ErrNotConnected = errors.New("sync session not connected")
	// ErrEmptyKey is returned by Join when the key is blank.
	ErrEmptyKey = errors.New("sync key is empty")
)

// State is the session lifecycle.
type State int

const (
	Disconnected State = iota
	Bootstrapping
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Bootstrapping:
		return "bootstrapping"
	case Connected:
		return "connected"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the engine's view of one shared key.
type Session struct {
	Key       string
	LastError error
	InFlight  bool

	// generation increments whenever the session is replaced or dropped.
	generation uint64
}

// Status is a copy of the engine state for display.
type Status struct {
	State               State
	Key                 string
	LastError           error
	InFlight            bool
	LastSync            time.Time
	GuardedOverwrites   int
	Pushes              int
	Polls               int
	Adoptions           int
	ConsecutiveFailures int
}

// IsOffline reports whether the remote has failed twice in a row.
func (s Status) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Label is the short sync indicator shown in the header.
func (s Status) Label() string {
	switch {
	case s.State == Connected && s.IsOffline():
		return "OFFLINE"
	case s.State == Error, s.State == Connected && s.LastError != nil:
		return "SYNC ERROR"
	case s.State == Connected:
		return "SYNC " + s.Key
	case s.State == Bootstrapping:
		return "SYNC …"
	default:
		return "LOCAL"
	}
}
