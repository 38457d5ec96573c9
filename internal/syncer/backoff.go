package syncer

import "time"

// maxBackoff caps how far polls are spaced out while the remote keeps
// failing.
const maxBackoff = 2 * time.Minute

// calculateBackoff doubles the poll interval per consecutive failure.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// pollDue reports whether a scheduled poll should run now. Explicit Poll
// calls and pushes are never delayed.
func (e *Engine) pollDue() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counters.failures == 0 {
		return true
	}
	next := e.lastFailure.Add(calculateBackoff(e.counters.failures, e.interval))
	return !e.clock.Now().Before(next)
}
