package app

import (
	"context"
	"sync"
	"time"
)

// Start launches the state loop and the sync loop. The returned func
// cancels both and waits for them to exit.
func (e *Env) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.Store.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		e.Sync.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

const defaultUITick = time.Second

// resumeInBackground reconnects to the saved key without holding up the
// caller; failures are logged and reflected in the sync status.
func (e *Env) resumeInBackground(ctx context.Context) {
	if _, ok := e.savedKey(); !ok {
		return
	}
	go func() {
		if err := e.ResumeSaved(ctx); err != nil {
			e.Logger.Warn("sync resume failed", "error", err)
		}
	}()
}
