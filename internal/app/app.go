package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/five82/swiftrun/internal/blob"
	"github.com/five82/swiftrun/internal/config"
	"github.com/five82/swiftrun/internal/localstore"
	"github.com/five82/swiftrun/internal/prefs"
	"github.com/five82/swiftrun/internal/state"
	"github.com/five82/swiftrun/internal/syncer"
)

// Options configure the application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/swiftrun/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// Env is a fully wired application: persisted state, the remote blob
// client, and the sync engine. The TUI and every CLI command share it.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
	Store     *state.Store
	Sync      *syncer.Engine
	Client    *blob.Client

	db      *localstore.Store
	prefsMu sync.Mutex
}

// LoadConfig reads the config file named by opts.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.PollEvery > 0 {
		cfg.PollSeconds = opts.PollEvery
	}
	return cfg, nil
}

// Open builds the Env and loads persisted state. Call Start before
// submitting any mutation and Close when done.
func Open(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("load prefs", "error", err)
	}

	db, err := localstore.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	client, err := blob.NewClient(cfg.RemoteURL, cfg.RequestTimeout())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init blob client: %w", err)
	}

	store := state.New(db, state.WithLogger(logger.With("component", "state")))
	if err := store.Load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load local data: %w", err)
	}

	env := &Env{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: prefsPath,
		Logger:    logger,
		Store:     store,
		Client:    client,
		db:        db,
	}
	env.Sync = syncer.New(client, store.Replica(),
		syncer.WithPollInterval(cfg.PollInterval()),
		syncer.WithLogger(logger.With("component", "sync")),
		syncer.WithKeyListener(env.rememberKey),
	)
	store.SetNotifier(env.Sync)
	return env, nil
}

// rememberKey persists the active sync key, and the remote it lives on,
// so the next start can resume.
func (e *Env) rememberKey(key string) {
	remote := ""
	if key != "" {
		remote = e.Client.BaseURL()
	}
	e.prefsMu.Lock()
	defer e.prefsMu.Unlock()
	e.Prefs.SyncKey, e.Prefs.SyncRemote = key, remote
	err := prefs.Update(e.PrefsPath, func(p *prefs.Prefs) {
		p.SyncKey, p.SyncRemote = key, remote
	})
	if err != nil {
		e.Logger.Warn("save sync key", "error", err)
	}
}

// savedKey returns the remembered key when it belongs to the configured
// remote.
func (e *Env) savedKey() (string, bool) {
	e.prefsMu.Lock()
	p := e.Prefs
	e.prefsMu.Unlock()

	key, ok := p.SessionFor(e.Client.BaseURL())
	if !ok && p.SyncKey != "" {
		e.Logger.Info("saved sync key belongs to another remote, not resuming",
			"saved_remote", p.SyncRemote, "remote", e.Client.BaseURL())
	}
	return key, ok
}

// ResumeSaved reconnects to the remembered sync key, if any.
func (e *Env) ResumeSaved(ctx context.Context) error {
	key, ok := e.savedKey()
	if !ok {
		return nil
	}
	if err := e.Sync.Resume(ctx, key); err != nil {
		return fmt.Errorf("resume sync %s: %w", key, err)
	}
	return nil
}

// Flush pushes the local snapshot when a sync session is connected. CLI
// commands call it before exiting so edits reach the remote.
func (e *Env) Flush(ctx context.Context) error {
	if e.Sync.Status().State != syncer.Connected {
		return nil
	}
	return e.Sync.Push(ctx)
}

// Close releases the local database.
func (e *Env) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	if err != nil {
		return fmt.Errorf("close local store: %w", err)
	}
	return nil
}
