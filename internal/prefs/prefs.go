// Package prefs persists per-user UI state in ~/.config/swiftrun/prefs.toml:
// the colour theme and the sync session to resume on the next start.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/swiftrun/internal/config"
)

// Prefs is the decoded prefs.toml.
type Prefs struct {
	Theme string `toml:"theme"`
	// SyncKey is the last joined or bootstrapped key.
	SyncKey string `toml:"sync_key,omitempty"`
	// SyncRemote is the blob URL SyncKey belongs to. A key is only
	// resumed against the same remote.
	SyncRemote string `toml:"sync_remote,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/swiftrun/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

// SessionFor returns the remembered key when it was saved for remote.
// Keys saved before the remote was recorded match any remote.
func (p Prefs) SessionFor(remote string) (string, bool) {
	if p.SyncKey == "" {
		return "", false
	}
	if p.SyncRemote != "" && p.SyncRemote != remote {
		return "", false
	}
	return p.SyncKey, true
}

func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.SyncKey = strings.TrimSpace(p.SyncKey)
	p.SyncRemote = strings.TrimSpace(p.SyncRemote)
	if p.SyncKey == "" {
		p.SyncRemote = ""
	}
}

// Load reads the preferences at path (empty means DefaultPath). A missing
// file yields Defaults. A file that exists but cannot be read or parsed
// also yields Defaults, together with the error so callers can log it.
func Load(path string) (Prefs, error) {
	resolved, err := resolve(path)
	if err != nil {
		return Defaults(), err
	}
	data, err := os.ReadFile(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	p.normalize()
	return p, nil
}

// Save writes p to path through a temporary file so a crash never leaves
// a truncated prefs.toml behind.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return err
	}
	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// Update applies fn to the stored preferences and saves them. An
// unreadable file is replaced rather than blocking the update.
func Update(path string, fn func(*Prefs)) error {
	p, _ := Load(path)
	fn(&p)
	return Save(path, p)
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	resolved, err := config.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("resolve prefs path: %w", err)
	}
	return resolved, nil
}
