package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings SwiftRun reads from config.toml.
type Config struct {
	RemoteURL             string
	PollSeconds           int
	RequestTimeoutSeconds int
	DataDir               string
	LogLevel              string
}

const (
	defaultConfigPath     = "~/.config/swiftrun/config.toml"
	defaultRemoteURL      = "http://127.0.0.1:7490/api/blobs"
	defaultPollSeconds    = 10
	defaultRequestTimeout = 8
	defaultDataDir        = "~/.local/share/swiftrun"
	defaultLogLevel       = "info"
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the built-in configuration with paths expanded.
func Default() Config {
	return Config{
		RemoteURL:             defaultRemoteURL,
		PollSeconds:           defaultPollSeconds,
		RequestTimeoutSeconds: defaultRequestTimeout,
		DataDir:               mustExpand(defaultDataDir),
		LogLevel:              defaultLogLevel,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		RemoteURL             string `toml:"remote_url"`
		PollSeconds           int    `toml:"poll_seconds"`
		RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
		DataDir               string `toml:"data_dir"`
		LogLevel              string `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.RemoteURL); v != "" {
		cfg.RemoteURL = v
	}
	if raw.PollSeconds > 0 {
		cfg.PollSeconds = raw.PollSeconds
	}
	if raw.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeoutSeconds = raw.RequestTimeoutSeconds
	}
	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		switch v {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = v
		default:
			return Config{}, fmt.Errorf("parse config: unknown log_level %q", raw.LogLevel)
		}
	}

	return cfg, nil
}

// PollInterval is the remote poll cadence.
func (c Config) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return defaultPollSeconds * time.Second
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// RequestTimeout bounds each remote request.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabasePath returns the SQLite file holding local data.
func (c Config) DatabasePath() string {
	return filepath.Join(c.dataDir(), "swiftrun.db")
}

// LogPath returns the application log file.
func (c Config) LogPath() string {
	return filepath.Join(c.dataDir(), "swiftrun.log")
}

func (c Config) dataDir() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return mustExpand(defaultDataDir)
	}
	return c.DataDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath trims path, expands a leading ~ to the home directory, and
// makes it absolute.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
