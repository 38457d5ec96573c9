// Package localstore persists the three keyed blobs (bookings, customers,
// archive) in a single SQLite table. Each blob is one JSON array, read once
// at startup and rewritten whole after every mutation of its owner.
package localstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/five82/swiftrun/internal/archive"
	"github.com/five82/swiftrun/internal/booking"
	"github.com/five82/swiftrun/internal/customer"
)

// Key names one stored blob.
type Key string

const (
	KeyBookings  Key = "bookings"
	KeyCustomers Key = "customers"
	KeyArchive   Key = "archive"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	migrationName = regexp.MustCompile(`^([0-9]{4})_.+\.up\.sql$`)
	memoryDSN     = regexp.MustCompile(`^file:.*mode=memory`)
)

// Store wraps the database handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies pending
// migrations. Parent directories are created for file paths.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("localstore: empty database path")
	}
	if !isMemoryDSN(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	// journal_mode is not supported for in-memory databases.
	_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the raw blob for key. ok is false when nothing was stored.
func (s *Store) Get(ctx context.Context, key Key) (data []byte, ok bool, err error) {
	var text string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM blobs WHERE key = ?`, string(key)).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(text), true, nil
}

// Put overwrites the blob for key.
func (s *Store) Put(ctx context.Context, key Key, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs(key, data, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(key), string(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// LoadBookings reads the booking list, sanitised the same way as a
// remote snapshot. A missing blob yields an empty list.
func (s *Store) LoadBookings(ctx context.Context) ([]booking.Booking, error) {
	data, ok, err := s.Get(ctx, KeyBookings)
	if err != nil || !ok {
		return nil, err
	}
	items, err := booking.Decode(data)
	if err != nil {
		return nil, err
	}
	return booking.Sanitize(items), nil
}

// SaveBookings writes the booking list.
func (s *Store) SaveBookings(ctx context.Context, items []booking.Booking) error {
	data, err := booking.Encode(items)
	if err != nil {
		return err
	}
	return s.Put(ctx, KeyBookings, data)
}

// LoadCustomers reads the saved contacts.
func (s *Store) LoadCustomers(ctx context.Context) ([]customer.Customer, error) {
	data, ok, err := s.Get(ctx, KeyCustomers)
	if err != nil || !ok {
		return nil, err
	}
	return customer.Decode(data)
}

// SaveCustomers writes the saved contacts.
func (s *Store) SaveCustomers(ctx context.Context, items []customer.Customer) error {
	data, err := customer.Encode(items)
	if err != nil {
		return err
	}
	return s.Put(ctx, KeyCustomers, data)
}

// LoadArchive reads the archived records.
func (s *Store) LoadArchive(ctx context.Context) ([]booking.Booking, error) {
	data, ok, err := s.Get(ctx, KeyArchive)
	if err != nil || !ok {
		return nil, err
	}
	return booking.Decode(data)
}

// SaveArchive writes every record of the ledger.
func (s *Store) SaveArchive(ctx context.Context, ledger *archive.Ledger) error {
	data, err := booking.Encode(ledger.Records())
	if err != nil {
		return err
	}
	return s.Put(ctx, KeyArchive, data)
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || memoryDSN.MatchString(path)
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := map[int]string{}
	for _, e := range entries {
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		files[v] = "migrations/" + e.Name()
	}
	versions := make([]int, 0, len(files))
	for v := range files {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, v := range versions {
		var applied int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, v).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %04d: %w", v, err)
		}
		if applied > 0 {
			continue
		}
		text, err := migrationsFS.ReadFile(files[v])
		if err != nil {
			return err
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(text)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %04d failed: %w", v, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
