// Package store persists the song catalog and the connection graph in
// SQLite. All mutating operations are atomic with respect to concurrent
// callers; transient lock contention is retried internally.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/example/minstrel/internal/migration"
)

var (
	// ErrNotFound is returned when a song lookup matches nothing.
	ErrNotFound = errors.New("no matching song")

	// ErrEmptyCatalog is returned when an operation needs songs and the
	// catalog has none.
	ErrEmptyCatalog = errors.New("no songs available")

	// ErrSelfTransition is returned for a transition from a song to itself.
	ErrSelfTransition = errors.New("transition from song to itself")
)

// Song is one catalogued track with its interaction counters.
type Song struct {
	ID      int64
	Path    string
	Artist  string
	Album   string
	Title   string
	Touches int
	Listens int
	Skips   int
	Loved   bool
}

// Connection is a directed edge from one song to another, with the number of
// times that transition was observed.
type Connection struct {
	Song  Song
	Count int
}

// CounterDelta describes which counters to increment. Zero fields are left
// untouched.
type CounterDelta struct {
	Touches int
	Listens int
	Skips   int
}

type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	exists, err := dbExists(db)
	if err != nil {
		return err
	}

	if !exists {
		if _, err := db.Exec(migration.Create); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

func dbExists(db *sql.DB) (bool, error) {
	row := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'songs'")
	var name string
	err := row.Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking db existence: %w", err)
	}
	return true, nil
}

// exec runs a statement, retrying briefly when SQLite reports the database
// as busy or locked. Write volume is human-paced, so contention is rare and
// short-lived.
func (s *Store) exec(query string, args ...interface{}) error {
	return retry.Do(
		func() error {
			_, err := s.db.Exec(query, args...)
			return err
		},
		retry.Attempts(5),
		retry.Delay(10*time.Millisecond),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
	)
}

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}
