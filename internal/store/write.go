package store

import (
	"fmt"
	"strings"
)

// IncrementCounters adds the delta to a song's counters. Omitted fields are
// left alone; the whole update is a single atomic statement.
func (s *Store) IncrementCounters(songID int64, delta CounterDelta) error {
	var updates []string
	var args []interface{}
	if delta.Touches != 0 {
		updates = append(updates, "touches = touches + ?")
		args = append(args, delta.Touches)
	}
	if delta.Listens != 0 {
		updates = append(updates, "listens = listens + ?")
		args = append(args, delta.Listens)
	}
	if delta.Skips != 0 {
		updates = append(updates, "skips = skips + ?")
		args = append(args, delta.Skips)
	}
	if len(updates) == 0 {
		return nil
	}

	args = append(args, songID)
	query := fmt.Sprintf("UPDATE songs SET %s WHERE id = ?", strings.Join(updates, ", "))
	if err := s.exec(query, args...); err != nil {
		return fmt.Errorf("incrementing counters for song %d: %w", songID, err)
	}
	return nil
}

// RecordTransition upserts the directed edge fromID -> toID: a new edge
// starts at count 1, an existing one is incremented. Self-transitions are
// rejected.
func (s *Store) RecordTransition(fromID, toID int64) error {
	if fromID == toID {
		return ErrSelfTransition
	}

	err := s.exec(
		`INSERT INTO connections (from_song_id, to_song_id, count) VALUES (?, ?, 1)
		 ON CONFLICT(from_song_id, to_song_id) DO UPDATE SET count = count + 1`,
		fromID, toID)
	if err != nil {
		return fmt.Errorf("recording transition %d -> %d: %w", fromID, toID, err)
	}
	return nil
}

// SetLoved sets or clears a song's loved flag.
func (s *Store) SetLoved(songID int64, loved bool) error {
	value := 0
	if loved {
		value = 1
	}
	if err := s.exec("UPDATE songs SET loved = ? WHERE id = ?", value, songID); err != nil {
		return fmt.Errorf("setting loved for song %d: %w", songID, err)
	}
	return nil
}

// AddSongs inserts songs in one transaction, skipping paths that already
// exist. Returns the number of rows actually added, so re-scans are cheap
// and idempotent.
func (s *Store) AddSongs(songs []Song) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, song := range songs {
		res, err := tx.Exec(
			"INSERT OR IGNORE INTO songs (path, artist, album, title) VALUES (?, ?, ?, ?)",
			song.Path, song.Artist, song.Album, song.Title)
		if err != nil {
			return 0, fmt.Errorf("inserting song %q: %w", song.Path, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("inserting song %q: %w", song.Path, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return added, nil
}

// Reset deletes every song and connection. Counters are only ever
// incremented, so this is the single sanctioned way to start over.
func (s *Store) Reset() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM connections"); err != nil {
		return fmt.Errorf("deleting connections: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM songs"); err != nil {
		return fmt.Errorf("deleting songs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
