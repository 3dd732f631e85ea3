package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const songColumns = "id, path, artist, album, title, touches, listens, skips, loved"

func scanSong(row interface{ Scan(...interface{}) error }) (*Song, error) {
	var s Song
	var loved int
	err := row.Scan(&s.ID, &s.Path, &s.Artist, &s.Album, &s.Title,
		&s.Touches, &s.Listens, &s.Skips, &loved)
	if err != nil {
		return nil, err
	}
	s.Loved = loved != 0
	return &s, nil
}

// FindByName locates a song by a case-insensitive substring match against
// title, artist, and album. When several songs match, the one with the
// smallest id wins. Queries of the form "artist - title" and two-word
// queries are also tried before giving up.
func (s *Store) FindByName(query string) (*Song, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", ErrNotFound)
	}

	pattern := "%" + query + "%"
	song, err := s.querySong(
		"SELECT "+songColumns+" FROM songs WHERE title LIKE ? OR artist LIKE ? OR album LIKE ? ORDER BY id LIMIT 1",
		pattern, pattern, pattern)
	if err != nil || song != nil {
		return song, err
	}

	// "Artist - Title" form.
	if before, after, found := strings.Cut(query, " - "); found {
		p1 := "%" + strings.TrimSpace(before) + "%"
		p2 := "%" + strings.TrimSpace(after) + "%"
		song, err = s.querySong(
			"SELECT "+songColumns+" FROM songs WHERE artist LIKE ? AND title LIKE ? ORDER BY id LIMIT 1",
			p1, p2)
		if err != nil || song != nil {
			return song, err
		}
	}

	// Two words matching any pair of fields.
	if words := strings.Fields(query); len(words) >= 2 {
		p1 := "%" + words[0] + "%"
		p2 := "%" + words[1] + "%"
		song, err = s.querySong(
			`SELECT `+songColumns+` FROM songs WHERE
			   (title LIKE ?1 OR artist LIKE ?1 OR album LIKE ?1) AND
			   (title LIKE ?2 OR artist LIKE ?2 OR album LIKE ?2)
			 ORDER BY id LIMIT 1`,
			p1, p2)
		if err != nil || song != nil {
			return song, err
		}
	}

	return nil, fmt.Errorf("%q: %w", query, ErrNotFound)
}

func (s *Store) querySong(query string, args ...interface{}) (*Song, error) {
	song, err := scanSong(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying song: %w", err)
	}
	return song, nil
}

// SongByPath returns the song stored under the given path.
func (s *Store) SongByPath(path string) (*Song, error) {
	song, err := s.querySong("SELECT "+songColumns+" FROM songs WHERE path = ?", path)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, fmt.Errorf("path %q: %w", path, ErrNotFound)
	}
	return song, nil
}

// ConnectionsFrom returns the outgoing edges of a song, strongest first.
// Callers that need a different order sort for themselves.
func (s *Store) ConnectionsFrom(songID int64) ([]Connection, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.path, s.artist, s.album, s.title, s.touches, s.listens, s.skips, s.loved, c.count
		 FROM connections c
		 JOIN songs s ON c.to_song_id = s.id
		 WHERE c.from_song_id = ?
		 ORDER BY c.count DESC`,
		songID)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var connections []Connection
	for rows.Next() {
		var c Connection
		var loved int
		err := rows.Scan(&c.Song.ID, &c.Song.Path, &c.Song.Artist, &c.Song.Album,
			&c.Song.Title, &c.Song.Touches, &c.Song.Listens, &c.Song.Skips, &loved, &c.Count)
		if err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		c.Song.Loved = loved != 0
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// RandomSample returns up to n songs drawn uniformly at random without
// replacement. Returns ErrEmptyCatalog when there are no songs at all.
func (s *Store) RandomSample(n int) ([]Song, error) {
	rows, err := s.db.Query(
		"SELECT "+songColumns+" FROM songs ORDER BY RANDOM() LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("sampling songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, ErrEmptyCatalog
	}
	return songs, nil
}

// AllSongs returns every song, sorted for display.
func (s *Store) AllSongs() ([]Song, error) {
	rows, err := s.db.Query(
		"SELECT " + songColumns + " FROM songs ORDER BY artist, album, title")
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, *song)
	}
	return songs, rows.Err()
}
