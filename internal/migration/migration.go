// Package migration holds the SQL schema for the minstrel database.
package migration

// Create contains the DDL for a fresh database.
const Create = `
CREATE TABLE songs (
  id INTEGER PRIMARY KEY,
  path TEXT UNIQUE NOT NULL,
  artist TEXT NOT NULL,
  album TEXT NOT NULL,
  title TEXT NOT NULL,
  touches INTEGER NOT NULL DEFAULT 0,
  listens INTEGER NOT NULL DEFAULT 0,
  skips INTEGER NOT NULL DEFAULT 0,
  loved INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE connections (
  from_song_id INTEGER NOT NULL,
  to_song_id INTEGER NOT NULL,
  count INTEGER NOT NULL DEFAULT 1,
  FOREIGN KEY (from_song_id) REFERENCES songs(id),
  FOREIGN KEY (to_song_id) REFERENCES songs(id),
  PRIMARY KEY (from_song_id, to_song_id)
);

CREATE INDEX idx_songs_artist ON songs(artist);
CREATE INDEX idx_songs_album ON songs(album);
CREATE INDEX idx_songs_title ON songs(title);
CREATE INDEX idx_connections_from ON connections(from_song_id);
CREATE INDEX idx_connections_to ON connections(to_song_id);
`
