package library

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Queen", "A Night at the Opera", "Love of My Life.flac"))
	writeFile(t, filepath.Join(root, "loose.mp3"))
	writeFile(t, filepath.Join(root, "Queen", "A Night at the Opera", "cover.jpg"))

	songs, err := Scan(root, -1)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("got %d songs, want 2", len(songs))
	}

	byPath := make(map[string]int)
	for i, s := range songs {
		byPath[s.Path] = i
	}

	nested, ok := byPath["Queen/A Night at the Opera/Love of My Life.flac"]
	if !ok {
		t.Fatalf("nested song missing, got %+v", songs)
	}
	if s := songs[nested]; s.Artist != "Queen" || s.Album != "A Night at the Opera" || s.Title != "Love of My Life" {
		t.Errorf("nested metadata = %q/%q/%q", s.Artist, s.Album, s.Title)
	}

	loose, ok := byPath["loose.mp3"]
	if !ok {
		t.Fatalf("loose song missing, got %+v", songs)
	}
	if s := songs[loose]; s.Artist != "Unknown" || s.Album != "Unknown" || s.Title != "loose" {
		t.Errorf("loose metadata = %q/%q/%q", s.Artist, s.Album, s.Title)
	}
}

func TestScanDepthLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "shallow.mp3"))
	writeFile(t, filepath.Join(root, "a", "b", "c", "deep.mp3"))

	songs, err := Scan(root, 1)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(songs) != 1 || songs[0].Path != "shallow.mp3" {
		t.Errorf("got %+v, want only shallow.mp3", songs)
	}
}

func TestMetadataFromPath(t *testing.T) {
	cases := []struct {
		rel    string
		artist string
		album  string
		title  string
	}{
		{"Artist/Album/Title.mp3", "Artist", "Album", "Title"},
		{"Artist/Title.mp3", "Artist", "Unknown", "Title"},
		{"Title.mp3", "Unknown", "Unknown", "Title"},
		{"Band/2020 - Record/01 - Opener.flac", "Band", "2020 - Record", "01 - Opener"},
	}
	for _, c := range cases {
		artist, album, title := metadataFromPath(c.rel)
		if artist != c.artist || album != c.album || title != c.title {
			t.Errorf("metadataFromPath(%q) = %q/%q/%q, want %q/%q/%q",
				c.rel, artist, album, title, c.artist, c.album, c.title)
		}
	}
}
