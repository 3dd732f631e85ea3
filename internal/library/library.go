// Package library scans a music directory and derives catalog rows from
// file paths. Metadata comes from the artist/album/title layout of the
// trailing path components; paths are stored relative to the music root so
// they can be handed to MPD as-is.
package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/example/minstrel/internal/store"
)

var extensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".wav":  true,
	".opus": true,
}

// Scan walks root for music files up to maxDepth directory levels below it
// (0 means files directly in root; negative means unlimited) and returns
// one Song per file.
func Scan(root string, maxDepth int) ([]store.Song, error) {
	root = filepath.Clean(root)

	var songs []store.Song
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		depth := strings.Count(rel, string(filepath.Separator))

		if d.IsDir() {
			if maxDepth >= 0 && rel != "." && depth >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		artist, album, title := metadataFromPath(rel)
		songs = append(songs, store.Song{
			Path:   filepath.ToSlash(rel),
			Artist: artist,
			Album:  album,
			Title:  title,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return songs, nil
}

// metadataFromPath reads artist and album from the two directories closest
// to the file, falling back to Unknown for shallow layouts. The title is
// the file name without its extension.
func metadataFromPath(rel string) (artist, album, title string) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	name := parts[len(parts)-1]
	title = strings.TrimSuffix(name, filepath.Ext(name))

	artist, album = "Unknown", "Unknown"
	if len(parts) >= 3 {
		artist = parts[len(parts)-3]
		album = parts[len(parts)-2]
	} else if len(parts) == 2 {
		artist = parts[0]
	}
	return artist, album, title
}
