// Package queue builds ordered song sequences by walking the connection
// graph and scoring candidates. Three strategies are available: Current
// (dual-path mix), Thread (single strongest path), and Stream (long
// exploratory walk).
package queue

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/example/minstrel/internal/scoring"
	"github.com/example/minstrel/internal/store"
)

// Entry is one playable item handed to the playback gateway. Never
// persisted.
type Entry struct {
	Path   string
	Artist string
	Title  string
}

// Strategy selects how a queue is generated.
type Strategy int

const (
	// Current interleaves short paths from the two strongest connections.
	Current Strategy = iota
	// Thread follows the single strongest path from the starting song.
	Thread
	// Stream produces a long walk with randomized exploration.
	Stream
)

func (s Strategy) String() string {
	switch s {
	case Current:
		return "current"
	case Thread:
		return "thread"
	case Stream:
		return "stream"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Catalog is the read surface the generator needs.
type Catalog interface {
	FindByName(query string) (*store.Song, error)
	ConnectionsFrom(songID int64) ([]store.Connection, error)
	RandomSample(n int) ([]store.Song, error)
}

// Config holds the queue shape tunables. DefaultConfig matches the stock
// behavior.
type Config struct {
	MinLength    int // smallest acceptable Current/Thread queue
	MaxLength    int // Current/Thread queues are truncated here
	BranchLength int // per-branch path length for Current
	ThreadLength int // path length for Thread (excluding the start)
	StreamLength int // exact length of a Stream queue
	StreamFanout int // below this many connections, Stream falls back to random
	SampleSize   int // catalog sample size for random picks
	PadRetries   int // consecutive fruitless sample rounds before giving up
}

func DefaultConfig() Config {
	return Config{
		MinLength:    9,
		MaxLength:    27,
		BranchLength: 4,
		ThreadLength: 8,
		StreamLength: 30,
		StreamFanout: 3,
		SampleSize:   10,
		PadRetries:   3,
	}
}

// Generator builds queues from a catalog.
type Generator struct {
	catalog Catalog
	params  scoring.Params
	cfg     Config
	rng     *rand.Rand
}

// New returns a Generator. A nil rng gets a time-seeded one; tests pass a
// fixed-seed source for reproducibility.
func New(catalog Catalog, params scoring.Params, cfg Config, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{catalog: catalog, params: params, cfg: cfg, rng: rng}
}

// Generate resolves the query to a starting song and builds a queue with
// the given strategy.
func (g *Generator) Generate(strategy Strategy, query string) ([]Entry, error) {
	start, err := g.catalog.FindByName(query)
	if err != nil {
		return nil, err
	}

	switch strategy {
	case Current:
		return g.current(start)
	case Thread:
		return g.thread(start)
	case Stream:
		return g.stream(start)
	default:
		return nil, fmt.Errorf("unknown strategy %v", strategy)
	}
}

// current interleaves two short paths rooted at the starting song's two
// strongest connections.
func (g *Generator) current(start *store.Song) ([]Entry, error) {
	connections, err := g.catalog.ConnectionsFrom(start.ID)
	if err != nil {
		return nil, err
	}

	targets := g.topTargets(connections, 2)

	paths := make([][]store.Song, 0, len(targets))
	for _, target := range targets {
		path := []store.Song{target}
		tail, err := g.walk(&target, g.cfg.BranchLength-1)
		if err != nil {
			return nil, err
		}
		paths = append(paths, append(path, tail...))
	}

	queue := []store.Song{*start}
	queue = append(queue, interleave(paths)...)
	if len(queue) > g.cfg.MaxLength {
		queue = queue[:g.cfg.MaxLength]
	}

	queue, err = g.pad(queue)
	if err != nil {
		return nil, err
	}
	return entries(queue), nil
}

// thread is the starting song followed by its single strongest path.
func (g *Generator) thread(start *store.Song) ([]Entry, error) {
	path, err := g.walk(start, g.cfg.ThreadLength)
	if err != nil {
		return nil, err
	}

	queue := append([]store.Song{*start}, path...)
	if len(queue) > g.cfg.MaxLength {
		queue = queue[:g.cfg.MaxLength]
	}

	queue, err = g.pad(queue)
	if err != nil {
		return nil, err
	}
	return entries(queue), nil
}

// stream walks the graph for exactly StreamLength songs, choosing uniformly
// among positively-scored connections and falling back to random picks when
// the graph is too thin.
func (g *Generator) stream(start *store.Song) ([]Entry, error) {
	queue := []store.Song{*start}
	current := *start

	for len(queue) < g.cfg.StreamLength {
		connections, err := g.catalog.ConnectionsFrom(current.ID)
		if err != nil {
			return nil, err
		}

		var positive []store.Song
		for _, c := range connections {
			if g.params.Score(&c.Song) > 0 {
				positive = append(positive, c.Song)
			}
		}

		var next store.Song
		if len(connections) < g.cfg.StreamFanout || len(positive) == 0 {
			pick, err := g.randomPick()
			if err != nil {
				if errors.Is(err, store.ErrEmptyCatalog) {
					break
				}
				return nil, err
			}
			next = *pick
		} else {
			// Edge weight gates positivity only; selection among the
			// survivors is uniform.
			next = positive[g.rng.Intn(len(positive))]
		}

		queue = append(queue, next)
		current = next
	}

	return entries(queue), nil
}

// walk repeatedly follows the connection with the highest weighted score.
// It stops when the song has no connections, the best candidate's own score
// is not positive, or max songs have been collected. Revisiting is allowed;
// the length cap bounds cycles.
func (g *Generator) walk(from *store.Song, max int) ([]store.Song, error) {
	var path []store.Song
	current := *from

	for len(path) < max {
		connections, err := g.catalog.ConnectionsFrom(current.ID)
		if err != nil {
			return nil, err
		}
		if len(connections) == 0 {
			break
		}

		best := g.topTargets(connections, 1)
		if len(best) == 0 {
			break
		}
		candidate := best[0]
		if g.params.Score(&candidate) <= 0 {
			break
		}

		path = append(path, candidate)
		current = candidate
	}

	return path, nil
}

// topTargets returns up to n distinct connection targets ordered by
// descending weighted score, ties broken by smallest song id.
func (g *Generator) topTargets(connections []store.Connection, n int) []store.Song {
	type weighted struct {
		song   store.Song
		weight float64
	}

	ranked := make([]weighted, 0, len(connections))
	for _, c := range connections {
		w := g.params.ConnectionWeight(g.params.Score(&c.Song), c.Count)
		ranked = append(ranked, weighted{song: c.Song, weight: w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].song.ID < ranked[j].song.ID
	})

	targets := make([]store.Song, 0, n)
	seen := make(map[int64]bool)
	for _, r := range ranked {
		if seen[r.song.ID] {
			continue
		}
		seen[r.song.ID] = true
		targets = append(targets, r.song)
		if len(targets) == n {
			break
		}
	}
	return targets
}

// interleave merges paths column by column, skipping a path once it is
// exhausted.
func interleave(paths [][]store.Song) []store.Song {
	maxLen := 0
	for _, p := range paths {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}

	var merged []store.Song
	for i := 0; i < maxLen; i++ {
		for _, p := range paths {
			if i < len(p) {
				merged = append(merged, p[i])
			}
		}
	}
	return merged
}

// pad appends random picks until the queue reaches MinLength. Songs already
// queued are not repeated; after PadRetries sample rounds that add nothing,
// the queue is returned as is so small catalogs still terminate.
func (g *Generator) pad(queue []store.Song) ([]store.Song, error) {
	queued := make(map[int64]bool, len(queue))
	for _, s := range queue {
		queued[s.ID] = true
	}

	misses := 0
	for len(queue) < g.cfg.MinLength && misses < g.cfg.PadRetries {
		sample, err := g.sampleByScore()
		if err != nil {
			if errors.Is(err, store.ErrEmptyCatalog) {
				break
			}
			return nil, err
		}

		found := false
		for _, candidate := range sample {
			if queued[candidate.ID] {
				continue
			}
			queued[candidate.ID] = true
			queue = append(queue, candidate)
			found = true
			break
		}
		if found {
			misses = 0
		} else {
			misses++
		}
	}

	return queue, nil
}

// randomPick draws SampleSize songs and returns the highest-scoring one,
// ties going to the first drawn.
func (g *Generator) randomPick() (*store.Song, error) {
	sample, err := g.sampleByScore()
	if err != nil {
		return nil, err
	}
	return &sample[0], nil
}

// sampleByScore draws a fresh random sample sorted by descending score,
// stable so ties keep their draw order.
func (g *Generator) sampleByScore() ([]store.Song, error) {
	sample, err := g.catalog.RandomSample(g.cfg.SampleSize)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sample, func(i, j int) bool {
		return g.params.Score(&sample[i]) > g.params.Score(&sample[j])
	})
	return sample, nil
}

func entries(songs []store.Song) []Entry {
	result := make([]Entry, 0, len(songs))
	for _, s := range songs {
		result = append(result, Entry{Path: s.Path, Artist: s.Artist, Title: s.Title})
	}
	return result
}
