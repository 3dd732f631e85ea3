// Package tracker observes playback and feeds the catalog's counters and
// connection graph. It runs as a single long-lived loop: watch the playback
// gateway, classify each song exit as listened or skipped, and record the
// transition to whatever started next.
package tracker

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/time/rate"

	"github.com/example/minstrel/internal/store"
)

// PlayState is the gateway's coarse player state.
type PlayState int

const (
	Stopped PlayState = iota
	Playing
	Paused
)

// Status is one observation of the playback gateway.
type Status struct {
	State    PlayState
	Path     string        // currently loaded song, empty when none
	Elapsed  time.Duration // position within the current song
	Duration time.Duration // zero when the gateway does not know
}

// Gateway reports playback status. Implementations may block while waiting
// for the transport.
type Gateway interface {
	Status() (Status, error)
}

// Catalog is the write surface the tracker needs.
type Catalog interface {
	SongByPath(path string) (*store.Song, error)
	IncrementCounters(songID int64, delta store.CounterDelta) error
	RecordTransition(fromID, toID int64) error
}

// Config holds the tracker tunables.
type Config struct {
	// PollInterval paces gateway observations.
	PollInterval time.Duration

	// ListenedThreshold is the elapsed/duration ratio a song must exceed
	// (strictly) to count as listened rather than skipped.
	ListenedThreshold float64

	// DefaultDuration stands in when the gateway does not report a song's
	// length. Zero means no fallback: the classification is logged and
	// dropped.
	DefaultDuration time.Duration

	// RetryAttempts and RetryDelay shape the backoff used when the gateway
	// is unreachable.
	RetryAttempts uint
	RetryDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:      time.Second,
		ListenedThreshold: 0.8,
		DefaultDuration:   3 * time.Minute,
		RetryAttempts:     5,
		RetryDelay:        time.Second,
	}
}

// tracked is the state of the song currently under observation.
type tracked struct {
	songID    int64
	path      string
	startedAt time.Time
	elapsed   time.Duration // last observed position
	duration  time.Duration // zero when unknown
}

// Tracker is the behavior-tracking state machine. Idle when current is nil,
// Tracking otherwise. The state is owned exclusively by the Run loop; other
// components only see its effects through the catalog.
type Tracker struct {
	gateway  Gateway
	catalog  Catalog
	cfg      Config
	logger   *log.Logger
	current  *tracked
	degraded atomic.Bool
}

// New returns a Tracker. A nil logger discards diagnostics.
func New(gateway Gateway, catalog Catalog, cfg Config, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(discard{}, "", 0)
	}
	return &Tracker{gateway: gateway, catalog: catalog, cfg: cfg, logger: logger}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Degraded reports whether the last observation round exhausted its retries
// against an unreachable gateway.
func (t *Tracker) Degraded() bool {
	return t.degraded.Load()
}

// Run observes playback until ctx is canceled. On cancellation the song
// being tracked, if any, receives its final classification before Run
// returns. Gateway failures are retried with backoff and never abort the
// loop.
func (t *Tracker) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(t.cfg.PollInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			t.finish()
			return nil
		}

		status, err := t.observe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.finish()
				return nil
			}
			if !t.degraded.Load() {
				t.logger.Printf("playback gateway unreachable, tracking degraded: %v", err)
			}
			t.degraded.Store(true)
			// Close out the tracked song with what was last observed and
			// wait in Idle for the gateway to come back.
			t.finish()
			continue
		}
		if t.degraded.Load() {
			t.logger.Printf("playback gateway reachable again")
			t.degraded.Store(false)
		}

		if err := t.apply(status); err != nil {
			t.logger.Printf("applying observation: %v", err)
		}
	}
}

// observe fetches the gateway status, backing off between attempts when the
// gateway is unreachable.
func (t *Tracker) observe(ctx context.Context) (Status, error) {
	var status Status
	err := retry.Do(
		func() error {
			var err error
			status, err = t.gateway.Status()
			return err
		},
		retry.Context(ctx),
		retry.Attempts(t.cfg.RetryAttempts),
		retry.Delay(t.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	return status, err
}

// apply advances the state machine by one observation.
func (t *Tracker) apply(status Status) error {
	switch status.State {
	case Playing:
		if status.Path == "" {
			return nil
		}
		if t.current != nil && t.current.path == status.Path {
			t.current.elapsed = status.Elapsed
			if status.Duration > 0 {
				t.current.duration = status.Duration
			}
			return nil
		}
		return t.transitionTo(status)

	case Paused:
		// The user may resume; keep tracking but remember the position.
		if t.current != nil && t.current.path == status.Path {
			t.current.elapsed = status.Elapsed
		}
		return nil

	case Stopped:
		if t.current != nil {
			t.classify(t.current)
			t.current = nil
		}
		return nil
	}
	return nil
}

// transitionTo closes out the current song, records the edge to the new
// one, and starts tracking it.
func (t *Tracker) transitionTo(status Status) error {
	next, err := t.catalog.SongByPath(status.Path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Song outside the catalog; whatever we were tracking still
			// gets classified.
			if t.current != nil {
				t.classify(t.current)
				t.current = nil
			}
			t.logger.Printf("playing song not in catalog: %s", status.Path)
			return nil
		}
		return err
	}

	prev := t.current
	if prev != nil {
		t.classify(prev)
		if err := t.catalog.RecordTransition(prev.songID, next.ID); err != nil &&
			!errors.Is(err, store.ErrSelfTransition) {
			t.logger.Printf("recording transition: %v", err)
		}
	}

	t.current = &tracked{
		songID:    next.ID,
		path:      status.Path,
		startedAt: time.Now(),
		elapsed:   status.Elapsed,
		duration:  status.Duration,
	}
	if err := t.catalog.IncrementCounters(next.ID, store.CounterDelta{Touches: 1}); err != nil {
		t.logger.Printf("recording touch: %v", err)
	}
	t.logger.Printf("tracking %s - %s", next.Artist, next.Title)
	return nil
}

// classify applies the listened/skipped decision for a song that stopped
// playing. The boundary is exclusive: exactly the threshold counts as a
// skip.
func (t *Tracker) classify(s *tracked) {
	duration := s.duration
	if duration == 0 {
		duration = t.cfg.DefaultDuration
	}
	if duration == 0 {
		t.logger.Printf("duration unknown for %s and no default configured, skipping classification", s.path)
		return
	}

	ratio := s.elapsed.Seconds() / duration.Seconds()
	delta := store.CounterDelta{Skips: 1}
	verdict := "skipped"
	if ratio > t.cfg.ListenedThreshold {
		delta = store.CounterDelta{Listens: 1}
		verdict = "listened"
	}

	if err := t.catalog.IncrementCounters(s.songID, delta); err != nil {
		t.logger.Printf("recording %s for %s: %v", verdict, s.path, err)
		return
	}
	t.logger.Printf("%s %s after %s (%.0f%%)",
		verdict, s.path, time.Since(s.startedAt).Round(time.Second), ratio*100)
}

// finish flushes the pending classification on shutdown.
func (t *Tracker) finish() {
	if t.current != nil {
		t.classify(t.current)
		t.current = nil
	}
}
