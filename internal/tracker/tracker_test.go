package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/minstrel/internal/store"
)

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "minstrel.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New(%s) error: %v", dbPath, err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func addSong(t *testing.T, s *store.Store, path string) *store.Song {
	t.Helper()
	if _, err := s.AddSongs([]store.Song{{Path: path, Artist: "Artist", Album: "Album", Title: path}}); err != nil {
		t.Fatalf("AddSongs(%s) error: %v", path, err)
	}
	song, err := s.SongByPath(path)
	if err != nil {
		t.Fatalf("SongByPath(%s) error: %v", path, err)
	}
	return song
}

func mustSong(t *testing.T, s *store.Store, path string) *store.Song {
	t.Helper()
	song, err := s.SongByPath(path)
	if err != nil {
		t.Fatalf("SongByPath(%s) error: %v", path, err)
	}
	return song
}

func newTestTracker(s *store.Store) *Tracker {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	return New(nil, s, cfg, nil)
}

func playing(path string, elapsed, duration time.Duration) Status {
	return Status{State: Playing, Path: path, Elapsed: elapsed, Duration: duration}
}

func TestTouchOnNewSong(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.apply(playing("a.mp3", 5*time.Second, 100*time.Second))

	song := mustSong(t, s, "a.mp3")
	if song.Touches != 1 {
		t.Errorf("touches = %d, want 1", song.Touches)
	}

	// Same song observed again: no second touch.
	tr.apply(playing("a.mp3", 10*time.Second, 100*time.Second))
	song = mustSong(t, s, "a.mp3")
	if song.Touches != 1 {
		t.Errorf("touches after re-observation = %d, want 1", song.Touches)
	}
}

func TestTransitionClassifiesAndConnects(t *testing.T) {
	s := createTestStore(t)
	a := addSong(t, s, "a.mp3")
	b := addSong(t, s, "b.mp3")

	tr := newTestTracker(s)
	tr.apply(playing("a.mp3", 5*time.Second, 100*time.Second))
	tr.apply(playing("a.mp3", 90*time.Second, 100*time.Second))
	tr.apply(playing("b.mp3", 1*time.Second, 200*time.Second))

	gotA := mustSong(t, s, "a.mp3")
	if gotA.Listens != 1 || gotA.Skips != 0 {
		t.Errorf("a counters = (listens %d, skips %d), want (1, 0)", gotA.Listens, gotA.Skips)
	}
	gotB := mustSong(t, s, "b.mp3")
	if gotB.Touches != 1 {
		t.Errorf("b touches = %d, want 1", gotB.Touches)
	}

	connections, err := s.ConnectionsFrom(a.ID)
	if err != nil {
		t.Fatalf("ConnectionsFrom error: %v", err)
	}
	if len(connections) != 1 || connections[0].Song.ID != b.ID || connections[0].Count != 1 {
		t.Errorf("connections = %+v, want one a->b edge with count 1", connections)
	}
}

func TestListenedBoundaryIsExclusive(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		listens int
		skips   int
	}{
		{"exactly 80 percent is a skip", 80 * time.Second, 0, 1},
		{"81 percent is a listen", 81 * time.Second, 1, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := createTestStore(t)
			addSong(t, s, "a.mp3")
			addSong(t, s, "b.mp3")

			tr := newTestTracker(s)
			tr.apply(playing("a.mp3", time.Second, 100*time.Second))
			tr.apply(playing("a.mp3", c.elapsed, 100*time.Second))
			tr.apply(playing("b.mp3", time.Second, 100*time.Second))

			song := mustSong(t, s, "a.mp3")
			if song.Listens != c.listens || song.Skips != c.skips {
				t.Errorf("counters = (listens %d, skips %d), want (%d, %d)",
					song.Listens, song.Skips, c.listens, c.skips)
			}
		})
	}
}

func TestStopClassifies(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.apply(playing("a.mp3", 90*time.Second, 100*time.Second))
	tr.apply(Status{State: Stopped})

	song := mustSong(t, s, "a.mp3")
	if song.Listens != 1 {
		t.Errorf("listens = %d, want 1", song.Listens)
	}
	if tr.current != nil {
		t.Error("tracker not idle after stop")
	}
}

func TestPauseKeepsTracking(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.apply(playing("a.mp3", 10*time.Second, 100*time.Second))
	tr.apply(Status{State: Paused, Path: "a.mp3", Elapsed: 85 * time.Second})
	tr.apply(Status{State: Stopped})

	// The paused position is what gets classified.
	song := mustSong(t, s, "a.mp3")
	if song.Listens != 1 {
		t.Errorf("listens = %d, want 1", song.Listens)
	}
}

func TestUnknownDurationFallsBackToDefault(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.cfg.DefaultDuration = 100 * time.Second

	tr.apply(playing("a.mp3", 90*time.Second, 0))
	tr.apply(Status{State: Stopped})

	song := mustSong(t, s, "a.mp3")
	if song.Listens != 1 {
		t.Errorf("listens = %d, want 1", song.Listens)
	}
}

func TestUnknownDurationWithoutDefaultSkipsClassification(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.cfg.DefaultDuration = 0

	tr.apply(playing("a.mp3", 90*time.Second, 0))
	tr.apply(Status{State: Stopped})

	song := mustSong(t, s, "a.mp3")
	if song.Listens != 0 || song.Skips != 0 {
		t.Errorf("counters = (listens %d, skips %d), want (0, 0)", song.Listens, song.Skips)
	}
}

func TestUncataloguedSongStillClassifiesPrevious(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	tr := newTestTracker(s)
	tr.apply(playing("a.mp3", 90*time.Second, 100*time.Second))
	tr.apply(playing("unknown.mp3", time.Second, 100*time.Second))

	song := mustSong(t, s, "a.mp3")
	if song.Listens != 1 {
		t.Errorf("listens = %d, want 1", song.Listens)
	}
	if tr.current != nil {
		t.Error("tracker should be idle while an uncatalogued song plays")
	}
}

// scriptedGateway serves a fixed sequence of statuses, then repeats the
// last one. done is closed once the script has been fully served.
type scriptedGateway struct {
	mu       sync.Mutex
	statuses []Status
	err      error
	idx      int
	done     chan struct{}
	once     sync.Once
}

func (g *scriptedGateway) Status() (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return Status{}, g.err
	}
	status := g.statuses[g.idx]
	if g.idx < len(g.statuses)-1 {
		g.idx++
	} else {
		g.once.Do(func() { close(g.done) })
	}
	return status, nil
}

func TestRunFlushesOnCancel(t *testing.T) {
	s := createTestStore(t)
	addSong(t, s, "a.mp3")

	gateway := &scriptedGateway{
		statuses: []Status{playing("a.mp3", 90*time.Second, 100*time.Second)},
		done:     make(chan struct{}),
	}

	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	tr := New(gateway, s, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- tr.Run(ctx) }()

	<-gateway.done
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	song := mustSong(t, s, "a.mp3")
	if song.Touches != 1 || song.Listens != 1 {
		t.Errorf("counters = (touches %d, listens %d), want (1, 1)", song.Touches, song.Listens)
	}
}

func TestRunSurvivesGatewayOutage(t *testing.T) {
	s := createTestStore(t)

	gateway := &scriptedGateway{err: errors.New("connection refused"), done: make(chan struct{})}

	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.RetryAttempts = 2
	cfg.RetryDelay = time.Millisecond
	tr := New(gateway, s, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- tr.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for !tr.Degraded() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !tr.Degraded() {
		t.Error("tracker not degraded despite unreachable gateway")
	}

	cancel()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
