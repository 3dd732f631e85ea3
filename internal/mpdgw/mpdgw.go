// Package mpdgw adapts an MPD server to the playback gateway the rest of
// minstrel consumes: status observation for the tracker and queue control
// for the generators.
package mpdgw

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"

	"github.com/example/minstrel/internal/queue"
	"github.com/example/minstrel/internal/tracker"
)

// Client talks to a single MPD server. Safe for concurrent use; the
// connection is re-dialed after errors.
type Client struct {
	network string
	addr    string

	mu   sync.Mutex
	conn *mpd.Client
}

// Dial connects to MPD at addr ("host:port" for tcp, a socket path for
// unix).
func Dial(network, addr string) (*Client, error) {
	c := &Client{network: network, addr: addr}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := mpd.Dial(c.network, c.addr)
	if err != nil {
		return fmt.Errorf("connecting to mpd at %s: %w", c.addr, err)
	}
	c.conn = conn
	return nil
}

// ensure returns a live connection, re-dialing if the previous one died.
func (c *Client) ensure() (*mpd.Client, error) {
	if c.conn != nil {
		if err := c.conn.Ping(); err == nil {
			return c.conn, nil
		}
		c.conn.Close()
		c.conn = nil
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c.conn, nil
}

// drop discards the connection after a failed command so the next call
// re-dials.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Status reports the player state, the current song's path, and playback
// position. Implements tracker.Gateway.
func (c *Client) Status() (tracker.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.ensure()
	if err != nil {
		return tracker.Status{}, err
	}

	attrs, err := conn.Status()
	if err != nil {
		c.drop()
		return tracker.Status{}, fmt.Errorf("querying mpd status: %w", err)
	}

	status := tracker.Status{
		Elapsed:  seconds(attrs["elapsed"]),
		Duration: seconds(attrs["duration"]),
	}
	switch attrs["state"] {
	case "play":
		status.State = tracker.Playing
	case "pause":
		status.State = tracker.Paused
	default:
		status.State = tracker.Stopped
	}

	if status.State != tracker.Stopped {
		song, err := conn.CurrentSong()
		if err != nil {
			c.drop()
			return tracker.Status{}, fmt.Errorf("querying current song: %w", err)
		}
		status.Path = song["file"]
		if status.Duration == 0 {
			// Older servers only report the whole-second Time field.
			status.Duration = seconds(song["Time"])
		}
	}

	return status, nil
}

// Load replaces MPD's queue with the given entries and starts playback.
func (c *Client) Load(entries []queue.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.ensure()
	if err != nil {
		return err
	}

	cl := conn.BeginCommandList()
	cl.Clear()
	for _, entry := range entries {
		cl.Add(entry.Path)
	}
	if err := cl.End(); err != nil {
		c.drop()
		return fmt.Errorf("loading queue: %w", err)
	}

	if err := conn.Play(-1); err != nil {
		c.drop()
		return fmt.Errorf("starting playback: %w", err)
	}
	return nil
}

// Next advances to the following queue entry.
func (c *Client) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.ensure()
	if err != nil {
		return err
	}
	if err := conn.Next(); err != nil {
		c.drop()
		return fmt.Errorf("advancing playback: %w", err)
	}
	return nil
}

func seconds(value string) time.Duration {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
