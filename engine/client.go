package engine

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInitialization reports that the native engine could not be
	// created.
	ErrInitialization = errors.New("engine: initialization failed")

	// ErrClosed reports a call on a client after Close. The native
	// handle is gone; nothing crosses the boundary.
	ErrClosed = errors.New("engine: client is closed")

	// ErrEmptyPlugin reports a zero-length plugin file. Empty buffers
	// are rejected before the native call.
	ErrEmptyPlugin = errors.New("engine: empty plugin")
)

// StatusError is a native rejection carrying the raw status code.
type StatusError struct {
	Op   string
	Code Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("engine: %s: %s (code %d)", e.Op, e.Code, int32(e.Code))
}

// Config holds the parameters fixed at open time.
type Config struct {
	// BufferCapacity selects the engine ring-buffer size. It has no
	// effect after the handle is created.
	BufferCapacity uint32
}

// Stats is a point-in-time snapshot of the engine counters. It holds no
// reference back to the engine.
type Stats struct {
	BufferLen       uint64 `json:"buffer_len"`
	PluginCount     uint64 `json:"plugin_count"`
	EventsProcessed uint64 `json:"events_processed"`
}

// Client owns exactly one engine handle. It is not safe for concurrent
// use; a benchmark run drives it from a single goroutine.
type Client struct {
	abi    ABI
	handle Handle
	closed bool
}

// NewClient opens an engine through the given ABI. The handle is owned
// exclusively by the returned Client until Close.
func NewClient(abi ABI, cfg Config) (*Client, error) {
	h := abi.Open(cfg.BufferCapacity)
	if h == 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInitialization, cfg.BufferCapacity)
	}
	return &Client{abi: abi, handle: h}, nil
}

// LoadPlugin reads the plugin file at path and forwards its bytes to
// the engine. The engine either accepts the plugin or rejects it
// atomically.
func (c *Client) LoadPlugin(path string) error {
	if c.closed {
		return ErrClosed
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("engine: read plugin %s: %w", path, err)
	}
	if err := c.LoadPluginBytes(data); err != nil {
		return fmt.Errorf("load plugin %s: %w", path, err)
	}
	return nil
}

// LoadPluginBytes forwards an in-memory plugin to the engine. The
// caller keeps ownership of the slice; it is not retained past the
// call.
func (c *Client) LoadPluginBytes(plugin []byte) error {
	if c.closed {
		return ErrClosed
	}
	if len(plugin) == 0 {
		return ErrEmptyPlugin
	}
	if st := c.abi.LoadPlugin(c.handle, plugin); st != StatusOK {
		return &StatusError{Op: "load_plugin", Code: st}
	}
	return nil
}

// Stats returns a fresh snapshot of the engine counters.
func (c *Client) Stats() (Stats, error) {
	if c.closed {
		return Stats{}, ErrClosed
	}
	var raw RawStats
	if st := c.abi.Stats(c.handle, &raw); st != StatusOK {
		return Stats{}, &StatusError{Op: "get_stats", Code: st}
	}
	return Stats{
		BufferLen:       raw.BufferLen,
		PluginCount:     raw.PluginCount,
		EventsProcessed: raw.EventsProcessed,
	}, nil
}

// Close releases the native handle. It is idempotent: every call after
// the first is a no-op, so defer and explicit teardown paths may both
// run it.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.abi.Close(c.handle)
	c.handle = 0
	return nil
}
