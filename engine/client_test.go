package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// spyABI records every boundary crossing so tests can assert that a
// closed client never reaches the native side.
type spyABI struct {
	openCalls  int
	closeCalls int
	loadCalls  int
	statsCalls int

	failOpen   bool
	loadStatus Status
	statsRaw   RawStats
	statsCode  Status
	lastPlugin []byte
}

func (s *spyABI) Open(capacity uint32) Handle {
	s.openCalls++
	if s.failOpen {
		return 0
	}
	return Handle(0xdead)
}

func (s *spyABI) Close(h Handle) {
	s.closeCalls++
}

func (s *spyABI) LoadPlugin(h Handle, plugin []byte) Status {
	s.loadCalls++
	s.lastPlugin = append([]byte(nil), plugin...)
	return s.loadStatus
}

func (s *spyABI) Stats(h Handle, out *RawStats) Status {
	s.statsCalls++
	if s.statsCode != StatusOK {
		return s.statsCode
	}
	*out = s.statsRaw
	return StatusOK
}

func TestOpenCloseIdempotent(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("third Close failed: %v", err)
	}

	if spy.closeCalls != 1 {
		t.Errorf("native close called %d times, want 1", spy.closeCalls)
	}
}

func TestOpenFailure(t *testing.T) {
	spy := &spyABI{failOpen: true}

	_, err := NewClient(spy, Config{BufferCapacity: 64})
	if !errors.Is(err, ErrInitialization) {
		t.Fatalf("err = %v, want ErrInitialization", err)
	}
	if spy.closeCalls != 0 {
		t.Errorf("close called on failed open")
	}
}

func TestClosedClientRejectsEverything(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := c.LoadPluginBytes([]byte{1, 2, 3}); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadPluginBytes after close: err = %v, want ErrClosed", err)
	}
	if err := c.LoadPlugin("nonexistent.wasm"); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadPlugin after close: err = %v, want ErrClosed", err)
	}
	if _, err := c.Stats(); !errors.Is(err, ErrClosed) {
		t.Errorf("Stats after close: err = %v, want ErrClosed", err)
	}

	if spy.loadCalls != 0 {
		t.Errorf("load crossed the boundary %d times after close", spy.loadCalls)
	}
	if spy.statsCalls != 0 {
		t.Errorf("stats crossed the boundary %d times after close", spy.statsCalls)
	}
}

func TestLoadPluginEmptyRejectedBeforeBoundary(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	if err := c.LoadPluginBytes(nil); !errors.Is(err, ErrEmptyPlugin) {
		t.Errorf("err = %v, want ErrEmptyPlugin", err)
	}

	path := filepath.Join(t.TempDir(), "empty.wasm")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadPlugin(path); !errors.Is(err, ErrEmptyPlugin) {
		t.Errorf("err = %v, want ErrEmptyPlugin", err)
	}

	if spy.loadCalls != 0 {
		t.Errorf("empty plugin crossed the boundary %d times", spy.loadCalls)
	}
}

func TestLoadPluginFromFile(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	path := filepath.Join(t.TempDir(), "filter.wasm")
	content := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.LoadPlugin(path); err != nil {
		t.Fatalf("LoadPlugin failed: %v", err)
	}
	if spy.loadCalls != 1 {
		t.Errorf("load calls = %d, want 1", spy.loadCalls)
	}
	if string(spy.lastPlugin) != string(content) {
		t.Errorf("plugin bytes not forwarded verbatim")
	}
}

func TestLoadPluginUnreadableFile(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	err = c.LoadPlugin(filepath.Join(t.TempDir(), "missing.wasm"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
	if spy.loadCalls != 0 {
		t.Errorf("missing file crossed the boundary")
	}
}

func TestLoadPluginNativeRejection(t *testing.T) {
	spy := &spyABI{loadStatus: StatusPluginLoad}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	err = c.LoadPluginBytes([]byte{1})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Code != StatusPluginLoad {
		t.Errorf("code = %d, want %d", se.Code, StatusPluginLoad)
	}
	if se.Op != "load_plugin" {
		t.Errorf("op = %q, want load_plugin", se.Op)
	}
}

func TestStatsFreshClient(t *testing.T) {
	spy := &spyABI{}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.PluginCount != 0 {
		t.Errorf("plugin_count = %d, want 0", st.PluginCount)
	}
	if st.EventsProcessed != 0 {
		t.Errorf("events_processed = %d, want 0", st.EventsProcessed)
	}
}

func TestStatsTranslatesSnapshot(t *testing.T) {
	spy := &spyABI{
		statsRaw: RawStats{BufferLen: 7, PluginCount: 2, EventsProcessed: 12345},
	}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	st, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.BufferLen != 7 || st.PluginCount != 2 || st.EventsProcessed != 12345 {
		t.Errorf("snapshot = %+v, want {7 2 12345}", st)
	}
}

func TestStatsNativeFailure(t *testing.T) {
	spy := &spyABI{statsCode: StatusNullPointer}

	c, err := NewClient(spy, Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer c.Close()

	_, err = c.Stats()

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if se.Op != "get_stats" || se.Code != StatusNullPointer {
		t.Errorf("got %s code %d", se.Op, se.Code)
	}
}

func TestStatusStrings(t *testing.T) {
	cases := []struct {
		code Status
		want string
	}{
		{StatusOK, "success"},
		{StatusNullPointer, "null pointer"},
		{StatusBufferFull, "buffer full"},
		{StatusPluginLoad, "plugin load failure"},
		{StatusConversion, "conversion failure"},
		{Status(-99), "unknown error: -99"},
	}

	for _, tc := range cases {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.code, got, tc.want)
		}
	}
}
