package bench

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wahyuard/zenithbench/engine"
)

type countingABI struct {
	opens  int
	closes int
}

func (a *countingABI) Open(capacity uint32) engine.Handle {
	a.opens++
	return engine.Handle(1)
}

func (a *countingABI) Close(h engine.Handle) { a.closes++ }

func (a *countingABI) LoadPlugin(h engine.Handle, plugin []byte) engine.Status {
	return engine.StatusOK
}

func (a *countingABI) Stats(h engine.Handle, out *engine.RawStats) engine.Status {
	out.EventsProcessed = 99
	return engine.StatusOK
}

func TestEngineSourceRunAndCloseOnce(t *testing.T) {
	abi := &countingABI{}

	client, err := engine.NewClient(abi, engine.Config{BufferCapacity: 1024})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	src := NewEngineSource(client, syntheticTable(t, 32), 8)

	r := NewRunner(RunConfig{
		Duration:  10 * time.Millisecond,
		BatchSize: 8,
	}, testLogger())

	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Loader != "zenith_engine" {
		t.Errorf("loader = %q, want zenith_engine", result.Loader)
	}

	st, err := src.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.EventsProcessed != 99 {
		t.Errorf("events_processed = %d, want 99", st.EventsProcessed)
	}

	// Close from both the explicit path and a deferred one.
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if abi.closes != 1 {
		t.Errorf("native close called %d times, want 1", abi.closes)
	}

	if _, err := src.Stats(); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("Stats after close: err = %v, want ErrClosed", err)
	}
}
