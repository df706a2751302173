package bench

import (
	"fmt"
	"io"

	"github.com/wahyuard/zenithbench/dataset"
	"github.com/wahyuard/zenithbench/engine"
)

// BatchSource produces a restartable sequence of batches. Next returns
// the sample count of the batch it produced and io.EOF when the
// current pass over the source is exhausted; Reset restarts iteration
// from the beginning for the next epoch.
//
// Sources backed by external resources additionally implement
// io.Closer; the owner of the source releases it exactly once.
type BatchSource interface {
	Name() string
	Reset() error
	Next() (int, error)
}

// TableSource pulls batches by random-access slicing of an open table.
// This is the "direct" loader mode.
type TableSource struct {
	table     *dataset.Table
	batchSize int
	offset    int
}

// NewTableSource creates a slicing source over tbl.
func NewTableSource(tbl *dataset.Table, batchSize int) *TableSource {
	return &TableSource{table: tbl, batchSize: batchSize}
}

func (s *TableSource) Name() string { return "direct" }

func (s *TableSource) Reset() error {
	s.offset = 0
	return nil
}

func (s *TableSource) Next() (int, error) {
	if s.offset >= s.table.NumRows() {
		return 0, io.EOF
	}

	n := s.batchSize
	if s.offset+n > s.table.NumRows() {
		n = s.table.NumRows() - s.offset
	}

	batch := s.table.Slice(s.offset, n)
	s.offset += n

	return batch.NumSamples(), nil
}

// StreamSource pulls batches through the table's sequential iterator.
// This is the "iterator" loader mode.
type StreamSource struct {
	table     *dataset.Table
	batchSize int
	it        *dataset.Iterator
}

// NewStreamSource creates a sequential-iteration source over tbl.
func NewStreamSource(tbl *dataset.Table, batchSize int) *StreamSource {
	return &StreamSource{
		table:     tbl,
		batchSize: batchSize,
		it:        tbl.Batches(batchSize),
	}
}

func (s *StreamSource) Name() string { return "iterator" }

func (s *StreamSource) Reset() error {
	s.it = s.table.Batches(s.batchSize)
	return nil
}

func (s *StreamSource) Next() (int, error) {
	batch, ok := s.it.Next()
	if !ok {
		return 0, io.EOF
	}
	return batch.NumSamples(), nil
}

// EngineSource pulls batches through a table loaded behind a zenith
// engine client. The source owns the client and closes it exactly
// once. This is the "engine" loader mode.
type EngineSource struct {
	client *engine.Client
	inner  *TableSource
}

// NewEngineSource wraps tbl with the engine client that produced it.
// Ownership of the client transfers to the source.
func NewEngineSource(client *engine.Client, tbl *dataset.Table, batchSize int) *EngineSource {
	return &EngineSource{
		client: client,
		inner:  NewTableSource(tbl, batchSize),
	}
}

func (s *EngineSource) Name() string { return "zenith_engine" }

func (s *EngineSource) Reset() error { return s.inner.Reset() }

func (s *EngineSource) Next() (int, error) { return s.inner.Next() }

// Stats returns a fresh snapshot of the engine counters.
func (s *EngineSource) Stats() (engine.Stats, error) {
	return s.client.Stats()
}

// Close releases the engine client. Safe to call more than once.
func (s *EngineSource) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close engine source: %w", err)
	}
	return nil
}
