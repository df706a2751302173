package bench

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/wahyuard/zenithbench/dataset"
)

func syntheticTable(t *testing.T, rows int) *dataset.Table {
	t.Helper()

	tbl := dataset.NewGenerator(dataset.SyntheticConfig{
		Rows:           rows,
		NumericColumns: 4,
		Seed:           7,
	}).Table()
	t.Cleanup(tbl.Release)

	return tbl
}

func drain(t *testing.T, src BatchSource) []int {
	t.Helper()

	var sizes []int
	for {
		n, err := src.Next()
		if errors.Is(err, io.EOF) {
			return sizes
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		sizes = append(sizes, n)
	}
}

func TestTableSourceEpoch(t *testing.T) {
	src := NewTableSource(syntheticTable(t, 10), 4)

	sizes := drain(t, src)
	if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
		t.Errorf("sizes = %v, want [4 4 2]", sizes)
	}

	// Exhausted until reset.
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("err = %v, want io.EOF", err)
	}
	if err := src.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if sizes := drain(t, src); len(sizes) != 3 {
		t.Errorf("second pass yielded %d batches, want 3", len(sizes))
	}
}

func TestStreamSourceEpoch(t *testing.T) {
	src := NewStreamSource(syntheticTable(t, 10), 3)

	sizes := drain(t, src)
	if len(sizes) != 4 || sizes[3] != 1 {
		t.Errorf("sizes = %v, want [3 3 3 1]", sizes)
	}

	if err := src.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if sizes := drain(t, src); len(sizes) != 4 {
		t.Errorf("second pass yielded %d batches, want 4", len(sizes))
	}
}

func TestPrefetchSourcePreservesOrderAndEpochs(t *testing.T) {
	src := NewPrefetchSource(NewTableSource(syntheticTable(t, 10), 4), 2)
	defer src.Close()

	sizes := drain(t, src)
	if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
		t.Errorf("sizes = %v, want [4 4 2]", sizes)
	}

	if err := src.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if sizes := drain(t, src); len(sizes) != 3 {
		t.Errorf("second pass yielded %d batches, want 3", len(sizes))
	}
}

func TestPrefetchSourceUnderRunner(t *testing.T) {
	src := NewPrefetchSource(NewTableSource(syntheticTable(t, 64), 16), 4)
	defer src.Close()

	r := NewRunner(RunConfig{
		Duration:  20 * time.Millisecond,
		BatchSize: 16,
		Workers:   4,
	}, testLogger())

	result, err := r.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalBatches == 0 {
		t.Error("no batches measured")
	}
	if result.TotalSamples != result.TotalBatches*16 {
		t.Errorf("samples = %d for %d batches of 16",
			result.TotalSamples, result.TotalBatches)
	}
}
