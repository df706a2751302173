package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ErrNoDataset reports that no usable dataset file was found.
var ErrNoDataset = errors.New("dataset: no dataset found")

// Open reads the file at path into a Table, dispatching on the file
// extension.
func Open(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return OpenParquet(path)
	case ".arrow", ".feather", ".ipc":
		return OpenIPC(path)
	case ".csv":
		return OpenCSV(path)
	default:
		return nil, fmt.Errorf("dataset: unsupported format %q", filepath.Ext(path))
	}
}

// OpenParquet reads a Parquet file into a Table.
func OpenParquet(path string) (*Table, error) {
	rdr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("dataset: open parquet %s: %w", path, err)
	}
	defer rdr.Close()

	mem := memory.DefaultAllocator

	ar, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: 64 << 10,
	}, mem)
	if err != nil {
		return nil, fmt.Errorf("dataset: parquet reader %s: %w", path, err)
	}

	tbl, err := ar.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("dataset: read parquet %s: %w", path, err)
	}
	defer tbl.Release()

	rec, err := flattenTable(tbl, mem)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	return newTable(rec, path), nil
}

// OpenIPC reads an Arrow IPC (feather v2) file into a Table.
func OpenIPC(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator

	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("dataset: ipc reader %s: %w", path, err)
	}
	defer rdr.Close()

	var recs []arrow.Record
	defer func() { releaseAll(recs) }()

	for {
		rec, err := rdr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: read ipc %s: %w", path, err)
		}
		rec.Retain()
		recs = append(recs, rec)
	}

	rec, err := mergeRecords(rdr.Schema(), recs, mem)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	return newTable(rec, path), nil
}

// OpenCSV reads a CSV file with a header row into a Table, inferring
// column types.
func OpenCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	// Chunk size -1 loads the whole file as a single record.
	rdr := csv.NewInferringReader(f,
		csv.WithHeader(true),
		csv.WithChunk(-1),
	)
	defer rdr.Release()

	if !rdr.Next() {
		if err := rdr.Err(); err != nil {
			return nil, fmt.Errorf("dataset: read csv %s: %w", path, err)
		}
		return nil, fmt.Errorf("dataset: csv %s has no rows", path)
	}

	rec := rdr.Record()
	rec.Retain()

	return newTable(rec, path), nil
}

// Discover finds the first usable dataset file under dir, preferring
// Parquet, then Arrow IPC, then CSV. It returns ErrNoDataset when the
// directory holds none.
func Discover(dir string) (string, error) {
	patterns := []string{"*.parquet", "*.arrow", "*.feather", "*.csv"}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("dataset: scan %s: %w", dir, err)
		}
		if len(matches) > 0 {
			sort.Strings(matches)
			return matches[0], nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrNoDataset, dir)
}

// mergeRecords concatenates the records of one file into a single
// record so the table supports O(1) random-access slicing.
func mergeRecords(schema *arrow.Schema, recs []arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	switch len(recs) {
	case 0:
		return emptyRecord(schema, mem), nil
	case 1:
		rec := recs[0]
		rec.Retain()
		return rec, nil
	}

	tbl := array.NewTableFromRecords(schema, recs)
	defer tbl.Release()

	return flattenTable(tbl, mem)
}

// flattenTable reads an arrow.Table back out as one contiguous record.
func flattenTable(tbl arrow.Table, mem memory.Allocator) (arrow.Record, error) {
	if tbl.NumRows() == 0 {
		return emptyRecord(tbl.Schema(), mem), nil
	}

	tr := array.NewTableReader(tbl, tbl.NumRows())
	defer tr.Release()

	if !tr.Next() {
		return nil, errors.New("flatten table: no record produced")
	}

	rec := tr.Record()
	rec.Retain()

	return rec, nil
}

func emptyRecord(schema *arrow.Schema, mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	return b.NewRecord()
}

func releaseAll(recs []arrow.Record) {
	for _, r := range recs {
		r.Release()
	}
}
