package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Table is an in-memory column-oriented dataset backed by a single
// Arrow record. It supports random-access slicing and restartable
// sequential iteration; both materialize label + feature-vector
// batches through the schema classification resolved at open time.
type Table struct {
	rec    arrow.Record
	schema Schema
	path   string
}

func newTable(rec arrow.Record, path string) *Table {
	return &Table{
		rec:    rec,
		schema: classify(rec.Schema()),
		path:   path,
	}
}

// Path returns the file the table was opened from, or "synthetic".
func (t *Table) Path() string { return t.path }

// NumRows returns the total row count.
func (t *Table) NumRows() int { return int(t.rec.NumRows()) }

// Schema returns the resolved column classification.
func (t *Table) Schema() Schema { return t.schema }

// Release frees the underlying Arrow buffers. The table must not be
// used afterwards.
func (t *Table) Release() {
	if t.rec != nil {
		t.rec.Release()
		t.rec = nil
	}
}

// Batch is one group of samples: a float32 feature vector and an int64
// label per row.
type Batch struct {
	Features [][]float32
	Labels   []int64
}

// NumSamples returns the number of rows in the batch.
func (b Batch) NumSamples() int { return len(b.Labels) }

// Slice materializes rows [offset, offset+length) into a Batch. The
// slice of the underlying record is zero-copy; only the feature and
// label extraction walks the rows.
func (t *Table) Slice(offset, length int) Batch {
	if offset < 0 || length <= 0 || offset >= t.NumRows() {
		return Batch{}
	}
	if offset+length > t.NumRows() {
		length = t.NumRows() - offset
	}

	rec := t.rec.NewSlice(int64(offset), int64(offset+length))
	defer rec.Release()

	return materialize(rec, t.schema)
}

func materialize(rec arrow.Record, schema Schema) Batch {
	rows := int(rec.NumRows())

	b := Batch{
		Features: make([][]float32, rows),
		Labels:   make([]int64, rows),
	}

	cols := make([]arrow.Array, len(schema.numeric))
	for i, idx := range schema.numeric {
		cols[i] = rec.Column(idx)
	}

	var labelCol arrow.Array
	if schema.label >= 0 {
		labelCol = rec.Column(schema.label)
	}

	for row := 0; row < rows; row++ {
		vec := make([]float32, len(cols))
		for i, col := range cols {
			vec[i] = numericValue(col, row)
		}
		b.Features[row] = vec

		if labelCol != nil {
			b.Labels[row] = labelValue(labelCol, row)
		}
	}

	return b
}

func numericValue(col arrow.Array, row int) float32 {
	if col.IsNull(row) {
		return 0
	}
	switch c := col.(type) {
	case *array.Float32:
		return c.Value(row)
	case *array.Float64:
		return float32(c.Value(row))
	case *array.Int8:
		return float32(c.Value(row))
	case *array.Int16:
		return float32(c.Value(row))
	case *array.Int32:
		return float32(c.Value(row))
	case *array.Int64:
		return float32(c.Value(row))
	case *array.Uint8:
		return float32(c.Value(row))
	case *array.Uint16:
		return float32(c.Value(row))
	case *array.Uint32:
		return float32(c.Value(row))
	case *array.Uint64:
		return float32(c.Value(row))
	default:
		return 0
	}
}

func labelValue(col arrow.Array, row int) int64 {
	if col.IsNull(row) {
		return 0
	}
	switch c := col.(type) {
	case *array.Int64:
		return c.Value(row)
	case *array.Int32:
		return int64(c.Value(row))
	case *array.Int16:
		return int64(c.Value(row))
	case *array.Int8:
		return int64(c.Value(row))
	case *array.Uint64:
		return int64(c.Value(row))
	case *array.Uint32:
		return int64(c.Value(row))
	case *array.Float64:
		return int64(c.Value(row))
	case *array.Float32:
		return int64(c.Value(row))
	default:
		return 0
	}
}

// Iterator walks the table sequentially in fixed-size batches. A fresh
// Iterator from Batches restarts at the first row.
type Iterator struct {
	t         *Table
	batchSize int
	offset    int
}

// Batches returns a restartable sequential iterator over the table.
func (t *Table) Batches(batchSize int) *Iterator {
	return &Iterator{t: t, batchSize: batchSize}
}

// Next materializes the next batch. It returns false when the table is
// exhausted.
func (it *Iterator) Next() (Batch, bool) {
	if it.offset >= it.t.NumRows() {
		return Batch{}, false
	}

	n := it.batchSize
	if it.offset+n > it.t.NumRows() {
		n = it.t.NumRows() - it.offset
	}

	b := it.t.Slice(it.offset, n)
	it.offset += n

	return b, true
}
