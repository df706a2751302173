// Package dataset provides a column-oriented table abstraction over
// Parquet, Arrow IPC and CSV files, plus a deterministic synthetic
// generator. Columns are classified exactly once when a table is
// opened; batch construction consults that classification instead of
// inspecting values per row.
package dataset

import "github.com/apache/arrow-go/v18/arrow"

// ColumnClass says how a column participates in batch construction.
type ColumnClass int

const (
	// ClassNumeric columns become entries of the per-row feature
	// vector.
	ClassNumeric ColumnClass = iota

	// ClassLabel is the per-row label column.
	ClassLabel

	// ClassID is the row identifier, excluded from features.
	ClassID

	// ClassBinary columns (blobs, strings) are skipped entirely.
	ClassBinary

	// ClassExcluded covers types batch construction cannot use.
	ClassExcluded
)

func (c ColumnClass) String() string {
	switch c {
	case ClassNumeric:
		return "numeric"
	case ClassLabel:
		return "label"
	case ClassID:
		return "id"
	case ClassBinary:
		return "binary"
	default:
		return "excluded"
	}
}

// Column is one classified column of an open table.
type Column struct {
	Name  string
	Index int
	Class ColumnClass
}

// Schema is the pre-resolved classification of a table's columns.
type Schema struct {
	Columns []Column

	numeric []int // column indices feeding the feature vector, in order
	label   int   // label column index, -1 if absent
}

// NumFeatures returns the width of the feature vector built per row.
func (s Schema) NumFeatures() int { return len(s.numeric) }

// HasLabel reports whether the table carries a label column.
func (s Schema) HasLabel() bool { return s.label >= 0 }

// classify resolves the role of every column from the Arrow schema.
// The label and id roles follow the benchmark dataset convention;
// binary-like columns are identified by type, not by probing values.
func classify(as *arrow.Schema) Schema {
	s := Schema{label: -1}

	for i, f := range as.Fields() {
		col := Column{Name: f.Name, Index: i}

		switch {
		case f.Name == "label" && isNumericType(f.Type):
			col.Class = ClassLabel
			s.label = i
		case f.Name == "id":
			col.Class = ClassID
		case isBinaryType(f.Type):
			col.Class = ClassBinary
		case isNumericType(f.Type):
			col.Class = ClassNumeric
			s.numeric = append(s.numeric, i)
		default:
			col.Class = ClassExcluded
		}

		s.Columns = append(s.Columns, col)
	}

	return s
}

func isNumericType(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

func isBinaryType(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY,
		arrow.STRING, arrow.LARGE_STRING:
		return true
	default:
		return false
	}
}
