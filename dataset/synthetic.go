package dataset

import (
	"fmt"
	mrand "math/rand"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// SyntheticConfig controls synthetic table generation.
type SyntheticConfig struct {
	Rows           int
	NumericColumns int
	LabelClasses   int
	IncludeBinary  bool
	BinarySize     int
	Seed           int64
}

// Generator produces deterministic in-memory tables from a
// SyntheticConfig. The schema matches the benchmark dataset
// convention: col_0..col_N float32 features, an id column, a label
// column, and optionally a binary blob column.
type Generator struct {
	cfg SyntheticConfig
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given config.
func NewGenerator(cfg SyntheticConfig) *Generator {
	if cfg.NumericColumns <= 0 {
		cfg.NumericColumns = 10
	}
	if cfg.LabelClasses <= 0 {
		cfg.LabelClasses = 1000
	}
	if cfg.BinarySize <= 0 {
		cfg.BinarySize = 1024
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Table builds the synthetic table. Two generators with the same
// config produce identical tables.
func (g *Generator) Table() *Table {
	fields := make([]arrow.Field, 0, g.cfg.NumericColumns+3)
	for i := 0; i < g.cfg.NumericColumns; i++ {
		fields = append(fields, arrow.Field{
			Name: fmt.Sprintf("col_%d", i),
			Type: arrow.PrimitiveTypes.Float32,
		})
	}
	fields = append(fields,
		arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "label", Type: arrow.PrimitiveTypes.Int64},
	)
	if g.cfg.IncludeBinary {
		fields = append(fields, arrow.Field{
			Name: "blob", Type: arrow.BinaryTypes.Binary,
		})
	}

	schema := arrow.NewSchema(fields, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i := 0; i < g.cfg.NumericColumns; i++ {
		fb := b.Field(i).(*array.Float32Builder)
		for row := 0; row < g.cfg.Rows; row++ {
			fb.Append(float32(g.rng.NormFloat64()))
		}
	}

	idIdx := g.cfg.NumericColumns
	ib := b.Field(idIdx).(*array.Int64Builder)
	for row := 0; row < g.cfg.Rows; row++ {
		ib.Append(int64(row))
	}

	lb := b.Field(idIdx + 1).(*array.Int64Builder)
	for row := 0; row < g.cfg.Rows; row++ {
		lb.Append(int64(g.rng.Intn(g.cfg.LabelClasses)))
	}

	if g.cfg.IncludeBinary {
		bb := b.Field(idIdx + 2).(*array.BinaryBuilder)
		blob := make([]byte, g.cfg.BinarySize)
		for row := 0; row < g.cfg.Rows; row++ {
			g.rng.Read(blob)
			bb.Append(blob)
		}
	}

	return newTable(b.NewRecord(), "synthetic")
}
