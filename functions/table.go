package functions

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/airport-a5/catalog"
)

// Res0TableName is the table listing the resolution 0 cells.
const Res0TableName = "res0_cells"

var res0Schema = arrow.NewSchema([]arrow.Field{
	{Name: "cell", Type: CellType, Nullable: false},
}, nil)

// Res0Table exposes the resolution 0 cells as a one-column table. Each
// scan makes a single library call.
func (s *Set) Res0Table() catalog.Table {
	return catalog.NewStaticTable(Res0TableName, "The twelve resolution 0 cells", res0Schema, s.scanRes0)
}

func (s *Set) scanRes0(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cells, err := s.copyRes0Cells("get_res0_cells")
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.Limit > 0 && int64(len(cells)) > opts.Limit {
		cells = cells[:opts.Limit]
	}

	schema := res0Schema
	if opts != nil {
		schema = catalog.ProjectSchema(res0Schema, opts.Columns)
	}

	b := array.NewRecordBuilder(s.mem, schema)
	defer b.Release()
	if schema.NumFields() == 1 {
		cb := b.Field(0).(*array.Uint64Builder)
		cb.Reserve(len(cells))
		for _, c := range cells {
			cb.UnsafeAppend(uint64(c))
		}
	}
	rec := b.NewRecordBatch()
	defer rec.Release()
	return array.NewRecordReader(schema, []arrow.RecordBatch{rec})
}
