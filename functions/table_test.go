package functions

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/airport-a5/catalog"
)

func TestRes0Table(t *testing.T) {
	tests := []struct {
		name  string
		opts  *catalog.ScanOptions
		rows  int64
		nCols int
	}{
		{name: "full scan", opts: &catalog.ScanOptions{}, rows: 12, nCols: 1},
		{name: "nil options", opts: nil, rows: 12, nCols: 1},
		{name: "limit", opts: &catalog.ScanOptions{Limit: 5}, rows: 5, nCols: 1},
		{name: "projection", opts: &catalog.ScanOptions{Columns: []string{"cell"}}, rows: 12, nCols: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			table := f.set.Res0Table()
			if table.Name() != Res0TableName {
				t.Errorf("unexpected table name %q", table.Name())
			}

			reader, err := table.Scan(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("Scan() failed: %v", err)
			}
			defer reader.Release()

			var rows int64
			for reader.Next() {
				rec := reader.RecordBatch()
				if int(rec.NumCols()) != tt.nCols {
					t.Errorf("expected %d columns, got %d", tt.nCols, rec.NumCols())
				}
				if _, ok := rec.Column(0).(*array.Uint64); !ok {
					t.Errorf("expected uint64 column, got %T", rec.Column(0))
				}
				rows += rec.NumRows()
			}
			if rows != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, rows)
			}
			if got := f.lib.Calls("get_res0_cells"); got != 1 {
				t.Errorf("expected one library call per scan, got %d", got)
			}
		})
	}
}
