package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Table represents a queryable read-only table with a fixed schema.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name. MUST return non-empty string.
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the schema describing table columns.
	ArrowSchema() *arrow.Schema

	// Scan returns a RecordReader over the table.
	// Caller MUST call reader.Release() to free memory.
	// Returned RecordReader schema MUST match the projection of
	// ArrowSchema() onto opts.Columns.
	Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
}
