package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ScanOptions provides options for table scans.
type ScanOptions struct {
	// Columns to return. If nil/empty, return all columns.
	Columns []string

	// Limit is maximum rows to return.
	// If 0 or negative, no limit.
	Limit int64

	// BatchSize is hint for RecordReader batch size.
	// If 0, implementation chooses default.
	BatchSize int
}

// FunctionSignature describes the types of a scalar function.
type FunctionSignature struct {
	// Parameters is list of parameter types (in order). May be empty.
	Parameters []arrow.DataType

	// ReturnType is the function's return type.
	ReturnType arrow.DataType
}

// ScanFunc is a function type for table data retrieval.
type ScanFunc func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
