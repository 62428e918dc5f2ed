// Package catalog provides interfaces for describing what a Flight server
// exposes: schemas, tables and scalar functions.
//
// Catalogs may be static (built once with NewStaticCatalog) or custom
// implementations that reflect live state. All interfaces are
// goroutine-safe and support context-based cancellation.
package catalog

import (
	"context"
)

// Catalog represents the top-level metadata container.
// All methods MUST be goroutine-safe.
type Catalog interface {
	// Schemas returns all schemas visible in this catalog in a stable order.
	// The first schema is reported to clients as the default one.
	// Returns empty slice (not nil) if no schemas available.
	Schemas(ctx context.Context) ([]Schema, error)

	// Schema returns a specific schema by name.
	// Returns (nil, nil) if schema doesn't exist (not an error).
	Schema(ctx context.Context, name string) (Schema, error)
}

// Schema represents a database schema containing tables and functions.
// Implementations MUST be goroutine-safe.
type Schema interface {
	// Name returns the schema name. MUST return non-empty string.
	Name() string

	// Comment returns optional schema documentation.
	Comment() string

	// Tables returns all tables in this schema.
	// Returns empty slice (not nil) if no tables available.
	Tables(ctx context.Context) ([]Table, error)

	// Table returns a specific table by name.
	// Returns (nil, nil) if table doesn't exist (not an error).
	Table(ctx context.Context, name string) (Table, error)

	// ScalarFunctions returns all scalar functions in this schema.
	// Returns empty slice (not nil) if no functions available.
	ScalarFunctions(ctx context.Context) ([]ScalarFunction, error)
}

// FindScalarFunction looks a scalar function up by name.
// Returns (nil, nil) if the schema has no function with that name.
func FindScalarFunction(ctx context.Context, schema Schema, name string) (ScalarFunction, error) {
	funcs, err := schema.ScalarFunctions(ctx)
	if err != nil {
		return nil, err
	}
	for _, fn := range funcs {
		if fn.Name() == name {
			return fn, nil
		}
	}
	return nil, nil
}
