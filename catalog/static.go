package catalog

import (
	"context"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// StaticCatalog is an immutable catalog built once at startup.
type StaticCatalog struct {
	order   []string
	schemas map[string]*staticSchema
}

// NewStaticCatalog creates an empty static catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		schemas: make(map[string]*staticSchema),
	}
}

// AddSchema adds a schema to the catalog. Schemas are reported in the
// order they were added; adding an existing name replaces it in place.
func (c *StaticCatalog) AddSchema(name, comment string, tables []Table, scalarFuncs []ScalarFunction) {
	if _, ok := c.schemas[name]; !ok {
		c.order = append(c.order, name)
	}
	byName := make(map[string]Table, len(tables))
	for _, t := range tables {
		byName[t.Name()] = t
	}
	c.schemas[name] = &staticSchema{
		name:        name,
		comment:     comment,
		tables:      byName,
		scalarFuncs: scalarFuncs,
	}
}

// Schemas implements Catalog interface.
func (c *StaticCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]Schema, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, c.schemas[name])
	}
	return result, nil
}

// Schema implements Catalog interface.
func (c *StaticCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	schema, ok := c.schemas[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return schema, nil
}

type staticSchema struct {
	name        string
	comment     string
	tables      map[string]Table
	scalarFuncs []ScalarFunction
}

func (s *staticSchema) Name() string    { return s.name }
func (s *staticSchema) Comment() string { return s.comment }

// Tables implements Schema interface. Tables are sorted by name.
func (s *staticSchema) Tables(ctx context.Context) ([]Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]Table, 0, len(s.tables))
	for _, table := range s.tables {
		result = append(result, table)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

// Table implements Schema interface.
func (s *staticSchema) Table(ctx context.Context, name string) (Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, ok := s.tables[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return table, nil
}

// ScalarFunctions implements Schema interface.
func (s *staticSchema) ScalarFunctions(ctx context.Context) ([]ScalarFunction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.scalarFuncs == nil {
		return []ScalarFunction{}, nil
	}
	return s.scalarFuncs, nil
}

// StaticTable is an immutable table backed by a ScanFunc.
type StaticTable struct {
	name     string
	comment  string
	schema   *arrow.Schema
	scanFunc ScanFunc
}

// NewStaticTable creates a static table.
func NewStaticTable(name, comment string, schema *arrow.Schema, scanFunc ScanFunc) *StaticTable {
	return &StaticTable{
		name:     name,
		comment:  comment,
		schema:   schema,
		scanFunc: scanFunc,
	}
}

func (t *StaticTable) Name() string               { return t.name }
func (t *StaticTable) Comment() string            { return t.comment }
func (t *StaticTable) ArrowSchema() *arrow.Schema { return t.schema }

// Scan implements Table interface.
func (t *StaticTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	return t.scanFunc(ctx, opts)
}
