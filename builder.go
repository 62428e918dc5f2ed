package airport

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/airport-a5/catalog"
)

// SimpleTableDef defines a table with fixed schema.
// Used with SchemaBuilder.SimpleTable().
type SimpleTableDef struct {
	// Name is the table name (e.g., "res0_cells").
	// REQUIRED: MUST be non-empty and unique within schema.
	Name string

	// Comment is optional table documentation.
	// OPTIONAL: Empty string if no comment.
	Comment string

	// Schema is the Arrow schema describing table columns.
	// REQUIRED: MUST NOT be nil.
	Schema *arrow.Schema

	// ScanFunc provides table data as RecordReader.
	// REQUIRED: MUST NOT be nil.
	ScanFunc catalog.ScanFunc
}

// CatalogBuilder builds static catalogs using fluent API.
// Not thread-safe - use only during initialization.
type CatalogBuilder struct {
	schemas []*schemaBuilder
	built   bool
}

// NewCatalogBuilder creates a new fluent catalog builder.
// Returns builder in "empty" state (no schemas).
//
// Example:
//
//	cat, err := airport.NewCatalogBuilder().
//	    Schema("a5").
//	        Table(set.Res0Table()).
//	        ScalarFuncs(set.Functions()...).
//	    Build()
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{}
}

// Schema starts defining a new schema.
// Returns SchemaBuilder for adding tables/functions to this schema.
// Schema name MUST be non-empty and unique within catalog.
// The first schema is reported to clients as the default one.
func (cb *CatalogBuilder) Schema(name string) *SchemaBuilder {
	sb := &schemaBuilder{
		name:           name,
		catalogBuilder: cb,
	}
	cb.schemas = append(cb.schemas, sb)
	return &SchemaBuilder{builder: sb}
}

// Build finalizes the catalog and returns immutable Catalog implementation.
// Can only be called once. Further modifications return error.
// Returns error if catalog is invalid (e.g., duplicate schema names).
func (cb *CatalogBuilder) Build() (catalog.Catalog, error) {
	if cb.built {
		return nil, fmt.Errorf("catalog already built")
	}

	seenNames := make(map[string]bool)
	for _, sb := range cb.schemas {
		if sb.name == "" {
			return nil, fmt.Errorf("schema name cannot be empty")
		}
		if seenNames[sb.name] {
			return nil, fmt.Errorf("duplicate schema name: %s", sb.name)
		}
		seenNames[sb.name] = true

		if err := sb.validate(); err != nil {
			return nil, err
		}
	}

	cb.built = true

	cat := catalog.NewStaticCatalog()
	for _, sb := range cb.schemas {
		tables := make([]catalog.Table, 0, len(sb.simpleTables)+len(sb.tables))
		for _, def := range sb.simpleTables {
			tables = append(tables, catalog.NewStaticTable(def.Name, def.Comment, def.Schema, def.ScanFunc))
		}
		tables = append(tables, sb.tables...)
		cat.AddSchema(sb.name, sb.comment, tables, sb.scalarFuncs)
	}
	return cat, nil
}

// SchemaBuilder builds a schema within a catalog.
// Not thread-safe - use only during initialization.
type SchemaBuilder struct {
	builder *schemaBuilder
}

// schemaBuilder is the internal schema builder implementation.
type schemaBuilder struct {
	name           string
	comment        string
	simpleTables   []SimpleTableDef
	tables         []catalog.Table
	scalarFuncs    []catalog.ScalarFunction
	catalogBuilder *CatalogBuilder
}

func (sb *schemaBuilder) validate() error {
	tableNames := make(map[string]bool)
	addTable := func(name string) error {
		if name == "" {
			return fmt.Errorf("table name cannot be empty in schema %s", sb.name)
		}
		if tableNames[name] {
			return fmt.Errorf("duplicate table name %s in schema %s", name, sb.name)
		}
		tableNames[name] = true
		return nil
	}

	for _, table := range sb.simpleTables {
		if err := addTable(table.Name); err != nil {
			return err
		}
		if table.Schema == nil {
			return fmt.Errorf("table %s.%s has nil schema", sb.name, table.Name)
		}
		if table.ScanFunc == nil {
			return fmt.Errorf("table %s.%s has nil scan function", sb.name, table.Name)
		}
	}
	for _, table := range sb.tables {
		if table == nil {
			return fmt.Errorf("nil table in schema %s", sb.name)
		}
		if err := addTable(table.Name()); err != nil {
			return err
		}
	}

	funcNames := make(map[string]bool)
	for _, fn := range sb.scalarFuncs {
		if fn == nil {
			return fmt.Errorf("nil scalar function in schema %s", sb.name)
		}
		if fn.Name() == "" {
			return fmt.Errorf("scalar function name cannot be empty in schema %s", sb.name)
		}
		if funcNames[fn.Name()] {
			return fmt.Errorf("duplicate scalar function %s in schema %s", fn.Name(), sb.name)
		}
		funcNames[fn.Name()] = true
		if fn.Signature().ReturnType == nil {
			return fmt.Errorf("scalar function %s.%s has nil return type", sb.name, fn.Name())
		}
	}
	return nil
}

// Comment sets optional schema documentation.
// Returns self for method chaining.
func (sb *SchemaBuilder) Comment(comment string) *SchemaBuilder {
	sb.builder.comment = comment
	return sb
}

// SimpleTable adds a table with fixed schema using SimpleTableDef.
// Returns self for method chaining.
// Table name MUST be unique within schema.
func (sb *SchemaBuilder) SimpleTable(def SimpleTableDef) *SchemaBuilder {
	sb.builder.simpleTables = append(sb.builder.simpleTables, def)
	return sb
}

// Table adds a ready-made table implementation to this schema.
// Returns self for method chaining.
func (sb *SchemaBuilder) Table(table catalog.Table) *SchemaBuilder {
	sb.builder.tables = append(sb.builder.tables, table)
	return sb
}

// ScalarFunc adds a scalar function to this schema.
// Returns self for method chaining.
// Function name MUST be unique within schema.
func (sb *SchemaBuilder) ScalarFunc(fn catalog.ScalarFunction) *SchemaBuilder {
	sb.builder.scalarFuncs = append(sb.builder.scalarFuncs, fn)
	return sb
}

// ScalarFuncs adds several scalar functions in order.
func (sb *SchemaBuilder) ScalarFuncs(fns ...catalog.ScalarFunction) *SchemaBuilder {
	sb.builder.scalarFuncs = append(sb.builder.scalarFuncs, fns...)
	return sb
}

// Schema starts a new schema (convenience for chaining).
// Returns new SchemaBuilder.
func (sb *SchemaBuilder) Schema(name string) *SchemaBuilder {
	return sb.builder.catalogBuilder.Schema(name)
}

// Build finalizes the catalog (convenience for chaining).
func (sb *SchemaBuilder) Build() (catalog.Catalog, error) {
	return sb.builder.catalogBuilder.Build()
}
