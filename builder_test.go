package airport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/functions"
	"github.com/hugr-lab/airport-a5/internal/a5mock"
)

// Test helper: creates a simple scan function for testing
func testScanFunc(schema *arrow.Schema) catalog.ScanFunc {
	return func(ctx context.Context, opts *catalog.ScanOptions) (array.RecordReader, error) {
		builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
		defer builder.Release()
		record := builder.NewRecordBatch()
		defer record.Release()
		return array.NewRecordReader(schema, []arrow.RecordBatch{record})
	}
}

// TestCatalogBuilderBasic tests basic catalog building functionality.
func TestCatalogBuilderBasic(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	cat, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err != nil {
		t.Fatalf("Expected successful build, got error: %v", err)
	}

	if cat == nil {
		t.Fatal("Expected non-nil catalog")
	}
}

// TestCatalogBuilderMultipleSchemas tests adding multiple schemas.
func TestCatalogBuilderMultipleSchemas(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	cat, err := NewCatalogBuilder().
		Schema("schema1").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Schema("schema2").
		SimpleTable(SimpleTableDef{
			Name:     "table2",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err != nil {
		t.Fatalf("Expected successful build, got error: %v", err)
	}

	// Verify both schemas exist
	ctx := context.Background()
	schemas, err := cat.Schemas(ctx)
	if err != nil {
		t.Fatalf("Failed to get schemas: %v", err)
	}

	if len(schemas) != 2 {
		t.Errorf("Expected 2 schemas, got %d", len(schemas))
	}
}

// TestCatalogBuilderEmptySchemaName tests that empty schema names are rejected.
func TestCatalogBuilderEmptySchemaName(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := NewCatalogBuilder().
		Schema("").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err == nil {
		t.Error("Expected error for empty schema name, got nil")
	}
}

// TestCatalogBuilderDuplicateSchemaNames tests that duplicate schema names are rejected.
func TestCatalogBuilderDuplicateSchemaNames(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := NewCatalogBuilder().
		Schema("duplicate").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Schema("duplicate").
		SimpleTable(SimpleTableDef{
			Name:     "table2",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err == nil {
		t.Error("Expected error for duplicate schema names, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "duplicate schema name") {
		t.Errorf("Expected 'duplicate schema name' error, got: %v", err)
	}
}

// TestCatalogBuilderDuplicateTableNames tests that duplicate table names in same schema are rejected.
func TestCatalogBuilderDuplicateTableNames(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "duplicate",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		SimpleTable(SimpleTableDef{
			Name:     "duplicate",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err == nil {
		t.Error("Expected error for duplicate table names, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "duplicate table name") {
		t.Errorf("Expected 'duplicate table name' error, got: %v", err)
	}
}

// TestCatalogBuilderEmptyTableName tests that empty table names are rejected.
func TestCatalogBuilderEmptyTableName(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err == nil {
		t.Error("Expected error for empty table name, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "table name cannot be empty") {
		t.Errorf("Expected 'table name cannot be empty' error, got: %v", err)
	}
}

// TestCatalogBuilderNilSchema tests that nil Arrow schema is rejected.
func TestCatalogBuilderNilSchema(t *testing.T) {
	_, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   nil,
			ScanFunc: testScanFunc(nil),
		}).
		Build()

	if err == nil {
		t.Error("Expected error for nil schema, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "nil schema") {
		t.Errorf("Expected 'nil schema' error, got: %v", err)
	}
}

// TestCatalogBuilderNilScanFunc tests that nil scan function is rejected.
func TestCatalogBuilderNilScanFunc(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: nil,
		}).
		Build()

	if err == nil {
		t.Error("Expected error for nil scan function, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "nil scan function") {
		t.Errorf("Expected 'nil scan function' error, got: %v", err)
	}
}

// TestCatalogBuilderCannotBuildTwice tests that building twice returns error.
func TestCatalogBuilderCannotBuildTwice(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	builder := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		})

	// First build should succeed
	_, err := builder.Build()
	if err != nil {
		t.Fatalf("First build failed: %v", err)
	}

	// Second build should fail
	_, err = builder.Build()
	if err == nil {
		t.Error("Expected error when building twice, got nil")
	}

	if err != nil && !strings.Contains(err.Error(), "already built") {
		t.Errorf("Expected 'already built' error, got: %v", err)
	}
}

// TestCatalogBuilderWithComment tests adding comments to schemas.
func TestCatalogBuilderWithComment(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	cat, err := NewCatalogBuilder().
		Schema("test").
		Comment("Test schema comment").
		SimpleTable(SimpleTableDef{
			Name:     "table1",
			Comment:  "Test table comment",
			Schema:   schema,
			ScanFunc: testScanFunc(schema),
		}).
		Build()

	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Verify comment is preserved
	ctx := context.Background()
	testSchema, err := cat.Schema(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to get schema: %v", err)
	}

	if testSchema.Comment() != "Test schema comment" {
		t.Errorf("Expected schema comment 'Test schema comment', got '%s'", testSchema.Comment())
	}
}

// TestCatalogBuilderWithFunctions tests adding scalar functions and ready-made tables.
func TestCatalogBuilderWithFunctions(t *testing.T) {
	set := functions.New(a5mock.New())

	cat, err := NewCatalogBuilder().
		Schema("test").
		Table(set.Res0Table()).
		ScalarFunc(&mockScalarFunc{name: "TEST_FUNC"}).
		ScalarFuncs(set.Functions()...).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ctx := context.Background()
	testSchema, err := cat.Schema(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to get schema: %v", err)
	}

	scalarFuncs, err := testSchema.ScalarFunctions(ctx)
	if err != nil {
		t.Fatalf("Failed to get scalar functions: %v", err)
	}
	if want := len(set.Functions()) + 1; len(scalarFuncs) != want {
		t.Errorf("Expected %d scalar functions, got %d", want, len(scalarFuncs))
	}

	tables, err := testSchema.Tables(ctx)
	if err != nil {
		t.Fatalf("Failed to get tables: %v", err)
	}
	if len(tables) != 1 || tables[0].Name() != "res0_cells" {
		t.Errorf("Expected res0_cells table, got %v", tables)
	}
}

func TestCatalogBuilderFunctionValidation(t *testing.T) {
	tests := []struct {
		name    string
		funcs   []catalog.ScalarFunction
		wantErr string
	}{
		{"nil function", []catalog.ScalarFunction{nil}, "nil scalar function"},
		{"empty name", []catalog.ScalarFunction{&mockScalarFunc{}}, "name cannot be empty"},
		{"duplicate", []catalog.ScalarFunction{&mockScalarFunc{name: "f"}, &mockScalarFunc{name: "f"}}, "duplicate scalar function"},
		{"nil return type", []catalog.ScalarFunction{&mockScalarFunc{name: "f", noReturn: true}}, "nil return type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalogBuilder().Schema("s").ScalarFuncs(tt.funcs...).Build()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCatalogBuilderDuplicateTableAcrossKinds(t *testing.T) {
	set := functions.New(a5mock.New())
	table := set.Res0Table()

	_, err := NewCatalogBuilder().
		Schema("test").
		SimpleTable(SimpleTableDef{
			Name:     table.Name(),
			Schema:   table.ArrowSchema(),
			ScanFunc: testScanFunc(table.ArrowSchema()),
		}).
		Table(table).
		Build()
	if err == nil || !strings.Contains(err.Error(), "duplicate table name") {
		t.Fatalf("Expected duplicate table error, got %v", err)
	}
}

func TestNewA5Catalog(t *testing.T) {
	ctx := context.Background()

	if _, err := NewA5Catalog(nil, ""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig for nil library, got %v", err)
	}

	cat, err := NewA5Catalog(a5mock.New(), "")
	if err != nil {
		t.Fatalf("NewA5Catalog failed: %v", err)
	}
	schema, err := cat.Schema(ctx, DefaultSchema)
	if err != nil {
		t.Fatalf("Failed to get default schema: %v", err)
	}
	fn, err := catalog.FindScalarFunction(ctx, schema, "a5_cell_to_boundary")
	if err != nil {
		t.Fatalf("a5_cell_to_boundary not found: %v", err)
	}
	if got := len(catalog.Signatures(fn)); got != 3 {
		t.Errorf("Expected 3 cell_to_boundary overloads, got %d", got)
	}

	cat, err = NewA5Catalog(a5mock.New(), "geo")
	if err != nil {
		t.Fatalf("NewA5Catalog failed: %v", err)
	}
	if _, err := cat.Schema(ctx, "geo"); err != nil {
		t.Fatalf("Expected schema geo: %v", err)
	}
}

// Mock functions for testing
type mockScalarFunc struct {
	name     string
	noReturn bool
}

func (m *mockScalarFunc) Name() string {
	return m.name
}

func (m *mockScalarFunc) Comment() string {
	return "Mock scalar function"
}

func (m *mockScalarFunc) Signature() catalog.FunctionSignature {
	sig := catalog.FunctionSignature{
		Parameters: []arrow.DataType{arrow.PrimitiveTypes.Int64},
		ReturnType: arrow.PrimitiveTypes.Int64,
	}
	if m.noReturn {
		sig.ReturnType = nil
	}
	return sig
}

func (m *mockScalarFunc) Execute(ctx context.Context, input arrow.RecordBatch) (arrow.Array, error) {
	col := input.Column(0)
	col.Retain()
	return col, nil
}
