package airport

import (
	"fmt"

	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/functions"
)

// DefaultSchema is the schema name the A5 functions are published under.
const DefaultSchema = "a5"

// NewA5Catalog builds a catalog with a single schema holding every A5
// scalar function and the res0_cells table, all bound to lib.
func NewA5Catalog(lib a5.Library, schemaName string, opts ...functions.Option) (catalog.Catalog, error) {
	if lib == nil {
		return nil, fmt.Errorf("%w: A5 library is required", ErrInvalidConfig)
	}
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	set := functions.New(lib, opts...)
	return NewCatalogBuilder().
		Schema(schemaName).
		Comment("A5 pentagonal cell index").
		Table(set.Res0Table()).
		ScalarFuncs(set.Functions()...).
		Build()
}
