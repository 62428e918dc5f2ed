package catalog

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// ProjectSchema returns a schema with only the named columns, in the order
// given. Unknown names are skipped. A nil or empty column list returns
// schema unchanged.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if schema == nil || len(columns) == 0 {
		return schema
	}
	fields := make([]arrow.Field, 0, len(columns))
	for _, name := range columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			continue
		}
		fields = append(fields, schema.Field(idx[0]))
	}
	md := schema.Metadata()
	return arrow.NewSchema(fields, &md)
}

// ResultFieldName is the name of the single output column of a scalar
// function.
const ResultFieldName = "result"

// ResultField returns the nullable output field for a scalar function
// returning dt. Geometry results carry WGS84 polygon metadata.
func ResultField(dt arrow.DataType) arrow.Field {
	if _, ok := dt.(*GeometryExtensionType); ok {
		return NewGeometryField(ResultFieldName, true, WGS84, "POLYGON")
	}
	return arrow.Field{Name: ResultFieldName, Type: dt, Nullable: true}
}
