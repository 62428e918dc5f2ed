package functions

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/a5"
)

// cancelCheckInterval is how many rows run between context checks.
const cancelCheckInterval = 1024

// valueBuilder is the output side of the scalar adapter. The Arrow
// primitive builders satisfy it directly.
type valueBuilder[T any] interface {
	Append(T)
	AppendNull()
	Reserve(n int)
	NewArray() arrow.Array
	Release()
}

// scalarRow computes one output slot. It only runs for rows where every
// required input is non-null. valid=false writes a null.
type scalarRow[T any] func(row int) (v T, valid bool, err error)

// runScalar drives fn over rows. Null rows never reach fn. When every
// required vector is constant the row is computed once and repeated.
// On error nothing is returned and the partial output is released.
func runScalar[T any](ctx context.Context, rows int, required []column, out valueBuilder[T], fn scalarRow[T]) (arrow.Array, error) {
	defer out.Release()
	out.Reserve(rows)

	if rows > 1 && allConstant(required) {
		if anyNull(required, 0) {
			for i := 0; i < rows; i++ {
				out.AppendNull()
			}
			return out.NewArray(), nil
		}
		v, valid, err := fn(0)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			if valid {
				out.Append(v)
			} else {
				out.AppendNull()
			}
		}
		return out.NewArray(), nil
	}

	for row := 0; row < rows; row++ {
		if row%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if anyNull(required, row) {
			out.AppendNull()
			continue
		}
		v, valid, err := fn(row)
		if err != nil {
			return nil, err
		}
		if !valid {
			out.AppendNull()
			continue
		}
		out.Append(v)
	}
	return out.NewArray(), nil
}

// lonLatBuilder writes coordinates as fixed_size_list<2, float64>.
type lonLatBuilder struct {
	list   *array.FixedSizeListBuilder
	values *array.Float64Builder
}

func newLonLatBuilder(mem memory.Allocator) *lonLatBuilder {
	b := array.NewFixedSizeListBuilder(mem, 2, arrow.PrimitiveTypes.Float64)
	return &lonLatBuilder{list: b, values: b.ValueBuilder().(*array.Float64Builder)}
}

func (b *lonLatBuilder) Append(p a5.LonLat) {
	b.list.Append(true)
	b.values.Append(p.Lon)
	b.values.Append(p.Lat)
}

func (b *lonLatBuilder) AppendNull() { b.list.AppendNull() }

func (b *lonLatBuilder) Reserve(n int) {
	b.list.Reserve(n)
	b.values.Reserve(2 * n)
}

func (b *lonLatBuilder) NewArray() arrow.Array { return b.list.NewArray() }
func (b *lonLatBuilder) Release()              { b.list.Release() }
