package functions

import (
	"context"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/internal/a5mock"
)

type fixture struct {
	t   *testing.T
	mem *memory.CheckedAllocator
	lib *a5mock.Library
	set *Set
}

// newFixture wires a Set to a counting mock and checks, after the test,
// that every Arrow buffer and every foreign buffer was released once.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	lib := a5mock.New()
	f := &fixture{t: t, mem: mem, lib: lib, set: New(lib, WithAllocator(mem))}
	t.Cleanup(func() {
		mem.AssertSize(t, 0)
		if n := lib.Outstanding(); n != 0 {
			t.Errorf("%d foreign buffers not released", n)
		}
		if n := lib.DoubleReleases(); n != 0 {
			t.Errorf("%d foreign buffers released twice", n)
		}
	})
	return f
}

// exec runs fn over cols. Input arrays are released by exec.
func (f *fixture) exec(name string, rows int, cols ...arrow.Array) (arrow.Array, error) {
	f.t.Helper()
	return f.execContext(context.Background(), name, rows, cols...)
}

func (f *fixture) execContext(ctx context.Context, name string, rows int, cols ...arrow.Array) (arrow.Array, error) {
	f.t.Helper()
	fn := f.set.Lookup(name)
	if fn == nil {
		f.t.Fatalf("function %s not registered", name)
	}
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: fmt.Sprintf("arg%d", i), Type: c.DataType(), Nullable: true}
	}
	rec := array.NewRecordBatch(arrow.NewSchema(fields, nil), cols, int64(rows))
	for _, c := range cols {
		c.Release()
	}
	defer rec.Release()
	return fn.Execute(ctx, rec)
}

// mustExec is exec for calls expected to succeed.
func (f *fixture) mustExec(name string, rows int, cols ...arrow.Array) arrow.Array {
	f.t.Helper()
	out, err := f.exec(name, rows, cols...)
	if err != nil {
		f.t.Fatalf("%s: unexpected error: %v", name, err)
	}
	if out.Len() != rows {
		out.Release()
		f.t.Fatalf("%s: expected %d rows, got %d", name, rows, out.Len())
	}
	return out
}

func (f *fixture) int32s(vals []int32, valid []bool) arrow.Array {
	b := array.NewInt32Builder(f.mem)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewArray()
}

func (f *fixture) cells(vals []a5.Cell, valid []bool) arrow.Array {
	b := array.NewUint64Builder(f.mem)
	defer b.Release()
	raw := make([]uint64, len(vals))
	for i, v := range vals {
		raw[i] = uint64(v)
	}
	b.AppendValues(raw, valid)
	return b.NewArray()
}

func (f *fixture) float64s(vals []float64, valid []bool) arrow.Array {
	b := array.NewFloat64Builder(f.mem)
	defer b.Release()
	b.AppendValues(vals, valid)
	return b.NewArray()
}

func (f *fixture) bools(vals []bool) arrow.Array {
	b := array.NewBooleanBuilder(f.mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewArray()
}

// cellLists builds list<uint64>; a nil row is a null list.
func (f *fixture) cellLists(rows ...[]a5.Cell) arrow.Array {
	b := array.NewListBuilder(f.mem, arrow.PrimitiveTypes.Uint64)
	defer b.Release()
	vb := b.ValueBuilder().(*array.Uint64Builder)
	for _, row := range rows {
		if row == nil {
			b.AppendNull()
			continue
		}
		b.Append(true)
		for _, c := range row {
			vb.Append(uint64(c))
		}
	}
	return b.NewArray()
}

// dict wraps values in a dictionary array with the given int8 indices;
// a negative index is a null row.
func (f *fixture) dict(values arrow.Array, indices ...int8) arrow.Array {
	defer values.Release()
	ib := array.NewInt8Builder(f.mem)
	defer ib.Release()
	for _, i := range indices {
		if i < 0 {
			ib.AppendNull()
		} else {
			ib.Append(i)
		}
	}
	idx := ib.NewArray()
	defer idx.Release()
	typ := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: values.DataType()}
	return array.NewDictionaryArray(typ, idx, values)
}

func listCells(t *testing.T, out arrow.Array, row int) []a5.Cell {
	t.Helper()
	l, ok := out.(*array.List)
	if !ok {
		t.Fatalf("expected *array.List, got %T", out)
	}
	if l.IsNull(row) {
		t.Fatalf("row %d: unexpected null list", row)
	}
	start, end := l.ValueOffsets(row)
	values := l.ListValues().(*array.Uint64)
	cells := make([]a5.Cell, 0, end-start)
	for i := start; i < end; i++ {
		cells = append(cells, a5.Cell(values.Value(int(i))))
	}
	return cells
}

func listPoints(t *testing.T, out arrow.Array, row int) []a5.LonLat {
	t.Helper()
	l, ok := out.(*array.List)
	if !ok {
		t.Fatalf("expected *array.List, got %T", out)
	}
	start, end := l.ValueOffsets(row)
	coords := l.ListValues().(*array.FixedSizeList).ListValues().(*array.Float64)
	pts := make([]a5.LonLat, 0, end-start)
	for i := start; i < end; i++ {
		pts = append(pts, a5.LonLat{Lon: coords.Value(int(2 * i)), Lat: coords.Value(int(2*i + 1))})
	}
	return pts
}
