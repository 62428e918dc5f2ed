package functions

import (
	"context"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/a5"
)

// Per-row reservation estimates for the child buffer.
const (
	childrenPerRow = 4
	verticesPerRow = 5
)

// elementSink appends list elements into the child vector of a list.
type elementSink[E any] interface {
	reserve(n int)
	append(elems []E)
	newArray() arrow.Array
	release()
}

// listBuilder assembles list<E> output one row at a time. The offsets
// buffer is maintained by hand: row i spans [offs[i], offs[i+1]) of the
// child vector. Null and empty rows are valid empty lists.
type listBuilder[E any] struct {
	typ     *arrow.ListType
	sink    elementSink[E]
	offsets *memory.Buffer
	offs    []int32
	row     int
	running int32
}

func newListBuilder[E any](mem memory.Allocator, typ *arrow.ListType, sink elementSink[E], rows, estimate int) *listBuilder[E] {
	offsets := memory.NewResizableBuffer(mem)
	offsets.Resize(arrow.Int32Traits.BytesRequired(rows + 1))
	offs := arrow.Int32Traits.CastFromBytes(offsets.Bytes())
	offs[0] = 0
	sink.reserve(rows * estimate)
	return &listBuilder[E]{typ: typ, sink: sink, offsets: offsets, offs: offs}
}

// appendEmpty records (running, 0) for the current row.
func (b *listBuilder[E]) appendEmpty() {
	b.row++
	b.offs[b.row] = b.running
}

// appendValues copies elems into the child vector and records
// (running, len(elems)) for the current row.
func (b *listBuilder[E]) appendValues(elems []E) error {
	if int64(b.running)+int64(len(elems)) > math.MaxInt32 {
		return fmt.Errorf("list output exceeds %d elements", math.MaxInt32)
	}
	b.sink.reserve(len(elems))
	b.sink.append(elems)
	b.running += int32(len(elems))
	b.row++
	b.offs[b.row] = b.running
	return nil
}

func (b *listBuilder[E]) finish() arrow.Array {
	values := b.sink.newArray()
	defer values.Release()
	data := array.NewData(b.typ, b.row, []*memory.Buffer{nil, b.offsets}, []arrow.ArrayData{values.Data()}, 0, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func (b *listBuilder[E]) release() {
	if b.offsets != nil {
		b.offsets.Release()
		b.offsets = nil
	}
	b.sink.release()
}

// listRow fills one row of a list output. It only runs for rows where
// every required input is non-null and must append exactly one row.
type listRow func(row int) error

// runList drives fn over rows. Rows with a null required input become
// empty lists without calling fn.
func runList[E any](ctx context.Context, rows int, required []column, b *listBuilder[E], fn listRow) (arrow.Array, error) {
	defer b.release()
	for row := 0; row < rows; row++ {
		if row%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if anyNull(required, row) {
			b.appendEmpty()
			continue
		}
		if err := fn(row); err != nil {
			return nil, err
		}
	}
	return b.finish(), nil
}

// appendCells moves one foreign cell buffer into b. The buffer is
// released on every path.
func appendCells(op string, b *listBuilder[a5.Cell], arr a5.CellArray) error {
	g := owned{r: arr}
	defer g.release()
	if err := errorOf(op, arr.Err()); err != nil {
		return err
	}
	cells := arr.Cells()
	if len(cells) == 0 {
		b.appendEmpty()
		return nil
	}
	return b.appendValues(cells)
}

// appendPoints moves one foreign coordinate buffer into b.
func appendPoints(op string, b *listBuilder[a5.LonLat], arr a5.LonLatArray) error {
	g := owned{r: arr}
	defer g.release()
	if err := errorOf(op, arr.Err()); err != nil {
		return err
	}
	pts := arr.Points()
	if len(pts) == 0 {
		b.appendEmpty()
		return nil
	}
	return b.appendValues(pts)
}

type cellSink struct {
	b *array.Uint64Builder
}

func newCellSink(mem memory.Allocator) *cellSink {
	return &cellSink{b: array.NewUint64Builder(mem)}
}

func (s *cellSink) reserve(n int) { s.b.Reserve(n) }

func (s *cellSink) append(cells []a5.Cell) {
	for _, c := range cells {
		s.b.UnsafeAppend(uint64(c))
	}
}

func (s *cellSink) newArray() arrow.Array { return s.b.NewArray() }
func (s *cellSink) release()              { s.b.Release() }

type pointSink struct {
	list   *array.FixedSizeListBuilder
	values *array.Float64Builder
}

func newPointSink(mem memory.Allocator) *pointSink {
	b := array.NewFixedSizeListBuilder(mem, 2, arrow.PrimitiveTypes.Float64)
	return &pointSink{list: b, values: b.ValueBuilder().(*array.Float64Builder)}
}

func (s *pointSink) reserve(n int) {
	s.list.Reserve(n)
	s.values.Reserve(2 * n)
}

func (s *pointSink) append(pts []a5.LonLat) {
	for _, p := range pts {
		s.list.Append(true)
		s.values.UnsafeAppend(p.Lon)
		s.values.UnsafeAppend(p.Lat)
	}
}

func (s *pointSink) newArray() arrow.Array { return s.list.NewArray() }
func (s *pointSink) release()              { s.list.Release() }
