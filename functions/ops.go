package functions

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/airport-a5/a5"
)

// Arrow types of the function arguments and results.
var (
	CellType       = arrow.PrimitiveTypes.Uint64
	ResolutionType = arrow.PrimitiveTypes.Int32
	CoordType      = arrow.PrimitiveTypes.Float64
	LonLatType     = arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float64)
	CellListType   = arrow.ListOf(arrow.PrimitiveTypes.Uint64)
	BoundaryType   = arrow.ListOf(LonLatType)
)

func (s *Set) cellArea(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_area"
	res, err := newIntArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	return runScalar(ctx, c.rows, []column{res.column}, array.NewFloat64Builder(c.mem), func(row int) (float64, bool, error) {
		r := res.value(row)
		if err := ValidateResolution(op, r); err != nil {
			return 0, false, err
		}
		return s.lib.CellArea(int32(r)), true, nil
	})
}

func (s *Set) numCells(ctx context.Context, c call) (arrow.Array, error) {
	const op = "num_cells"
	res, err := newIntArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	return runScalar(ctx, c.rows, []column{res.column}, array.NewUint64Builder(c.mem), func(row int) (uint64, bool, error) {
		r := res.value(row)
		if err := ValidateResolution(op, r); err != nil {
			return 0, false, err
		}
		return s.lib.NumCells(int32(r)), true, nil
	})
}

func (s *Set) getResolution(ctx context.Context, c call) (arrow.Array, error) {
	const op = "get_resolution"
	cell, err := newCellArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	return runScalar(ctx, c.rows, []column{cell.column}, array.NewInt32Builder(c.mem), func(row int) (int32, bool, error) {
		return s.lib.Resolution(cell.value(row)), true, nil
	})
}

func (s *Set) lonLatToCell(ctx context.Context, c call) (arrow.Array, error) {
	const op = "lonlat_to_cell"
	lon, err := newFloatArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	lat, err := newFloatArg(op, 1, c.args[1])
	if err != nil {
		return nil, err
	}
	res, err := newIntArg(op, 2, c.args[2])
	if err != nil {
		return nil, err
	}
	required := []column{lon.column, lat.column, res.column}
	return runScalar(ctx, c.rows, required, array.NewUint64Builder(c.mem), func(row int) (uint64, bool, error) {
		r := res.value(row)
		if err := ValidateResolution(op, r); err != nil {
			return 0, false, err
		}
		cell, ferr := s.lib.LonLatToCell(lon.value(row), lat.value(row), int32(r))
		if ferr != nil {
			return 0, false, foreignScalarError(op, ferr)
		}
		return uint64(cell), true, nil
	})
}

func (s *Set) cellToParent(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_to_parent"
	cell, err := newCellArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	res, err := newIntArg(op, 1, c.args[1])
	if err != nil {
		return nil, err
	}
	return runScalar(ctx, c.rows, []column{cell.column, res.column}, array.NewUint64Builder(c.mem), func(row int) (uint64, bool, error) {
		r := res.value(row)
		if err := ValidateResolution(op, r); err != nil {
			return 0, false, err
		}
		parent, ferr := s.lib.CellToParent(cell.value(row), int32(r))
		if ferr != nil {
			return 0, false, foreignScalarError(op, ferr)
		}
		return uint64(parent), true, nil
	})
}

func (s *Set) cellToLonLat(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_to_lonlat"
	cell, err := newCellArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	return runScalar(ctx, c.rows, []column{cell.column}, newLonLatBuilder(c.mem), func(row int) (a5.LonLat, bool, error) {
		p, ferr := s.lib.CellToLonLat(cell.value(row))
		if ferr != nil {
			return a5.LonLat{}, false, foreignScalarError(op, ferr)
		}
		return p, true, nil
	})
}

func (s *Set) cellToChildren(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_to_children"
	cell, err := newCellArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	required := []column{cell.column}
	var res intArg
	if c.has(1) {
		if res, err = newIntArg(op, 1, c.args[1]); err != nil {
			return nil, err
		}
		required = append(required, res.column)
	}

	b := newListBuilder(c.mem, CellListType, newCellSink(c.mem), c.rows, childrenPerRow)
	return runList(ctx, c.rows, required, b, func(row int) error {
		target := immediateChildren
		if c.has(1) {
			r, err := childResolution(op, res.value(row))
			if err != nil {
				return err
			}
			target = r
		}
		return appendCells(op, b, s.lib.CellToChildren(cell.value(row), target))
	})
}

func (s *Set) cellToBoundary(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_to_boundary"
	args, err := newBoundaryArgs(op, c)
	if err != nil {
		return nil, err
	}
	b := newListBuilder(c.mem, BoundaryType, newPointSink(c.mem), c.rows, verticesPerRow)
	return runList(ctx, c.rows, args.required(), b, func(row int) error {
		cell := args.cell.value(row)
		if cell == a5.NoCell {
			b.appendEmpty()
			return nil
		}
		return appendPoints(op, b, s.lib.CellToBoundary(cell, args.options(row)))
	})
}

func (s *Set) res0Cells(ctx context.Context, c call) (arrow.Array, error) {
	const op = "get_res0_cells"
	b := newListBuilder(c.mem, CellListType, newCellSink(c.mem), c.rows, 0)
	if c.rows == 0 {
		defer b.release()
		return b.finish(), nil
	}
	cells, err := s.copyRes0Cells(op)
	if err != nil {
		b.release()
		return nil, err
	}
	b.sink.reserve(c.rows * len(cells))
	return runList(ctx, c.rows, nil, b, func(int) error {
		return b.appendValues(cells)
	})
}

// copyRes0Cells makes the single foreign call for a batch and copies the
// result out before releasing it.
func (s *Set) copyRes0Cells(op string) ([]a5.Cell, error) {
	arr := s.lib.Res0Cells()
	g := owned{r: arr}
	defer g.release()
	if err := errorOf(op, arr.Err()); err != nil {
		return nil, err
	}
	return append([]a5.Cell(nil), arr.Cells()...), nil
}

func (s *Set) compact(ctx context.Context, c call) (arrow.Array, error) {
	const op = "compact"
	cells, err := newCellListArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	b := newListBuilder(c.mem, CellListType, newCellSink(c.mem), c.rows, 0)
	b.sink.reserve(cells.totalLen())
	var scratch []a5.Cell
	return runList(ctx, c.rows, []column{cells.column}, b, func(row int) error {
		scratch = cells.value(row, scratch[:0])
		return appendCells(op, b, s.lib.Compact(scratch))
	})
}

func (s *Set) uncompact(ctx context.Context, c call) (arrow.Array, error) {
	const op = "uncompact"
	cells, err := newCellListArg(op, 0, c.args[0])
	if err != nil {
		return nil, err
	}
	res, err := newIntArg(op, 1, c.args[1])
	if err != nil {
		return nil, err
	}
	b := newListBuilder(c.mem, CellListType, newCellSink(c.mem), c.rows, 0)
	b.sink.reserve(cells.totalLen())
	var scratch []a5.Cell
	return runList(ctx, c.rows, []column{cells.column, res.column}, b, func(row int) error {
		r := res.value(row)
		if err := ValidateResolution(op, r); err != nil {
			return err
		}
		scratch = cells.value(row, scratch[:0])
		return appendCells(op, b, s.lib.Uncompact(scratch, int32(r)))
	})
}

// boundaryArgs holds the cell and the optional ring/segment arguments
// shared by the boundary operations.
type boundaryArgs struct {
	cell     cellArg
	closed   *boolArg
	segments *intArg
}

func newBoundaryArgs(op string, c call) (boundaryArgs, error) {
	cell, err := newCellArg(op, 0, c.args[0])
	if err != nil {
		return boundaryArgs{}, err
	}
	args := boundaryArgs{cell: cell}
	if c.has(1) {
		closed, err := newBoolArg(op, 1, c.args[1])
		if err != nil {
			return boundaryArgs{}, err
		}
		args.closed = &closed
	}
	if c.has(2) {
		segments, err := newIntArg(op, 2, c.args[2])
		if err != nil {
			return boundaryArgs{}, err
		}
		args.segments = &segments
	}
	return args, nil
}

func (a boundaryArgs) required() []column {
	cols := []column{a.cell.column}
	if a.closed != nil {
		cols = append(cols, a.closed.column)
	}
	if a.segments != nil {
		cols = append(cols, a.segments.column)
	}
	return cols
}

// options applies the documented defaults for omitted arguments: a
// closed ring and library-default segmentation.
func (a boundaryArgs) options(row int) a5.BoundaryOptions {
	opts := a5.DefaultBoundaryOptions()
	if a.closed != nil {
		opts.ClosedRing = a.closed.value(row)
	}
	if a.segments != nil {
		if seg := a.segments.value(row); seg > 0 && seg <= maxSegments {
			opts.Segments = int32(seg)
		} else if seg > maxSegments {
			opts.Segments = maxSegments
		}
	}
	return opts
}

// maxSegments caps edge interpolation so a single row cannot request an
// unbounded vertex count.
const maxSegments = 1 << 16
