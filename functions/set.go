// Package functions adapts the A5 cell-index library to vectorized scalar
// functions over Arrow batches.
//
// Each function reads its arguments column by column, calls the library
// once per non-null row and writes one output value per row. Foreign
// result buffers are released on every path and the first error aborts
// the batch.
package functions

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/catalog"
)

// Set is the registered collection of A5 functions bound to one library.
type Set struct {
	lib   a5.Library
	mem   memory.Allocator
	funcs []*Function
}

// Option configures a Set.
type Option func(*Set)

// WithAllocator sets the allocator used for output vectors.
func WithAllocator(mem memory.Allocator) Option {
	return func(s *Set) {
		if mem != nil {
			s.mem = mem
		}
	}
}

// New registers every A5 function against lib.
func New(lib a5.Library, opts ...Option) *Set {
	s := &Set{lib: lib, mem: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(s)
	}

	res := []arrow.DataType{ResolutionType}
	cell := []arrow.DataType{CellType}
	boundary := []arrow.DataType{CellType, arrow.FixedWidthTypes.Boolean, ResolutionType}

	s.add("a5_cell_area", "Average area in square metres of a cell at the given resolution",
		"cell_area", res, arrow.PrimitiveTypes.Float64, s.cellArea, 1)
	s.add("a5_get_num_cells", "Number of cells at the given resolution",
		"num_cells", res, arrow.PrimitiveTypes.Uint64, s.numCells, 1)
	s.add("a5_get_resolution", "Resolution of a cell",
		"get_resolution", cell, arrow.PrimitiveTypes.Int32, s.getResolution, 1)
	s.add("a5_lonlat_to_cell", "Cell containing a longitude/latitude at the given resolution",
		"lonlat_to_cell", []arrow.DataType{CoordType, CoordType, ResolutionType}, CellType, s.lonLatToCell, 3)
	s.add("a5_cell_to_parent", "Ancestor of a cell at a coarser resolution",
		"cell_to_parent", []arrow.DataType{CellType, ResolutionType}, CellType, s.cellToParent, 2)
	s.add("a5_cell_to_lonlat", "Center of a cell as [lon, lat]",
		"cell_to_lonlat", cell, LonLatType, s.cellToLonLat, 1)
	s.add("a5_cell_to_children", "Descendants of a cell; immediate children when the resolution is omitted or negative",
		"cell_to_children", []arrow.DataType{CellType, ResolutionType}, CellListType, s.cellToChildren, 1, 2)
	s.add("a5_cell_to_boundary", "Boundary vertices of a cell as [lon, lat] pairs",
		"cell_to_boundary", boundary, BoundaryType, s.cellToBoundary, 1, 2, 3)
	s.add("a5_get_res0_cells", "The twelve resolution 0 cells",
		"get_res0_cells", nil, CellListType, s.res0Cells, 0)
	s.add("a5_compact", "Replace complete sibling sets by their parent",
		"compact", []arrow.DataType{CellListType}, CellListType, s.compact, 1)
	s.add("a5_uncompact", "Expand cells to the given resolution",
		"uncompact", []arrow.DataType{CellListType, ResolutionType}, CellListType, s.uncompact, 2)
	s.add("a5_cell_to_boundary_wkb", "Boundary of a cell as a WKB polygon",
		"cell_to_boundary_wkb", boundary, GeometryType, s.cellToBoundaryWKB, 1, 2, 3)
	return s
}

func (s *Set) add(name, comment, op string, params []arrow.DataType, ret arrow.DataType, exec execFunc, arities ...int) {
	s.funcs = append(s.funcs, &Function{
		name:    name,
		comment: comment,
		op:      op,
		params:  params,
		arities: arities,
		ret:     ret,
		mem:     s.mem,
		exec:    exec,
	})
}

// Functions returns the registered functions in registration order.
func (s *Set) Functions() []catalog.ScalarFunction {
	out := make([]catalog.ScalarFunction, len(s.funcs))
	for i, f := range s.funcs {
		out[i] = f
	}
	return out
}

// Lookup returns the function registered under name, or nil.
func (s *Set) Lookup(name string) *Function {
	for _, f := range s.funcs {
		if f.name == name {
			return f
		}
	}
	return nil
}
