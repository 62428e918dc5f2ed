// Package a5 describes the boundary to the A5 pentagonal cell library.
//
// The library itself lives outside Go (see package ffi). Everything it
// allocates is handed back as an owned value that the caller must Release
// exactly once. Slices returned by Cells and Points are views into foreign
// memory and are only valid until Release.
package a5

import "errors"

// Cell is an A5 cell code. The value encodes resolution and the path
// through the subdivision hierarchy.
type Cell uint64

// NoCell is the reserved "no cell" code.
const NoCell Cell = 0

// MaxResolution is the finest resolution the library supports.
const MaxResolution = 30

// ErrUnavailable is returned when no native library is linked in.
var ErrUnavailable = errors.New("a5: native library is not available in this build")

// LonLat is a coordinate in degrees. No range normalization is applied.
type LonLat struct {
	Lon float64
	Lat float64
}

// BoundaryOptions controls boundary generation.
// Segments <= 0 selects the library default edge interpolation.
type BoundaryOptions struct {
	ClosedRing bool
	Segments   int32
}

// DefaultBoundaryOptions returns a closed ring with default segmentation.
func DefaultBoundaryOptions() BoundaryOptions {
	return BoundaryOptions{ClosedRing: true}
}

// ForeignError is a library-owned error message.
type ForeignError interface {
	Message() string
	// Release frees the message. Calling it more than once is a no-op.
	Release()
}

// CellArray is a library-owned buffer of cells plus an optional error.
type CellArray interface {
	// Cells is a view valid until Release. Nil when Err is set.
	Cells() []Cell
	Err() ForeignError
	// Release frees the buffer and the error string together.
	Release()
}

// LonLatArray is a library-owned buffer of coordinates plus an optional error.
type LonLatArray interface {
	Points() []LonLat
	Err() ForeignError
	Release()
}

// Library is the set of operations the adapter drives.
// Implementations must be safe for concurrent use.
type Library interface {
	CellArea(res int32) float64
	NumCells(res int32) uint64
	Resolution(cell Cell) int32

	LonLatToCell(lon, lat float64, res int32) (Cell, ForeignError)
	CellToParent(cell Cell, res int32) (Cell, ForeignError)
	CellToLonLat(cell Cell) (LonLat, ForeignError)

	// CellToChildren returns the children of cell at res. A negative res
	// requests the immediate children.
	CellToChildren(cell Cell, res int32) CellArray
	CellToBoundary(cell Cell, opts BoundaryOptions) LonLatArray
	Res0Cells() CellArray
	Compact(cells []Cell) CellArray
	Uncompact(cells []Cell, res int32) CellArray
}
