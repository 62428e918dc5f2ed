//go:build cgo && a5ffi

// Package ffi binds the native a5geo library.
//
// Build with -tags a5ffi and make liba5geo discoverable to the linker,
// for example with CGO_LDFLAGS=-L/path/to/native/a5geo/target/release.
package ffi

/*
#cgo CFLAGS: -I${SRCDIR}/../../native/a5geo/include
#cgo LDFLAGS: -la5geo
#include <stdlib.h>
#include "a5geo.h"
*/
import "C"

import (
	"sync/atomic"
	"unsafe"

	"github.com/hugr-lab/airport-a5/a5"
)

// Library calls into liba5geo. It holds no state and is safe for
// concurrent use.
type Library struct{}

var _ a5.Library = (*Library)(nil)

// New returns the native library.
func New() (*Library, error) {
	return &Library{}, nil
}

type foreignError struct {
	msg      *C.char
	released atomic.Bool
}

// newError wraps a C error string. A nil pointer means no error.
func newError(msg *C.char) a5.ForeignError {
	if msg == nil {
		return nil
	}
	return &foreignError{msg: msg}
}

func (e *foreignError) Message() string {
	if e.released.Load() {
		return ""
	}
	return C.GoString(e.msg)
}

func (e *foreignError) Release() {
	if e.released.CompareAndSwap(false, true) {
		C.a5geo_free_string(e.msg)
	}
}

// errorView exposes the error string of an array without owning it. The
// string is freed by the array's Release.
type errorView struct {
	msg *C.char
	arr interface{ isReleased() bool }
}

func (e errorView) Message() string {
	if e.arr.isReleased() {
		return ""
	}
	return C.GoString(e.msg)
}

func (errorView) Release() {}

type cellArray struct {
	c        C.A5CellArray
	released atomic.Bool
}

func (a *cellArray) isReleased() bool { return a.released.Load() }

func (a *cellArray) Cells() []a5.Cell {
	if a.c.error != nil || a.c.data == nil || a.isReleased() {
		return nil
	}
	return unsafe.Slice((*a5.Cell)(unsafe.Pointer(a.c.data)), int(a.c.len))
}

func (a *cellArray) Err() a5.ForeignError {
	if a.c.error == nil {
		return nil
	}
	return errorView{msg: a.c.error, arr: a}
}

func (a *cellArray) Release() {
	if a.released.CompareAndSwap(false, true) {
		C.a5geo_free_cell_array(a.c)
	}
}

type lonLatArray struct {
	c        C.A5LonLatArray
	released atomic.Bool
}

func (a *lonLatArray) isReleased() bool { return a.released.Load() }

func (a *lonLatArray) Points() []a5.LonLat {
	if a.c.error != nil || a.c.data == nil || a.isReleased() {
		return nil
	}
	return unsafe.Slice((*a5.LonLat)(unsafe.Pointer(a.c.data)), int(a.c.len))
}

func (a *lonLatArray) Err() a5.ForeignError {
	if a.c.error == nil {
		return nil
	}
	return errorView{msg: a.c.error, arr: a}
}

func (a *lonLatArray) Release() {
	if a.released.CompareAndSwap(false, true) {
		C.a5geo_free_lonlat_array(a.c)
	}
}

func (*Library) CellArea(res int32) float64 {
	return float64(C.a5geo_cell_area(C.int32_t(res)))
}

func (*Library) NumCells(res int32) uint64 {
	return uint64(C.a5geo_get_num_cells(C.int32_t(res)))
}

func (*Library) Resolution(cell a5.Cell) int32 {
	return int32(C.a5geo_get_resolution(C.uint64_t(cell)))
}

func (*Library) LonLatToCell(lon, lat float64, res int32) (a5.Cell, a5.ForeignError) {
	r := C.a5geo_lon_lat_to_cell(C.double(lon), C.double(lat), C.int32_t(res))
	return a5.Cell(r.value), newError(r.error)
}

func (*Library) CellToParent(cell a5.Cell, res int32) (a5.Cell, a5.ForeignError) {
	r := C.a5geo_cell_to_parent(C.uint64_t(cell), C.int32_t(res))
	return a5.Cell(r.value), newError(r.error)
}

func (*Library) CellToLonLat(cell a5.Cell) (a5.LonLat, a5.ForeignError) {
	r := C.a5geo_cell_to_lon_lat(C.uint64_t(cell))
	return a5.LonLat{Lon: float64(r.longitude), Lat: float64(r.latitude)}, newError(r.error)
}

func (*Library) CellToChildren(cell a5.Cell, res int32) a5.CellArray {
	return &cellArray{c: C.a5geo_cell_to_children(C.uint64_t(cell), C.int32_t(res))}
}

func (*Library) CellToBoundary(cell a5.Cell, opts a5.BoundaryOptions) a5.LonLatArray {
	return &lonLatArray{c: C.a5geo_cell_to_boundary_opts(C.uint64_t(cell), C.bool(opts.ClosedRing), C.int32_t(opts.Segments))}
}

func (*Library) Res0Cells() a5.CellArray {
	return &cellArray{c: C.a5geo_get_res0_cells()}
}

func (*Library) Compact(cells []a5.Cell) a5.CellArray {
	ptr, n := copyCells(cells)
	defer C.free(unsafe.Pointer(ptr))
	return &cellArray{c: C.a5geo_compact(ptr, n)}
}

func (*Library) Uncompact(cells []a5.Cell, res int32) a5.CellArray {
	ptr, n := copyCells(cells)
	defer C.free(unsafe.Pointer(ptr))
	return &cellArray{c: C.a5geo_uncompact(ptr, n, C.int32_t(res))}
}

// copyCells copies cells into C memory. The caller frees the result.
func copyCells(cells []a5.Cell) (*C.uint64_t, C.size_t) {
	if len(cells) == 0 {
		return nil, 0
	}
	size := C.size_t(len(cells)) * C.size_t(unsafe.Sizeof(C.uint64_t(0)))
	ptr := (*C.uint64_t)(C.malloc(size))
	copy(unsafe.Slice((*a5.Cell)(unsafe.Pointer(ptr)), len(cells)), cells)
	return ptr, C.size_t(len(cells))
}
