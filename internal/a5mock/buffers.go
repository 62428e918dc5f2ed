package a5mock

import (
	"sync/atomic"

	"github.com/hugr-lab/airport-a5/a5"
)

// handle tracks one counted allocation.
type handle struct {
	lib      *Library
	released atomic.Bool
}

func (l *Library) newHandle() *handle {
	l.allocs.Add(1)
	return &handle{lib: l}
}

func (h *handle) release() {
	if h == nil {
		return
	}
	if !h.released.CompareAndSwap(false, true) {
		h.lib.doubleReleases.Add(1)
		return
	}
	h.lib.releases.Add(1)
}

type foreignError struct {
	h   *handle
	msg string
}

func (l *Library) newError(msg string) *foreignError {
	return &foreignError{h: l.newHandle(), msg: msg}
}

func (e *foreignError) Message() string { return e.msg }
func (e *foreignError) Release()        { e.h.release() }

// cellArray owns its data and error as a single allocation, matching the
// free_cell_array contract of the native library.
type cellArray struct {
	h     *handle
	cells []a5.Cell
	err   *foreignError
}

func (l *Library) newCells(cells []a5.Cell, err *foreignError) *cellArray {
	return &cellArray{h: l.newHandle(), cells: cells, err: err}
}

func (l *Library) cellError(msg string) *cellArray {
	var partial []a5.Cell
	if l.PartialOnError {
		partial = []a5.Cell{Encode(0, 0, nil)}
	}
	// The message travels inside the array; it is freed with it.
	return l.newCells(partial, &foreignError{msg: msg})
}

func (a *cellArray) Cells() []a5.Cell {
	if a.err != nil {
		return nil
	}
	return a.cells
}

func (a *cellArray) Err() a5.ForeignError {
	if a.err == nil {
		return nil
	}
	return a.err
}

func (a *cellArray) Release() { a.h.release() }

type lonLatArray struct {
	h      *handle
	points []a5.LonLat
	err    *foreignError
}

func (l *Library) newLonLats(points []a5.LonLat, err *foreignError) *lonLatArray {
	return &lonLatArray{h: l.newHandle(), points: points, err: err}
}

func (l *Library) lonLatError(msg string) *lonLatArray {
	var partial []a5.LonLat
	if l.PartialOnError {
		partial = []a5.LonLat{{}}
	}
	return l.newLonLats(partial, &foreignError{msg: msg})
}

func (a *lonLatArray) Points() []a5.LonLat {
	if a.err != nil {
		return nil
	}
	return a.points
}

func (a *lonLatArray) Err() a5.ForeignError {
	if a.err == nil {
		return nil
	}
	return a.err
}

func (a *lonLatArray) Release() { a.h.release() }
