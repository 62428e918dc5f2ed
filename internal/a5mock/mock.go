// Package a5mock provides a deterministic stand-in for the A5 library.
//
// The geometry is a plain quadtree over twelve lon/lat faces, which keeps
// the hierarchy rules (4 children per level, 12 base cells, compaction of
// complete sibling sets) without any real projection math. Every buffer and
// error string it hands out is counted so tests can assert that each one is
// released exactly once.
package a5mock

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hugr-lab/airport-a5/a5"
)

const (
	resShift  = 59
	faceShift = 55
	pathBits  = 55
	// MaxDepth is the deepest level the mock encodes a path for. Cells at
	// resolutions 28..30 keep their resolution but share the depth-27 path.
	MaxDepth = 27

	numFaces      = 12
	earthRadiusM  = 6371007.2
	maxChildSpan  = 8
	faceLonDegree = 60.0
	faceLatDegree = 90.0
)

// Library is a counting a5.Library.
type Library struct {
	mu    sync.RWMutex
	fails map[a5.Cell]string

	// PartialOnError makes failing array calls return a partially
	// populated buffer along with the error.
	PartialOnError bool

	allocs         atomic.Int64
	releases       atomic.Int64
	doubleReleases atomic.Int64

	callsMu sync.Mutex
	calls   map[string]int
}

// New returns an empty mock library.
func New() *Library {
	return &Library{
		fails: make(map[a5.Cell]string),
		calls: make(map[string]int),
	}
}

// FailCell makes every operation that receives cell report msg as a
// foreign error.
func (l *Library) FailCell(cell a5.Cell, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails[cell] = msg
}

// Outstanding is the number of foreign allocations not yet released.
func (l *Library) Outstanding() int64 {
	return l.allocs.Load() - l.releases.Load()
}

// Allocations is the total number of foreign allocations handed out.
func (l *Library) Allocations() int64 { return l.allocs.Load() }

// DoubleReleases counts Release calls on already released values.
func (l *Library) DoubleReleases() int64 { return l.doubleReleases.Load() }

// Calls reports how many times op was invoked.
func (l *Library) Calls(op string) int {
	l.callsMu.Lock()
	defer l.callsMu.Unlock()
	return l.calls[op]
}

// TotalCalls reports the number of invocations across all operations.
func (l *Library) TotalCalls() int {
	l.callsMu.Lock()
	defer l.callsMu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

func (l *Library) record(op string) {
	l.callsMu.Lock()
	l.calls[op]++
	l.callsMu.Unlock()
}

func (l *Library) failure(cells ...a5.Cell) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range cells {
		if msg, ok := l.fails[c]; ok {
			return msg, true
		}
	}
	return "", false
}

// Encode builds a cell code from a face (0..11), a resolution and the
// quadtree digits of its path. Digits beyond MaxDepth are ignored.
func Encode(face int, res int32, digits []uint8) a5.Cell {
	c := uint64(res)<<resShift | uint64(face+1)<<faceShift
	for i, d := range digits {
		if i >= MaxDepth {
			break
		}
		c |= uint64(d&3) << (pathBits - 2*(i+1))
	}
	return a5.Cell(c)
}

func decode(c a5.Cell) (face int, res int32, digits []uint8, err error) {
	v := uint64(c)
	res = int32(v >> resShift)
	face = int((v>>faceShift)&0xF) - 1
	if face < 0 || face >= numFaces {
		return 0, 0, nil, fmt.Errorf("invalid cell %d", uint64(c))
	}
	depth := depthOf(res)
	digits = make([]uint8, depth)
	for i := 0; i < depth; i++ {
		digits[i] = uint8(v>>(pathBits-2*(i+1))) & 3
	}
	if rest := v & (1<<(pathBits-2*depth) - 1); rest != 0 {
		return 0, 0, nil, fmt.Errorf("invalid cell %d", uint64(c))
	}
	return face, res, digits, nil
}

func depthOf(res int32) int {
	if int(res) > MaxDepth {
		return MaxDepth
	}
	return int(res)
}

func (l *Library) CellArea(res int32) float64 {
	l.record("cell_area")
	return 4 * math.Pi * earthRadiusM * earthRadiusM / float64(l.numCells(res))
}

func (l *Library) NumCells(res int32) uint64 {
	l.record("num_cells")
	return l.numCells(res)
}

func (l *Library) numCells(res int32) uint64 {
	return numFaces << (2 * uint64(res))
}

func (l *Library) Resolution(cell a5.Cell) int32 {
	l.record("get_resolution")
	return int32(uint64(cell) >> resShift)
}

func (l *Library) LonLatToCell(lon, lat float64, res int32) (a5.Cell, a5.ForeignError) {
	l.record("lonlat_to_cell")
	if math.IsNaN(lon) || math.IsNaN(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return 0, l.newError(fmt.Sprintf("invalid coordinate (%g, %g)", lon, lat))
	}
	if res < 0 || res > a5.MaxResolution {
		return 0, l.newError(fmt.Sprintf("invalid resolution %d", res))
	}
	band := int((lon + 180) / faceLonDegree)
	if band > 5 {
		band = 5
	}
	hemi, lat0 := 0, 0.0
	if lat < 0 {
		hemi, lat0 = 1, -faceLatDegree
	}
	u := (lon + 180 - float64(band)*faceLonDegree) / faceLonDegree
	v := (lat - lat0) / faceLatDegree
	depth := depthOf(res)
	digits := make([]uint8, depth)
	for i := range digits {
		u, v = u*2, v*2
		bx, by := math.Min(math.Floor(u), 1), math.Min(math.Floor(v), 1)
		digits[i] = uint8(by)*2 + uint8(bx)
		u, v = u-bx, v-by
	}
	cell := Encode(band*2+hemi, res, digits)
	if msg, ok := l.failure(cell); ok {
		return 0, l.newError(msg)
	}
	return cell, nil
}

func (l *Library) CellToParent(cell a5.Cell, res int32) (a5.Cell, a5.ForeignError) {
	l.record("cell_to_parent")
	if msg, ok := l.failure(cell); ok {
		return 0, l.newError(msg)
	}
	face, cellRes, digits, err := decode(cell)
	if err != nil {
		return 0, l.newError(err.Error())
	}
	if res < 0 || res >= cellRes {
		return 0, l.newError(fmt.Sprintf("parent resolution %d must be coarser than cell resolution %d", res, cellRes))
	}
	return Encode(face, res, digits[:depthOf(res)]), nil
}

func (l *Library) CellToLonLat(cell a5.Cell) (a5.LonLat, a5.ForeignError) {
	l.record("cell_to_lonlat")
	if msg, ok := l.failure(cell); ok {
		return a5.LonLat{}, l.newError(msg)
	}
	face, _, digits, err := decode(cell)
	if err != nil {
		return a5.LonLat{}, l.newError(err.Error())
	}
	minLon, minLat, size := box(face, digits)
	return a5.LonLat{Lon: minLon + size*faceLonDegree/2, Lat: minLat + size*faceLatDegree/2}, nil
}

// box returns the south-west corner of the cell and its size as a
// fraction of the face.
func box(face int, digits []uint8) (lon, lat, size float64) {
	lon = float64(face/2)*faceLonDegree - 180
	if face%2 == 1 {
		lat = -faceLatDegree
	}
	size = 1
	for _, d := range digits {
		size /= 2
		lon += float64(d&1) * size * faceLonDegree
		lat += float64(d>>1) * size * faceLatDegree
	}
	return lon, lat, size
}

func (l *Library) CellToChildren(cell a5.Cell, res int32) a5.CellArray {
	l.record("cell_to_children")
	if msg, ok := l.failure(cell); ok {
		return l.cellError(msg)
	}
	face, cellRes, digits, err := decode(cell)
	if err != nil {
		return l.cellError(err.Error())
	}
	if res < 0 {
		res = cellRes + 1
	}
	switch {
	case res < cellRes:
		return l.cellError(fmt.Sprintf("child resolution %d is coarser than cell resolution %d", res, cellRes))
	case int(res) > MaxDepth:
		return l.cellError(fmt.Sprintf("child resolution %d exceeds supported depth %d", res, MaxDepth))
	case res-cellRes > maxChildSpan:
		return l.cellError(fmt.Sprintf("too many children between resolutions %d and %d", cellRes, res))
	}
	return l.newCells(expand(face, res, digits), nil)
}

func expand(face int, res int32, prefix []uint8) []a5.Cell {
	n := int(res) - len(prefix)
	out := make([]a5.Cell, 0, 1<<(2*n))
	digits := append(make([]uint8, 0, res), prefix...)
	var walk func(depth int)
	walk = func(depth int) {
		if depth == n {
			out = append(out, Encode(face, res, digits))
			return
		}
		for d := uint8(0); d < 4; d++ {
			digits = append(digits, d)
			walk(depth + 1)
			digits = digits[:len(digits)-1]
		}
	}
	walk(0)
	return out
}

func (l *Library) CellToBoundary(cell a5.Cell, opts a5.BoundaryOptions) a5.LonLatArray {
	l.record("cell_to_boundary")
	if msg, ok := l.failure(cell); ok {
		return l.lonLatError(msg)
	}
	face, _, digits, err := decode(cell)
	if err != nil {
		return l.lonLatError(err.Error())
	}
	minLon, minLat, size := box(face, digits)
	cLon, cLat := minLon+size*faceLonDegree/2, minLat+size*faceLatDegree/2
	rLon, rLat := size*faceLonDegree/2, size*faceLatDegree/2

	var corners [5]a5.LonLat
	for i := range corners {
		a := math.Pi/2 + 2*math.Pi*float64(i)/5
		corners[i] = a5.LonLat{Lon: cLon + rLon*math.Cos(a), Lat: cLat + rLat*math.Sin(a)}
	}
	segments := int(opts.Segments)
	if segments <= 0 {
		segments = 1
	}
	pts := make([]a5.LonLat, 0, 5*segments+1)
	for i := range corners {
		from, to := corners[i], corners[(i+1)%5]
		for s := 0; s < segments; s++ {
			t := float64(s) / float64(segments)
			pts = append(pts, a5.LonLat{
				Lon: from.Lon + (to.Lon-from.Lon)*t,
				Lat: from.Lat + (to.Lat-from.Lat)*t,
			})
		}
	}
	if opts.ClosedRing {
		pts = append(pts, pts[0])
	}
	return l.newLonLats(pts, nil)
}

func (l *Library) Res0Cells() a5.CellArray {
	l.record("get_res0_cells")
	cells := make([]a5.Cell, numFaces)
	for f := range cells {
		cells[f] = Encode(f, 0, nil)
	}
	return l.newCells(cells, nil)
}

func (l *Library) Compact(cells []a5.Cell) a5.CellArray {
	l.record("compact")
	if msg, ok := l.failure(cells...); ok {
		return l.cellError(msg)
	}
	set := make(map[a5.Cell]struct{}, len(cells))
	for _, c := range cells {
		_, res, _, err := decode(c)
		if err != nil {
			return l.cellError(err.Error())
		}
		if int(res) > MaxDepth {
			return l.cellError(fmt.Sprintf("cannot compact cells finer than resolution %d", MaxDepth))
		}
		set[c] = struct{}{}
	}
	for {
		groups := make(map[a5.Cell][]a5.Cell)
		for c := range set {
			face, res, digits, _ := decode(c)
			if res == 0 {
				continue
			}
			parent := Encode(face, res-1, digits[:res-1])
			groups[parent] = append(groups[parent], c)
		}
		merged := false
		for parent, children := range groups {
			if len(children) != 4 {
				continue
			}
			for _, c := range children {
				delete(set, c)
			}
			set[parent] = struct{}{}
			merged = true
		}
		if !merged {
			break
		}
	}
	return l.newCells(sortedCells(set), nil)
}

func (l *Library) Uncompact(cells []a5.Cell, res int32) a5.CellArray {
	l.record("uncompact")
	if msg, ok := l.failure(cells...); ok {
		return l.cellError(msg)
	}
	if int(res) > MaxDepth {
		return l.cellError(fmt.Sprintf("target resolution %d exceeds supported depth %d", res, MaxDepth))
	}
	set := make(map[a5.Cell]struct{})
	for _, c := range cells {
		face, cellRes, digits, err := decode(c)
		if err != nil {
			return l.cellError(err.Error())
		}
		if cellRes > res {
			return l.cellError(fmt.Sprintf("cell resolution %d is finer than target resolution %d", cellRes, res))
		}
		if res-cellRes > maxChildSpan {
			return l.cellError(fmt.Sprintf("too many cells between resolutions %d and %d", cellRes, res))
		}
		for _, child := range expand(face, res, digits) {
			set[child] = struct{}{}
		}
	}
	return l.newCells(sortedCells(set), nil)
}

func sortedCells(set map[a5.Cell]struct{}) []a5.Cell {
	out := make([]a5.Cell, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
