package a5

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

type boundaryKey struct {
	cell Cell
	opts BoundaryOptions
}

// CachedLibrary memoizes the pure per-cell lookups of another Library.
// Foreign results are copied into Go memory and released on a miss;
// errors are never cached.
type CachedLibrary struct {
	Library

	lonlat   *lru.Cache[Cell, LonLat]
	boundary *lru.Cache[boundaryKey, []LonLat]
}

// NewCachedLibrary wraps lib with LRU caches holding up to size entries each.
func NewCachedLibrary(lib Library, size int) (*CachedLibrary, error) {
	if lib == nil {
		return nil, fmt.Errorf("a5: nil library")
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	ll, err := lru.New[Cell, LonLat](size)
	if err != nil {
		return nil, fmt.Errorf("a5: lonlat cache: %w", err)
	}
	b, err := lru.New[boundaryKey, []LonLat](size)
	if err != nil {
		return nil, fmt.Errorf("a5: boundary cache: %w", err)
	}
	return &CachedLibrary{Library: lib, lonlat: ll, boundary: b}, nil
}

func (c *CachedLibrary) CellToLonLat(cell Cell) (LonLat, ForeignError) {
	if v, ok := c.lonlat.Get(cell); ok {
		return v, nil
	}
	v, ferr := c.Library.CellToLonLat(cell)
	if ferr != nil {
		return v, ferr
	}
	c.lonlat.Add(cell, v)
	return v, nil
}

func (c *CachedLibrary) CellToBoundary(cell Cell, opts BoundaryOptions) LonLatArray {
	key := boundaryKey{cell: cell, opts: opts}
	if pts, ok := c.boundary.Get(key); ok {
		return goLonLatArray(pts)
	}
	arr := c.Library.CellToBoundary(cell, opts)
	if arr.Err() != nil {
		return arr
	}
	pts := append([]LonLat(nil), arr.Points()...)
	arr.Release()
	c.boundary.Add(key, pts)
	return goLonLatArray(pts)
}

// Len reports the number of cached entries across both caches.
func (c *CachedLibrary) Len() int {
	return c.lonlat.Len() + c.boundary.Len()
}

// goLonLatArray is a Go-owned LonLatArray; Release is a no-op.
type goLonLatArray []LonLat

func (a goLonLatArray) Points() []LonLat  { return a }
func (a goLonLatArray) Err() ForeignError { return nil }
func (a goLonLatArray) Release()          {}
