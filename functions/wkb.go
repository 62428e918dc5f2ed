package functions

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/catalog"
)

// GeometryType is the result type of cell_to_boundary_wkb.
var GeometryType = catalog.NewGeometryExtensionType()

// cellToBoundaryWKB encodes each cell boundary as a closed WKB polygon.
// Cell 0 has no boundary and yields null.
func (s *Set) cellToBoundaryWKB(ctx context.Context, c call) (arrow.Array, error) {
	const op = "cell_to_boundary_wkb"
	args, err := newBoundaryArgs(op, c)
	if err != nil {
		return nil, err
	}
	storage, err := runScalar(ctx, c.rows, args.required(), array.NewBinaryBuilder(c.mem, arrow.BinaryTypes.Binary), func(row int) ([]byte, bool, error) {
		cell := args.cell.value(row)
		if cell == a5.NoCell {
			return nil, false, nil
		}
		opts := args.options(row)
		opts.ClosedRing = true
		ring, err := boundaryRing(op, s.lib.CellToBoundary(cell, opts))
		if err != nil {
			return nil, false, err
		}
		if len(ring) == 0 {
			return nil, false, nil
		}
		wkb, err := catalog.EncodeGeometry(orb.Polygon{ring})
		if err != nil {
			return nil, false, invalidArgument(op, err.Error())
		}
		return wkb, true, nil
	})
	if err != nil {
		return nil, err
	}
	defer storage.Release()
	return array.NewExtensionArrayWithStorage(GeometryType, storage), nil
}

// boundaryRing copies a foreign boundary into a closed orb.Ring and
// releases the buffer.
func boundaryRing(op string, arr a5.LonLatArray) (orb.Ring, error) {
	g := owned{r: arr}
	defer g.release()
	if err := errorOf(op, arr.Err()); err != nil {
		return nil, err
	}
	pts := arr.Points()
	if len(pts) == 0 {
		return nil, nil
	}
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p.Lon, p.Lat})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring, nil
}
