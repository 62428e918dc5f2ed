package functions

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/airport-a5/a5"
)

// column is one input vector. Dictionary-encoded vectors are resolved
// through their indices, so callers always address logical rows.
type column struct {
	values arrow.Array
	dict   *array.Dictionary
}

func newColumn(a arrow.Array) column {
	if d, ok := a.(*array.Dictionary); ok {
		return column{values: d.Dictionary(), dict: d}
	}
	return column{values: a}
}

// physical maps a logical row to its slot in values.
func (c column) physical(row int) int {
	if c.dict != nil {
		return c.dict.GetValueIndex(row)
	}
	return row
}

func (c column) isNull(row int) bool {
	if c.dict != nil {
		if c.dict.IsNull(row) {
			return true
		}
		return c.values.IsNull(c.dict.GetValueIndex(row))
	}
	return c.values.IsNull(row)
}

// constant reports whether every row of the vector resolves to the same
// slot: a one-entry dictionary with no null indices, or a one-row vector.
func (c column) constant() bool {
	if c.dict != nil {
		return c.values.Len() == 1 && c.dict.NullN() == 0
	}
	return c.values.Len() == 1
}

func anyNull(cols []column, row int) bool {
	for _, c := range cols {
		if c.isNull(row) {
			return true
		}
	}
	return false
}

func allConstant(cols []column) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if !c.constant() {
			return false
		}
	}
	return true
}

// intArg reads any integer vector widened to int64. Unsigned values above
// math.MaxInt64 saturate so they still fail range checks.
type intArg struct {
	column
	get func(int) int64
}

func newIntArg(op string, idx int, a arrow.Array) (intArg, error) {
	c := newColumn(a)
	var get func(int) int64
	switch v := c.values.(type) {
	case *array.Int8:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Int16:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Int32:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Int64:
		get = v.Value
	case *array.Uint8:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Uint16:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Uint32:
		get = func(i int) int64 { return int64(v.Value(i)) }
	case *array.Uint64:
		get = func(i int) int64 {
			if x := v.Value(i); x <= math.MaxInt64 {
				return int64(x)
			}
			return math.MaxInt64
		}
	default:
		return intArg{}, unsupportedType(op, idx, a.DataType())
	}
	return intArg{column: c, get: get}, nil
}

func (a intArg) value(row int) int64 { return a.get(a.physical(row)) }

// cellArg reads cell codes. Signed 64-bit input is reinterpreted bit for bit.
type cellArg struct {
	column
	get func(int) a5.Cell
}

func newCellArg(op string, idx int, a arrow.Array) (cellArg, error) {
	c := newColumn(a)
	var get func(int) a5.Cell
	switch v := c.values.(type) {
	case *array.Uint64:
		get = func(i int) a5.Cell { return a5.Cell(v.Value(i)) }
	case *array.Int64:
		get = func(i int) a5.Cell { return a5.Cell(uint64(v.Value(i))) }
	default:
		return cellArg{}, unsupportedType(op, idx, a.DataType())
	}
	return cellArg{column: c, get: get}, nil
}

func (a cellArg) value(row int) a5.Cell { return a.get(a.physical(row)) }

type floatArg struct {
	column
	get func(int) float64
}

func newFloatArg(op string, idx int, a arrow.Array) (floatArg, error) {
	c := newColumn(a)
	var get func(int) float64
	switch v := c.values.(type) {
	case *array.Float64:
		get = v.Value
	case *array.Float32:
		get = func(i int) float64 { return float64(v.Value(i)) }
	default:
		return floatArg{}, unsupportedType(op, idx, a.DataType())
	}
	return floatArg{column: c, get: get}, nil
}

func (a floatArg) value(row int) float64 { return a.get(a.physical(row)) }

type boolArg struct {
	column
	get func(int) bool
}

func newBoolArg(op string, idx int, a arrow.Array) (boolArg, error) {
	c := newColumn(a)
	v, ok := c.values.(*array.Boolean)
	if !ok {
		return boolArg{}, unsupportedType(op, idx, a.DataType())
	}
	return boolArg{column: c, get: v.Value}, nil
}

func (a boolArg) value(row int) bool { return a.get(a.physical(row)) }

// cellListArg reads list<uint64> (or list<int64>) vectors. Null elements
// inside a list are skipped.
type cellListArg struct {
	column
	list  array.ListLike
	items cellArg
}

func newCellListArg(op string, idx int, a arrow.Array) (cellListArg, error) {
	c := newColumn(a)
	list, ok := c.values.(array.ListLike)
	if !ok {
		return cellListArg{}, unsupportedType(op, idx, a.DataType())
	}
	items, err := newCellArg(op, idx, list.ListValues())
	if err != nil {
		return cellListArg{}, err
	}
	return cellListArg{column: c, list: list, items: items}, nil
}

// value appends the cells of row to buf and returns it.
func (a cellListArg) value(row int, buf []a5.Cell) []a5.Cell {
	start, end := a.list.ValueOffsets(a.physical(row))
	for i := int(start); i < int(end); i++ {
		if a.items.isNull(i) {
			continue
		}
		buf = append(buf, a.items.value(i))
	}
	return buf
}

// totalLen is the number of child elements the vector references; it is
// the reservation hint for compact and uncompact.
func (a cellListArg) totalLen() int {
	return a.list.ListValues().Len()
}
