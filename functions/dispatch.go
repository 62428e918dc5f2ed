package functions

import (
	"context"
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/catalog"
)

// call is one batch invocation. Trailing optional arguments are present
// only when the caller supplied them.
type call struct {
	mem  memory.Allocator
	rows int
	args []arrow.Array
}

func (c call) has(i int) bool { return i < len(c.args) }

type execFunc func(ctx context.Context, c call) (arrow.Array, error)

// Function adapts one A5 operation to catalog.ScalarFunction. A single
// exec routine serves every arity; it reads optional arguments only when
// present in the batch.
type Function struct {
	name    string
	comment string
	op      string
	params  []arrow.DataType
	arities []int
	ret     arrow.DataType
	mem     memory.Allocator
	exec    execFunc
}

var (
	_ catalog.ScalarFunction     = (*Function)(nil)
	_ catalog.OverloadedFunction = (*Function)(nil)
)

func (f *Function) Name() string    { return f.name }
func (f *Function) Comment() string { return f.comment }

// Op is the operation name used in error messages.
func (f *Function) Op() string { return f.op }

// Signature returns the full-arity signature.
func (f *Function) Signature() catalog.FunctionSignature {
	return f.signature(f.arities[len(f.arities)-1])
}

// Signatures returns one signature per supported arity, shortest first.
func (f *Function) Signatures() []catalog.FunctionSignature {
	out := make([]catalog.FunctionSignature, 0, len(f.arities))
	for _, n := range f.arities {
		out = append(out, f.signature(n))
	}
	return out
}

func (f *Function) signature(arity int) catalog.FunctionSignature {
	return catalog.FunctionSignature{
		Parameters: f.params[:arity],
		ReturnType: f.ret,
	}
}

// Execute runs the operation over one batch. The arity is taken from the
// number of columns in input. Any error aborts the whole batch.
func (f *Function) Execute(ctx context.Context, input arrow.RecordBatch) (arrow.Array, error) {
	n := int(input.NumCols())
	if !slices.Contains(f.arities, n) {
		return nil, fmt.Errorf("%s: %w %d (expected one of %v)", f.op, ErrArity, n, f.arities)
	}
	return f.exec(ctx, call{
		mem:  f.mem,
		rows: int(input.NumRows()),
		args: input.Columns(),
	})
}
