package catalog

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
)

// ErrInvalidArgument marks a function failure caused by the input values.
// The Flight server reports such errors with code InvalidArgument and the
// error message unchanged.
var ErrInvalidArgument = errors.New("invalid argument")

// ScalarFunction represents a vectorized scalar function callable from
// DuckDB queries via the Airport extension.
// Implementations MUST be goroutine-safe.
type ScalarFunction interface {
	// Name returns the function name as seen from SQL.
	Name() string

	// Comment returns optional function documentation.
	Comment() string

	// Signature returns the full signature of the function.
	Signature() FunctionSignature

	// Execute runs the function over one input batch and returns exactly
	// one output value per input row. The input columns follow the
	// parameter order of one of the function signatures.
	// Caller MUST call Release on the result.
	// A returned error aborts the whole batch; no partial result is
	// returned alongside it.
	Execute(ctx context.Context, input arrow.RecordBatch) (arrow.Array, error)
}

// OverloadedFunction is implemented by scalar functions with trailing
// optional parameters. Each signature is advertised to clients as its own
// overload.
type OverloadedFunction interface {
	ScalarFunction

	// Signatures returns every supported signature, shortest first.
	Signatures() []FunctionSignature
}

// Signatures returns the advertised signatures of fn.
func Signatures(fn ScalarFunction) []FunctionSignature {
	if o, ok := fn.(OverloadedFunction); ok {
		return o.Signatures()
	}
	return []FunctionSignature{fn.Signature()}
}
