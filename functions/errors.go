package functions

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/airport-a5/a5"
	"github.com/hugr-lab/airport-a5/catalog"
)

var (
	// ErrInvalidArgument is matched by every error raised for bad input
	// values, including errors reported by the A5 library.
	ErrInvalidArgument = catalog.ErrInvalidArgument

	// ErrUnsupportedType is returned when an input column has a physical
	// type the function cannot read.
	ErrUnsupportedType = errors.New("unsupported input type")

	// ErrArity is returned when a batch carries an argument count the
	// function was not registered with.
	ErrArity = errors.New("unsupported argument count")
)

// InvalidArgumentError is the query-level failure for one operation.
// Its message is surfaced verbatim to the client.
type InvalidArgumentError struct {
	Op  string
	Msg string
	// Foreign is set when the message came from the A5 library.
	Foreign bool
}

func (e *InvalidArgumentError) Error() string {
	return e.Op + ": " + e.Msg
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArgument(op, msg string) error {
	return &InvalidArgumentError{Op: op, Msg: msg}
}

// foreignScalarError copies the message out of ferr, releases it and
// returns the translated error.
func foreignScalarError(op string, ferr a5.ForeignError) error {
	msg := ferr.Message()
	ferr.Release()
	return &InvalidArgumentError{Op: op, Msg: msg, Foreign: true}
}

// errorOf returns the translated error carried by a foreign array, or nil.
// It does not release the array; the owning guard does that.
func errorOf(op string, ferr a5.ForeignError) error {
	if ferr == nil {
		return nil
	}
	return &InvalidArgumentError{Op: op, Msg: ferr.Message(), Foreign: true}
}

// IsForeign reports whether err carries an error raised by the A5 library.
func IsForeign(err error) bool {
	var iae *InvalidArgumentError
	return errors.As(err, &iae) && iae.Foreign
}

func unsupportedType(op string, arg int, dt fmt.Stringer) error {
	return fmt.Errorf("%s: argument %d: %w %s", op, arg+1, ErrUnsupportedType, dt)
}
