// Package recovery turns panics in catalog and A5 function code into
// errors so a single bad batch cannot take the Flight server down.
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrPanic is wrapped by every error produced from a recovered panic.
var ErrPanic = errors.New("panic")

// capture logs a recovered value with its stack and returns it as an error.
func capture(logger *slog.Logger, operation string, r any) error {
	logger.Error("Panic recovered",
		"operation", operation,
		"panic", r,
		"stack", string(debug.Stack()),
	)
	return fmt.Errorf("%s: %w: %v", operation, ErrPanic, r)
}

// RecoverToError runs fn and reports a panic as gRPC Internal.
// Use it around table scans served by DoGet.
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = status.Error(codes.Internal, capture(logger, operation, r).Error())
		}
	}()
	return fn()
}

// RecoverToValue runs fn and reports a panic as an error wrapping
// ErrPanic. The zero value is returned in that case.
//
//	res, err := recovery.RecoverToValue(logger, "scalar function a5_cell_area", func() (arrow.Array, error) {
//	    return fn.Execute(ctx, batch)
//	})
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = capture(logger, operation, r)
		}
	}()
	return fn()
}

// Recover runs fn and only logs a panic. Use it in goroutines that have
// no error path.
func Recover(logger *slog.Logger, operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			_ = capture(logger, operation, r)
		}
	}()
	fn()
}
