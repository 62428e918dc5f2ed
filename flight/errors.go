package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airport-a5/catalog"
)

// statusFromExecError converts a scalar function pipeline error into the
// gRPC status returned to the client. Invalid argument errors keep their
// message unchanged so the client sees the library's own text.
func statusFromExecError(schemaName, functionName string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, catalog.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Errorf(codes.Internal, "scalar function `%s.%s` execution failed: %v", schemaName, functionName, err)
	}
}
