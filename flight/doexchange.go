package flight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/internal/recovery"
)

// Airport DoExchange headers.
const (
	HeaderOperation    = "airport-operation"
	HeaderFlightPath   = "airport-flight-path"
	HeaderReturnChunks = "return-chunks"

	operationScalarFunction = "scalar_function"
)

// DoExchange implements bidirectional streaming for scalar function execution.
// This is used by DuckDB Airport extension to evaluate a scalar function over
// batches of input rows.
//
// Protocol:
// - Client sends batches of input data via stream
// - Server executes the function on each batch
// - Server sends back one result batch per input batch
//
// The implementation uses a pipeline with 3 stages running concurrently:
// 1. Reader goroutine: Reads input records from client stream
// 2. Processor goroutine: Executes scalar function on input records
// 3. Writer goroutine: Sends output records back to client stream
//
// Headers:
// - airport-operation: "scalar_function"
// - airport-flight-path: "schema/function"
// - return-chunks: "1"
//
// Reference: https://airport.query.farm/scalar_functions.html
func (s *Server) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	// Extract metadata from gRPC headers
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Errorf(codes.InvalidArgument, "missing metadata")
	}

	operation := md.Get(HeaderOperation)
	if len(operation) == 0 {
		return status.Errorf(codes.InvalidArgument, "missing %s header", HeaderOperation)
	}
	opType := operation[0]

	returnChunks := md.Get(HeaderReturnChunks)
	returnData := len(returnChunks) > 0 && returnChunks[0] == "1"

	flightPath := md.Get(HeaderFlightPath)
	if len(flightPath) == 0 {
		return status.Errorf(codes.InvalidArgument, "missing %s in metadata", HeaderFlightPath)
	}

	// Parse the flight path (format: "schema/function")
	pathParts := strings.Split(flightPath[0], "/")
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return status.Errorf(codes.InvalidArgument, "invalid flight path format: %s", flightPath[0])
	}
	schemaName, functionName := pathParts[0], pathParts[1]

	s.logger.Debug("DoExchange requested",
		"operation", opType,
		"return_chunks", returnData,
		"schema", schemaName,
		"function", functionName,
		"session_id", SessionIDFromContext(ctx),
	)

	if opType != operationScalarFunction {
		return status.Errorf(codes.Unimplemented, "unsupported airport-operation: %s (only %s is served)", opType, operationScalarFunction)
	}
	if !returnData {
		return status.Errorf(codes.InvalidArgument, "missing or invalid return-chunks header for scalar_function")
	}
	return s.handleScalarFunction(ctx, stream, schemaName, functionName)
}

// handleScalarFunction processes scalar function execution via DoExchange.
func (s *Server) handleScalarFunction(ctx context.Context, stream flight.FlightService_DoExchangeServer, schemaName, functionName string) error {
	schema, err := s.catalog.Schema(ctx, schemaName)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return status.Errorf(codes.NotFound, "schema not found: %s", schemaName)
	}

	targetFunc, err := catalog.FindScalarFunction(ctx, schema, functionName)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to get scalar functions: %v", err)
	}
	if targetFunc == nil {
		return status.Errorf(codes.NotFound, "scalar function not found: %s.%s", schemaName, functionName)
	}

	returnType := targetFunc.Signature().ReturnType
	outputSchema := arrow.NewSchema([]arrow.Field{catalog.ResultField(returnType)}, nil)

	// read input schema message
	if _, err := stream.Recv(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return status.Errorf(codes.Internal, "failed to receive schema: %v", err)
	}

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.allocator))
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create record reader: %v", err)
	}

	s.logger.Debug("Input schema for scalar function",
		"function", functionName,
		"schema", reader.Schema(),
	)

	writer := NewSchemaWriter(stream, outputSchema, s.allocator)
	defer writer.Close()

	if err := writer.Begin(); err != nil {
		reader.Release()
		return status.Errorf(codes.Internal, "failed to send output schema: %v", err)
	}

	// Pipeline channels
	inputCh := make(chan arrow.RecordBatch, 1)
	processedCh := make(chan arrow.RecordBatch, 1)

	eg, egCtx := errgroup.WithContext(ctx)

	// Read data in a separate goroutine outside the errgroup so that a
	// processing error is sent to the client without waiting for the
	// client to finish streaming. The goroutine closes inputCh when done.
	go recovery.Recover(s.logger, "DoExchange reader", func() {
		defer close(inputCh)
		defer reader.Release()

		for reader.Next() {
			record := reader.RecordBatch()
			record.Retain() // Retain for passing to next stage

			select {
			case inputCh <- record:
			case <-egCtx.Done():
				record.Release()
				return
			}
		}
		if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			s.logger.Debug("Input stream ended with error",
				"function", functionName,
				"error", err,
			)
		}
	})

	// Process data
	eg.Go(func() error {
		defer close(processedCh)
		batchCount := 0
		for in := range inputCh {
			batchCount++
			inLen := in.NumRows()

			s.logger.Debug("Processing scalar function batch",
				"function", functionName,
				"batch", batchCount,
				"rows", inLen,
				"columns", in.NumCols(),
			)

			start := time.Now()
			res, err := recovery.RecoverToValue(s.logger, "scalar function "+functionName, func() (arrow.Array, error) {
				return targetFunc.Execute(egCtx, in)
			})
			in.Release()
			if err == nil {
				err = validateResult(res, inLen, returnType)
			}
			s.observer.ObserveBatch(functionName, inLen, time.Since(start), err)

			if err != nil {
				s.logger.ErrorContext(egCtx, "Function execution failed",
					"function", functionName,
					"batch", batchCount,
					"error", err,
				)
				return err
			}

			out := array.NewRecordBatch(outputSchema, []arrow.Array{res}, inLen)
			res.Release() // RecordBatch retains the array

			select {
			case processedCh <- out:
			case <-egCtx.Done():
				out.Release()
				return egCtx.Err()
			}
		}
		return nil
	})

	// Write data
	eg.Go(func() error {
		batchCount := 0
		for outputRecord := range processedCh {
			batchCount++
			err := writer.Write(outputRecord)
			outputRecord.Release()
			if err != nil {
				return fmt.Errorf("failed to write output batch: %w", err)
			}
		}
		s.logger.Debug("Writer completed", "function", functionName, "batches", batchCount)
		return nil
	})

	err = eg.Wait()

	// Release anything left in flight after a failed stage.
	for out := range processedCh {
		out.Release()
	}
	go func() {
		for in := range inputCh {
			in.Release()
		}
	}()

	if err != nil {
		s.logger.ErrorContext(ctx, "DoExchange pipeline failed",
			"function", functionName,
			"error", err,
		)
		return statusFromExecError(schemaName, functionName, err)
	}

	s.logger.Debug("DoExchange completed", "function", functionName)
	return nil
}

// validateResult checks that a function produced one value of the declared
// type per input row. res is released when it is rejected.
func validateResult(res arrow.Array, rows int64, returnType arrow.DataType) error {
	if res == nil {
		return errors.New("function returned nil array")
	}
	if int64(res.Len()) != rows {
		n := res.Len()
		res.Release()
		return fmt.Errorf("output rows must match input rows, expected %d got %d", rows, n)
	}
	if !arrow.TypeEqual(res.DataType(), returnType) {
		actual := res.DataType()
		res.Release()
		return fmt.Errorf("output array type mismatch: expected %s, got %s", returnType, actual)
	}
	return nil
}
