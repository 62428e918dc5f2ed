package flight

import (
	"context"
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/internal/recovery"
)

// DoGet streams Arrow record batches for a table query.
//
// The ticket must be encoded using EncodeTicket. The handler:
//  1. Decodes the ticket to get schema/table names
//  2. Looks up the table in the catalog
//  3. Calls the table's Scan function to get RecordReader
//  4. Validates the RecordReader schema matches the projected table schema
//  5. Streams record batches using Arrow IPC format
//  6. Respects context cancellation
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	ticketData, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		s.logger.Error("Failed to decode ticket", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}

	table, err := s.lookupTable(ctx, ticketData.Schema, ticketData.Table)
	if err != nil {
		return err
	}

	reader, err := s.executeTableScan(ctx, table, ticketData)
	if err != nil {
		return err
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(reader.Schema()), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	batchCount := 0
	totalRows := int64(0)
	for reader.Next() {
		if ctx.Err() != nil {
			s.logger.Debug("DoGet cancelled by client",
				"schema", ticketData.Schema,
				"table", ticketData.Table,
				"batches_sent", batchCount,
			)
			return status.Error(codes.Canceled, "request cancelled")
		}

		record := reader.RecordBatch()
		batchCount++
		totalRows += record.NumRows()

		if err := writer.Write(record); err != nil {
			s.logger.Error("Failed to write record batch",
				"schema", ticketData.Schema,
				"table", ticketData.Table,
				"batch", batchCount,
				"error", err,
			)
			return status.Errorf(codes.Internal, "failed to write batch %d: %v", batchCount, err)
		}
	}

	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		s.logger.ErrorContext(ctx, "RecordReader error during iteration",
			"schema", ticketData.Schema,
			"table", ticketData.Table,
			"batch", batchCount,
			"error", err,
		)
		return status.Errorf(codes.Internal, "scan error after batch %d: %v", batchCount, err)
	}

	s.logger.Debug("DoGet completed",
		"schema", ticketData.Schema,
		"table", ticketData.Table,
		"batches_sent", batchCount,
		"total_rows", totalRows,
	)
	return nil
}

// executeTableScan runs the table scan and checks that the reader schema
// matches the requested projection.
func (s *Server) executeTableScan(ctx context.Context, table catalog.Table, ticketData *TicketData) (array.RecordReader, error) {
	fullSchema := table.ArrowSchema()
	if fullSchema == nil {
		return nil, status.Errorf(codes.Internal, "table %s.%s has nil Arrow schema", ticketData.Schema, ticketData.Table)
	}

	scanOpts := ticketData.ToScanOptions()
	want := catalog.ProjectSchema(fullSchema, scanOpts.Columns)

	var reader array.RecordReader
	err := recovery.RecoverToError(s.logger, "Scan", func() error {
		var err error
		reader, err = table.Scan(ctx, scanOpts)
		return err
	})
	if err != nil {
		s.logger.Error("Table scan failed",
			"schema", ticketData.Schema,
			"table", ticketData.Table,
			"error", err,
		)
		if _, ok := status.FromError(err); ok {
			return nil, err
		}
		return nil, status.Errorf(codes.Internal, "table scan failed: %v", err)
	}

	if !want.Equal(reader.Schema()) {
		got := reader.Schema().NumFields()
		reader.Release()
		return nil, status.Errorf(codes.Internal,
			"schema mismatch: expected %d fields, reader has %d fields",
			want.NumFields(), got)
	}
	return reader, nil
}
