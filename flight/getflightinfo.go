package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airport-a5/catalog"
)

// GetFlightInfo returns schema metadata and ticket for table queries.
// This RPC allows clients to discover table schemas before fetching data.
//
// The descriptor.Path should contain [schema_name, table_name].
// Returns FlightInfo with:
//   - Schema: Arrow schema for the table
//   - Ticket: Opaque byte slice encoding schema/table names
//   - Endpoints: Single endpoint with the ticket
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	if desc.GetType() != flight.DescriptorPATH {
		return nil, status.Error(codes.InvalidArgument, "descriptor must be PATH type")
	}

	path := desc.GetPath()
	if len(path) != 2 {
		return nil, status.Error(codes.InvalidArgument, "path must contain exactly 2 elements: [schema_name, table_name]")
	}
	schemaName, tableName := path[0], path[1]

	table, err := s.lookupTable(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}

	info, err := s.tableFlightInfo(schemaName, table)
	if err != nil {
		s.logger.Error("Failed to build flight info",
			"schema", schemaName,
			"table", tableName,
			"error", err,
		)
		return nil, status.Errorf(codes.Internal, "failed to build flight info: %v", err)
	}
	if info == nil {
		return nil, status.Errorf(codes.Internal, "table %s.%s has nil Arrow schema", schemaName, tableName)
	}
	// Echo the request descriptor unchanged.
	info.FlightDescriptor = desc

	s.logger.Debug("GetFlightInfo successful",
		"schema", schemaName,
		"table", tableName,
	)
	return info, nil
}

// lookupTable resolves schemaName.tableName, returning gRPC status errors.
func (s *Server) lookupTable(ctx context.Context, schemaName, tableName string) (catalog.Table, error) {
	schema, err := s.catalog.Schema(ctx, schemaName)
	if err != nil {
		s.logger.Error("Failed to get schema from catalog",
			"schema", schemaName,
			"error", err,
		)
		return nil, status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return nil, status.Errorf(codes.NotFound, "schema not found: %s", schemaName)
	}

	table, err := schema.Table(ctx, tableName)
	if err != nil {
		s.logger.Error("Failed to get table from schema",
			"schema", schemaName,
			"table", tableName,
			"error", err,
		)
		return nil, status.Errorf(codes.Internal, "failed to get table: %v", err)
	}
	if table == nil {
		return nil, status.Errorf(codes.NotFound, "table not found: %s.%s", schemaName, tableName)
	}
	return table, nil
}
