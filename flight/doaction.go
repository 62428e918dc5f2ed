package flight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/internal/msgpack"
	"github.com/hugr-lab/airport-a5/internal/serialize"
)

// Airport action names.
const (
	ActionListSchemas       = "list_schemas"
	ActionEndpoints         = "endpoints"
	ActionCreateTransaction = "create_transaction"
)

// DoAction executes Airport catalog actions.
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
	)

	switch actionType := action.GetType(); actionType {
	case ActionListSchemas:
		return s.handleListSchemas(ctx, action, stream)
	case ActionEndpoints:
		return s.handleEndpoints(ctx, action, stream)
	case ActionCreateTransaction:
		return s.handleCreateTransaction(ctx, action, stream)
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", actionType)
	}
}

// ListActions advertises the supported actions.
func (s *Server) ListActions(_ *flight.Empty, stream flight.FlightService_ListActionsServer) error {
	actions := []*flight.ActionType{
		{Type: ActionListSchemas, Description: "Compressed catalog of schemas, tables and scalar functions"},
		{Type: ActionEndpoints, Description: "Flight endpoints for a table descriptor"},
		{Type: ActionCreateTransaction, Description: "Transaction identifier (always null)"},
	}
	for _, a := range actions {
		if err := stream.Send(a); err != nil {
			return status.Errorf(codes.Internal, "failed to send action type: %v", err)
		}
	}
	return nil
}

// handleListSchemas returns list of all schemas in the catalog.
// This is used by DuckDB Airport extension for ATTACH operations.
// Returns compressed MessagePack following Airport specification:
// https://airport.query.farm/server_action_list_schemas.html
func (s *Server) handleListSchemas(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var params struct {
		CatalogName string `msgpack:"catalog_name"`
	}
	if len(action.GetBody()) > 0 {
		if err := msgpack.Decode(action.GetBody(), &params); err != nil {
			// Treat an unreadable body as no parameters.
			s.logger.Debug("Failed to decode list_schemas parameters", "error", err)
		}
	}

	catalogSchemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		s.logger.Error("Failed to get schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to get schemas: %v", err)
	}

	schemaObjects := make([]map[string]any, 0, len(catalogSchemas))
	for _, schema := range catalogSchemas {
		serializedContents, sha256Hash, err := s.serializeSchemaContents(ctx, schema)
		if err != nil {
			s.logger.Error("Failed to serialize schema contents",
				"schema", schema.Name(),
				"error", err,
			)
			return status.Errorf(codes.Internal, "failed to serialize schema contents: %v", err)
		}

		schemaObjects = append(schemaObjects, map[string]any{
			"name":        schema.Name(),
			"description": schema.Comment(),
			"tags":        map[string]string{},
			"contents": map[string]any{
				"sha256":     sha256Hash,
				"url":        nil, // optional fields must be present
				"serialized": serializedContents,
			},
			"is_default": len(schemaObjects) == 0,
		})
	}

	catalogRoot := map[string]any{
		"contents": map[string]any{
			"sha256":     "0000000000000000000000000000000000000000000000000000000000000000",
			"url":        nil,
			"serialized": nil,
		},
		"schemas": schemaObjects,
		"version_info": map[string]any{
			"catalog_version": uint64(1),
			"is_fixed":        true,
		},
	}

	responseBody, err := serialize.WrapValue(catalogRoot)
	if err != nil {
		s.logger.Error("Failed to encode catalog root", "error", err)
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	if err := stream.Send(&flight.Result{Body: responseBody}); err != nil {
		s.logger.Error("Failed to send schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}

	s.logger.Debug("handleListSchemas completed",
		"catalog_name", params.CatalogName,
		"schema_count", len(catalogSchemas),
		"response_bytes", len(responseBody),
	)
	return nil
}

// serializeSchemaContents builds the compressed list of serialized FlightInfo
// messages describing every table and scalar function overload in schema.
// Returns the serialized bytes and their SHA256 hash.
func (s *Server) serializeSchemaContents(ctx context.Context, schema catalog.Schema) (string, string, error) {
	tables, err := schema.Tables(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to get tables: %w", err)
	}
	funcs, err := schema.ScalarFunctions(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to get scalar functions: %w", err)
	}

	infos := make([][]byte, 0, len(tables)+len(funcs))
	for _, table := range tables {
		info, err := s.tableFlightInfo(schema.Name(), table)
		if err != nil {
			return "", "", err
		}
		if info == nil {
			continue
		}
		b, err := proto.Marshal(info)
		if err != nil {
			return "", "", fmt.Errorf("failed to marshal FlightInfo: %w", err)
		}
		infos = append(infos, b)
	}
	for _, fn := range funcs {
		fnInfos, err := s.functionFlightInfos(schema.Name(), fn)
		if err != nil {
			return "", "", err
		}
		for _, info := range fnInfos {
			b, err := proto.Marshal(info)
			if err != nil {
				return "", "", fmt.Errorf("failed to marshal FlightInfo: %w", err)
			}
			infos = append(infos, b)
		}
	}

	serialized, err := serialize.WrapValue(infos)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode schema contents: %w", err)
	}

	hash := sha256.Sum256(serialized)
	hashHex := hex.EncodeToString(hash[:])

	s.logger.Debug("Generated schema contents",
		"schema", schema.Name(),
		"tables", len(tables),
		"functions", len(funcs),
		"flight_infos", len(infos),
		"serialized_bytes", len(serialized),
	)
	return string(serialized), hashHex, nil
}

// appMetadata mirrors AirportSerializedFlightAppMetadata. Every key must be
// present; absent values are encoded as nil.
func appMetadata(objType, schemaName, name, comment string, inputSchema any) ([]byte, error) {
	b, err := msgpack.Encode(map[string]any{
		"type":         objType,
		"schema":       schemaName,
		"catalog":      "",
		"name":         name,
		"comment":      comment,
		"input_schema": inputSchema,
		"action_name":  nil,
		"description":  nil,
		"extra_data":   nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode app metadata: %w", err)
	}
	return b, nil
}

// tableFlightInfo describes a table. Tables without a schema are skipped.
func (s *Server) tableFlightInfo(schemaName string, table catalog.Table) (*flight.FlightInfo, error) {
	arrowSchema := table.ArrowSchema()
	if arrowSchema == nil {
		return nil, nil
	}
	meta, err := appMetadata("table", schemaName, table.Name(), table.Comment(), nil)
	if err != nil {
		return nil, err
	}
	ticket, err := EncodeTicket(schemaName, table.Name(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return &flight.FlightInfo{
		Schema: flight.SerializeSchema(arrowSchema, s.allocator),
		FlightDescriptor: &flight.FlightDescriptor{
			Type: flight.DescriptorPATH,
			Path: []string{schemaName, table.Name()},
		},
		// Location can be empty - DuckDB will use the same connection
		Endpoint:     []*flight.FlightEndpoint{{Ticket: &flight.Ticket{Ticket: ticket}}},
		TotalRecords: -1,
		TotalBytes:   -1,
		AppMetadata:  meta,
	}, nil
}

// functionFlightInfos describes a scalar function, one FlightInfo per
// signature. The FlightInfo schema holds the single result field and
// input_schema holds the parameters.
func (s *Server) functionFlightInfos(schemaName string, fn catalog.ScalarFunction) ([]*flight.FlightInfo, error) {
	sigs := catalog.Signatures(fn)
	out := make([]*flight.FlightInfo, 0, len(sigs))
	for _, sig := range sigs {
		if sig.ReturnType == nil {
			return nil, fmt.Errorf("scalar function %s has no return type", fn.Name())
		}
		params := make([]arrow.Field, len(sig.Parameters))
		for i, dt := range sig.Parameters {
			params[i] = arrow.Field{Name: fmt.Sprintf("arg_%d", i), Type: dt, Nullable: true}
		}
		inputSchema := flight.SerializeSchema(arrow.NewSchema(params, nil), s.allocator)
		resultSchema := arrow.NewSchema([]arrow.Field{catalog.ResultField(sig.ReturnType)}, nil)

		meta, err := appMetadata("scalar_function", schemaName, fn.Name(), fn.Comment(), string(inputSchema))
		if err != nil {
			return nil, err
		}
		out = append(out, &flight.FlightInfo{
			Schema: flight.SerializeSchema(resultSchema, s.allocator),
			FlightDescriptor: &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: []string{schemaName, fn.Name()},
			},
			TotalRecords: -1,
			TotalBytes:   -1,
			AppMetadata:  meta,
		})
	}
	return out, nil
}

// handleEndpoints returns flight endpoints for a descriptor.
// This is a required Airport action that allows the server to receive additional context.
func (s *Server) handleEndpoints(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	// AirportGetFlightEndpointsRequest
	var request struct {
		Descriptor string `msgpack:"descriptor"`
		Parameters struct {
			JsonFilters string   `msgpack:"json_filters"`
			ColumnIDs   []uint64 `msgpack:"column_ids"`
		} `msgpack:"parameters"`
	}
	if err := msgpack.Decode(action.GetBody(), &request); err != nil {
		s.logger.Error("Failed to decode endpoints request", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	desc := &flight.FlightDescriptor{}
	if err := proto.Unmarshal([]byte(request.Descriptor), desc); err != nil {
		s.logger.Error("Failed to parse FlightDescriptor", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid descriptor: %v", err)
	}
	if desc.GetType() != flight.DescriptorPATH || len(desc.GetPath()) != 2 {
		return status.Errorf(codes.InvalidArgument, "descriptor must be PATH type with 2 elements [schema, table]")
	}
	schemaName, tableName := desc.GetPath()[0], desc.GetPath()[1]

	table, err := s.lookupTable(ctx, schemaName, tableName)
	if err != nil {
		return err
	}

	columns := columnNames(table.ArrowSchema(), request.Parameters.ColumnIDs)

	ticket, err := EncodeTicket(schemaName, tableName, columns)
	if err != nil {
		s.logger.Error("Failed to encode ticket", "error", err)
		return status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
	}

	endpoint := &flight.FlightEndpoint{
		Ticket: &flight.Ticket{Ticket: ticket},
	}
	if s.address != "" {
		endpoint.Location = []*flight.Location{{Uri: "grpc://" + s.address}}
	}

	endpointBytes, err := proto.Marshal(endpoint)
	if err != nil {
		s.logger.Error("Failed to marshal endpoint", "error", err)
		return status.Errorf(codes.Internal, "failed to marshal endpoint: %v", err)
	}

	// Each string is a serialized FlightEndpoint
	responseBody, err := msgpack.Encode([]string{string(endpointBytes)})
	if err != nil {
		s.logger.Error("Failed to encode endpoints", "error", err)
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	if err := stream.Send(&flight.Result{Body: responseBody}); err != nil {
		s.logger.Error("Failed to send endpoints", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}

	s.logger.Debug("handleEndpoints completed",
		"schema", schemaName,
		"table", tableName,
		"columns", columns,
	)
	return nil
}

// columnNames maps DuckDB column ids onto field names. Ids past the last
// field (such as the rowid pseudo column) are ignored. A nil result means
// every column.
func columnNames(schema *arrow.Schema, ids []uint64) []string {
	if schema == nil {
		return nil
	}
	var names []string
	for _, id := range ids {
		if id < uint64(schema.NumFields()) {
			names = append(names, schema.Field(int(id)).Name)
		}
	}
	return names
}

// handleCreateTransaction returns a transaction identifier.
// Transactions are not supported; the identifier is always nil.
func (s *Server) handleCreateTransaction(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	// The field must be present in the map, with nil value
	responseBody, err := msgpack.Encode(map[string]any{
		"identifier": nil,
	})
	if err != nil {
		s.logger.Error("Failed to encode transaction response", "error", err)
		return status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}

	if err := stream.Send(&flight.Result{Body: responseBody}); err != nil {
		s.logger.Error("Failed to send transaction result", "error", err)
		return status.Errorf(codes.Internal, "failed to send result: %v", err)
	}
	return nil
}
