package flight

import (
	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ListFlights streams one FlightInfo per table in every schema.
// Criteria are ignored.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		s.logger.Error("Failed to get schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to get schemas: %v", err)
	}

	sent := 0
	for _, schema := range schemas {
		tables, err := schema.Tables(ctx)
		if err != nil {
			s.logger.Error("Failed to get tables", "schema", schema.Name(), "error", err)
			return status.Errorf(codes.Internal, "failed to get tables: %v", err)
		}
		for _, table := range tables {
			info, err := s.tableFlightInfo(schema.Name(), table)
			if err != nil {
				return status.Errorf(codes.Internal, "failed to build flight info: %v", err)
			}
			if info == nil {
				continue
			}
			if err := stream.Send(info); err != nil {
				s.logger.Error("Failed to send FlightInfo", "error", err)
				return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
			}
			sent++
		}
	}

	s.logger.Debug("ListFlights completed", "flights", sent)
	return nil
}
