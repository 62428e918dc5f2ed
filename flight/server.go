// Package flight provides Flight RPC handler implementations.
package flight

import (
	"log/slog"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airport-a5/catalog"
)

// BatchObserver is notified once per scalar function batch processed by
// DoExchange. err is nil on success. Implementations MUST be goroutine-safe.
type BatchObserver interface {
	ObserveBatch(function string, rows int64, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveBatch(string, int64, time.Duration, error) {}

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	catalog   catalog.Catalog
	allocator memory.Allocator
	logger    *slog.Logger
	address   string // Server's public address for FlightEndpoint locations
	observer  BatchObserver
}

// Option configures optional Server behaviour.
type Option func(*Server)

// WithObserver registers an observer for scalar function batches.
func WithObserver(o BatchObserver) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewServer creates a new Flight server with the given catalog and allocator.
// The logger is used for internal logging of errors and important events.
// The address parameter specifies the server's public address for FlightEndpoint locations.
func NewServer(cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, address string, opts ...Option) *Server {
	s := &Server{
		catalog:   cat,
		allocator: allocator,
		logger:    logger,
		address:   address,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
// This follows the standard gRPC service registration pattern.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
