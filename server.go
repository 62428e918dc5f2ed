package airport

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airport-a5/flight"
)

// NewServer registers Airport Flight service handlers on the provided gRPC server.
// This is the main entry point for the airport package.
//
// The function:
//  1. Validates the ServerConfig
//  2. Creates Flight service implementation
//  3. Registers it on grpcServer
//
// Returns error if config is invalid (e.g., nil Catalog).
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
//
// For authentication, use ServerOptions() to create a gRPC server with auth interceptors:
//
//	opts := airport.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	err := airport.NewServer(grpcServer, config)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}

	logger := resolveLogger(config)

	var opts []flight.Option
	if config.Observer != nil {
		opts = append(opts, flight.WithObserver(config.Observer))
	}
	flightServer := flight.NewServer(config.Catalog, allocator, logger, config.Address, opts...)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("Airport Flight server registered",
		"has_auth", config.Auth != nil,
		"has_observer", config.Observer != nil,
		"max_message_size", config.MaxMessageSize,
		"address", config.Address,
	)
	return nil
}

// resolveLogger applies the Logger/LogLevel precedence of ServerConfig.
func resolveLogger(config ServerConfig) *slog.Logger {
	if config.Logger != nil {
		return config.Logger
	}
	if config.LogLevel != nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: *config.LogLevel}))
	}
	return slog.Default()
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Catalog == nil {
		return fmt.Errorf("catalog is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must not be negative, got %d", config.MaxMessageSize)
	}
	return nil
}

// ServerOptions returns gRPC server options with authentication interceptors.
// Use this when creating a gRPC server if you want authentication enabled.
//
// Example:
//
//	config := airport.ServerConfig{
//	    Catalog: cat,
//	    Auth:    airport.BearerAuth(validateToken),
//	}
//	opts := airport.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	airport.NewServer(grpcServer, config)
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	var opts []grpc.ServerOption

	if config.Auth != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(flight.UnaryServerInterceptor(config.Auth)),
			grpc.StreamInterceptor(flight.StreamServerInterceptor(config.Auth)),
		)
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
