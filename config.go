package airport

import (
	"errors"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airport-a5/auth"
	"github.com/hugr-lab/airport-a5/catalog"
	"github.com/hugr-lab/airport-a5/flight"
)

// ServerConfig configures the Flight server behind the A5 catalog.
type ServerConfig struct {
	// Catalog is required. NewA5Catalog builds the standard one.
	Catalog catalog.Catalog

	// Auth is optional; nil serves anonymous requests.
	Auth auth.Authenticator

	// Allocator backs every batch built by the server and the functions.
	// Defaults to memory.DefaultAllocator.
	Allocator memory.Allocator

	// Logger defaults to slog.Default(). When set, LogLevel is ignored.
	Logger *slog.Logger

	// LogLevel builds a text logger at that level when Logger is nil.
	LogLevel *slog.Level

	// MaxMessageSize caps gRPC messages in both directions. Zero keeps the
	// gRPC default of 4MB, which large boundary batches can exceed.
	MaxMessageSize int

	// Address is advertised in endpoint locations so DuckDB can reconnect
	// for DoGet. Empty leaves locations unset.
	Address string

	// Observer, if set, is called once per scalar function batch.
	Observer flight.BatchObserver
}

var (
	// ErrUnauthorized is returned by authenticators for rejected tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig wraps ServerConfig validation failures.
	ErrInvalidConfig = errors.New("invalid server config")
)
