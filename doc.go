// Package airport serves the A5 pentagonal cell index to DuckDB through
// the Airport extension over Apache Arrow Flight.
//
// The package registers a Flight service on a caller-owned grpc.Server.
// Each A5 operation is published as a vectorized scalar function that
// DuckDB calls with one Arrow batch at a time over DoExchange, and the
// twelve resolution 0 cells are published as a table readable with DoGet.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "log"
//	    "net"
//
//	    "google.golang.org/grpc"
//
//	    "github.com/hugr-lab/airport-a5"
//	    "github.com/hugr-lab/airport-a5/a5/ffi"
//	)
//
//	func main() {
//	    lib, err := ffi.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    cat, err := airport.NewA5Catalog(lib, airport.DefaultSchema)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    config := airport.ServerConfig{Catalog: cat, Address: "localhost:50051"}
//	    grpcServer := grpc.NewServer(airport.ServerOptions(config)...)
//	    if err := airport.NewServer(grpcServer, config); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    lis, _ := net.Listen("tcp", ":50051")
//	    log.Fatal(grpcServer.Serve(lis))
//	}
//
// From DuckDB:
//
//	INSTALL airport FROM community;
//	LOAD airport;
//	ATTACH 'a5' AS a5 (TYPE airport, LOCATION 'grpc://localhost:50051');
//	SELECT a5.a5.a5_lonlat_to_cell(lon, lat, 9) FROM points;
//
// # Errors
//
// A batch either succeeds completely or fails as a whole. Input problems
// such as a resolution outside [0, 30] and errors reported by the native
// A5 library reach the client as gRPC InvalidArgument with the message
// "<operation>: <reason>". Cancellation maps to Canceled.
//
// # Authentication
//
// Set ServerConfig.Auth and build the gRPC server with ServerOptions to
// require a bearer token on every call:
//
//	config.Auth = airport.StaticTokens(map[string]string{"secret": "analyst"})
//
// # Memory
//
// All Arrow buffers come from ServerConfig.Allocator. Buffers returned by
// the native library are copied into Arrow builders and released before
// the batch completes, on success and on error.
package airport
