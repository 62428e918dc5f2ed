//go:build integration

package airport_test

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"google.golang.org/grpc"

	airport "github.com/hugr-lab/airport-a5"
	"github.com/hugr-lab/airport-a5/internal/a5mock"
)

const attachName = "a5test"

// newTestServer starts a Flight server over the mock A5 library.
func newTestServer(t *testing.T, lib *a5mock.Library, auth airport.Authenticator) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}

	cat, err := airport.NewA5Catalog(lib, airport.DefaultSchema)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	debugLevel := slog.LevelDebug
	config := airport.ServerConfig{
		Catalog:  cat,
		Auth:     auth,
		Address:  lis.Addr().String(),
		LogLevel: &debugLevel,
	}
	grpcServer := grpc.NewServer(airport.ServerOptions(config)...)
	if err := airport.NewServer(grpcServer, config); err != nil {
		t.Fatalf("Failed to register server: %v", err)
	}

	go func() {
		_ = grpcServer.Serve(lis)
	}()
	time.Sleep(100 * time.Millisecond)

	t.Cleanup(func() {
		grpcServer.GracefulStop()
		_ = lis.Close()
	})
	return lis.Addr().String()
}

// openDuckDB opens a DuckDB connection with the Airport extension loaded.
func openDuckDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("DuckDB not available: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("INSTALL airport FROM community"); err != nil {
		t.Fatalf("Airport extension not available: %v", err)
	}
	if _, err := db.Exec("LOAD airport"); err != nil {
		t.Fatalf("Failed to load Airport extension: %v", err)
	}
	return db
}

func attach(t *testing.T, db *sql.DB, address, token string) {
	t.Helper()

	if token == "" {
		query := fmt.Sprintf("ATTACH '' AS %s (TYPE airport, LOCATION 'grpc://%s')", attachName, address)
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to attach Flight server: %v", err)
		}
		return
	}
	secret := fmt.Sprintf("CREATE OR REPLACE SECRET a5_secret (TYPE AIRPORT, auth_token '%s', scope 'grpc://%s')", token, address)
	if _, err := db.Exec(secret); err != nil {
		t.Fatalf("Failed to create secret: %v", err)
	}
	query := fmt.Sprintf("ATTACH '' AS %s (TYPE airport, SECRET a5_secret, LOCATION 'grpc://%s')", attachName, address)
	if _, err := db.Exec(query); err != nil {
		t.Fatalf("Failed to attach Flight server: %v", err)
	}
}

func fn(name string) string {
	return attachName + "." + airport.DefaultSchema + "." + name
}

func TestDuckDBScalarFunctions(t *testing.T) {
	lib := a5mock.New()
	db := openDuckDB(t)
	attach(t, db, newTestServer(t, lib, nil), "")

	t.Run("ResolutionRoundTrip", func(t *testing.T) {
		query := fmt.Sprintf(`
			SELECT r, %s(%s(lon, lat, r))
			FROM (VALUES (10.0, 50.0, 0), (-70.5, -33.4, 3), (139.7, 35.7, 6)) AS t(lon, lat, r)
			ORDER BY r`, fn("a5_get_resolution"), fn("a5_lonlat_to_cell"))
		rows, err := db.Query(query)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		defer rows.Close()

		n := 0
		for rows.Next() {
			var want, got int32
			if err := rows.Scan(&want, &got); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if got != want {
				t.Errorf("resolution round trip: got %d, want %d", got, want)
			}
			n++
		}
		if err := rows.Err(); err != nil {
			t.Fatalf("Rows error: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 rows, got %d", n)
		}
	})

	t.Run("ChildrenCount", func(t *testing.T) {
		cell := a5mock.Encode(2, 1, []uint8{3})
		var n int64
		query := fmt.Sprintf("SELECT len(%s(%d::UBIGINT))", fn("a5_cell_to_children"), uint64(cell))
		if err := db.QueryRow(query).Scan(&n); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if n != 4 {
			t.Errorf("Expected 4 immediate children, got %d", n)
		}
	})

	t.Run("NullPropagation", func(t *testing.T) {
		var area sql.NullFloat64
		query := fmt.Sprintf("SELECT %s(NULL::INTEGER)", fn("a5_cell_area"))
		if err := db.QueryRow(query).Scan(&area); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if area.Valid {
			t.Errorf("Expected NULL area, got %v", area.Float64)
		}
	})

	t.Run("InvalidResolution", func(t *testing.T) {
		var area float64
		query := fmt.Sprintf("SELECT %s(31)", fn("a5_cell_area"))
		err := db.QueryRow(query).Scan(&area)
		if err == nil {
			t.Fatal("Expected error for resolution 31")
		}
		if !strings.Contains(err.Error(), "Resolution must be between 0 and 30") {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("Res0Table", func(t *testing.T) {
		var n int64
		if err := db.QueryRow(fmt.Sprintf("SELECT count(*) FROM %s.%s.res0_cells", attachName, airport.DefaultSchema)).Scan(&n); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if n != 12 {
			t.Errorf("Expected 12 res0 cells, got %d", n)
		}
	})

	if n := lib.Outstanding(); n != 0 {
		t.Errorf("Expected all foreign buffers released, %d outstanding", n)
	}
}

func TestDuckDBAuthentication(t *testing.T) {
	lib := a5mock.New()
	address := newTestServer(t, lib, airport.StaticTokens(map[string]string{"s3cret": "analyst"}))

	db := openDuckDB(t)
	attach(t, db, address, "s3cret")

	var n uint64
	if err := db.QueryRow(fmt.Sprintf("SELECT %s(0)", fn("a5_get_num_cells"))).Scan(&n); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if n != 12 {
		t.Errorf("Expected 12 cells at resolution 0, got %d", n)
	}

	other := openDuckDB(t)
	query := fmt.Sprintf("ATTACH '' AS %s (TYPE airport, LOCATION 'grpc://%s')", attachName, address)
	if _, err := other.Exec(query); err == nil {
		t.Error("Expected attach without token to fail")
	}
}
