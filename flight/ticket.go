package flight

import (
	"encoding/json"
	"fmt"

	"github.com/hugr-lab/airport-a5/catalog"
)

// TicketData represents the decoded content of a Flight ticket.
// Tickets are opaque byte slices encoding schema/table names for query
// routing plus an optional column projection.
type TicketData struct {
	// Schema is the schema name (e.g., "a5")
	Schema string `json:"schema"`

	// Table is the table name (e.g., "res0_cells")
	Table string `json:"table"`

	// Columns to project (optional, nil means all columns)
	Columns []string `json:"columns,omitempty"`
}

// EncodeTicket creates an opaque ticket from schema and table names.
// The ticket is JSON-encoded for simplicity and transparency.
func EncodeTicket(schema, table string, columns []string) ([]byte, error) {
	if schema == "" {
		return nil, fmt.Errorf("schema name cannot be empty")
	}
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	data, err := json.Marshal(TicketData{
		Schema:  schema,
		Table:   table,
		Columns: columns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ticket: %w", err)
	}
	return data, nil
}

// DecodeTicket parses an opaque ticket to extract schema and table names.
// Returns error if ticket is invalid or cannot be decoded.
func DecodeTicket(ticketBytes []byte) (*TicketData, error) {
	if len(ticketBytes) == 0 {
		return nil, fmt.Errorf("ticket cannot be empty")
	}

	var ticket TicketData
	if err := json.Unmarshal(ticketBytes, &ticket); err != nil {
		return nil, fmt.Errorf("failed to decode ticket: %w", err)
	}

	if ticket.Schema == "" {
		return nil, fmt.Errorf("decoded ticket has empty schema name")
	}
	if ticket.Table == "" {
		return nil, fmt.Errorf("decoded ticket has empty table name")
	}
	return &ticket, nil
}

// ToScanOptions converts TicketData to catalog.ScanOptions.
func (td *TicketData) ToScanOptions() *catalog.ScanOptions {
	return &catalog.ScanOptions{
		Columns: td.Columns,
	}
}
