package flight

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type dataStreamWriter interface {
	Send(*flight.FlightData) error
}

// payloadForwarder sends IPC payloads as FlightData. Exactly one payload,
// the record written by Begin to force the schema out, is dropped.
type payloadForwarder struct {
	stream  dataStreamWriter
	payload int
}

func (w *payloadForwarder) Start() error { return nil }
func (w *payloadForwarder) Close() error { return nil }

func (w *payloadForwarder) WritePayload(p ipc.Payload) error {
	w.payload++
	if w.payload == 2 {
		return nil
	}
	meta := p.Meta()
	defer meta.Release()

	var body bytes.Buffer
	if err := p.SerializeBody(&body); err != nil {
		return err
	}
	return w.stream.Send(&flight.FlightData{
		DataHeader: meta.Bytes(),
		DataBody:   body.Bytes(),
	})
}

// SchemaWriter is an IPC writer over a DoExchange stream. DuckDB expects
// the output schema before it sends the first input batch, so Begin
// emits the schema message on its own.
type SchemaWriter struct {
	*ipc.Writer
	allocator memory.Allocator
	schema    *arrow.Schema
}

// NewSchemaWriter creates a SchemaWriter for schema on stream.
func NewSchemaWriter(stream dataStreamWriter, schema *arrow.Schema, allocator memory.Allocator, opts ...ipc.Option) *SchemaWriter {
	opts = append(opts, ipc.WithAllocator(allocator), ipc.WithSchema(schema))
	return &SchemaWriter{
		Writer:    ipc.NewWriterWithPayloadWriter(&payloadForwarder{stream: stream}, opts...),
		allocator: allocator,
		schema:    schema,
	}
}

// Begin sends the schema message.
func (w *SchemaWriter) Begin() error {
	b := array.NewRecordBuilder(w.allocator, w.schema)
	defer b.Release()
	empty := b.NewRecordBatch()
	defer empty.Release()
	return w.Write(empty)
}
