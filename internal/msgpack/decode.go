// Package msgpack wraps vmihailenco/msgpack for Airport action bodies and
// Flight app metadata.
package msgpack

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var errEmpty = errors.New("msgpack: empty body")

// Decode unmarshals data into v, which must be a pointer.
func Decode(data []byte, v any) error {
	if len(data) == 0 {
		return errEmpty
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

// Encode marshals v. Struct fields use their msgpack tags.
func Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

// DecodeMap decodes a map body such as Flight app metadata.
func DecodeMap(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := Decode(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeSlice decodes an array body, for example an as_array struct.
func DecodeSlice(data []byte) ([]any, error) {
	var s []any
	if err := Decode(data, &s); err != nil {
		return nil, err
	}
	return s, nil
}
