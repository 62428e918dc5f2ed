// Package serialize builds the compressed payloads Airport expects in
// catalog action responses.
package serialize

import (
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hugr-lab/airport-a5/internal/msgpack"
)

// CompressedContent is the Airport wrapper around a zstd-compressed
// payload. It encodes as the two-element array [length, data], where
// length is the size of the uncompressed payload.
type CompressedContent struct {
	_msgpack struct{} `msgpack:",as_array"`

	Length uint32
	Data   string
}

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder
// and one decoder serve the whole process.
var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Compress returns data compressed as a single zstd frame.
func Compress(data []byte) ([]byte, error) {
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2+16)), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	dec, err := decoder()
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// Wrap compresses data and returns the encoded CompressedContent.
func Wrap(data []byte) ([]byte, error) {
	if len(data) > math.MaxUint32 {
		return nil, fmt.Errorf("payload of %d bytes is too large to wrap", len(data))
	}
	compressed, err := Compress(data)
	if err != nil {
		return nil, err
	}
	return msgpack.Encode(&CompressedContent{
		Length: uint32(len(data)),
		Data:   string(compressed),
	})
}

// WrapValue encodes v as MessagePack and wraps the result.
func WrapValue(v any) ([]byte, error) {
	raw, err := msgpack.Encode(v)
	if err != nil {
		return nil, err
	}
	return Wrap(raw)
}

// Unwrap decodes a CompressedContent and returns the decompressed payload.
func Unwrap(body []byte) ([]byte, error) {
	var cc CompressedContent
	if err := msgpack.Decode(body, &cc); err != nil {
		return nil, err
	}
	data, err := Decompress([]byte(cc.Data))
	if err != nil {
		return nil, err
	}
	if len(data) != int(cc.Length) {
		return nil, fmt.Errorf("decompressed %d bytes, header says %d", len(data), cc.Length)
	}
	return data, nil
}
