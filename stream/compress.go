package stream

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// encZstd is the header value of enc= for zstd payloads.
const encZstd = "zstd"

func newEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
}

func newDecoder(maxPayload int) (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(maxPayload)))
}

// Compress returns data as a single zstd frame at the given level.
func Compress(data []byte, level zstd.EncoderLevel) ([]byte, error) {
	enc, err := newEncoder(level)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress reverses Compress, refusing output larger than maxSize bytes.
func Decompress(data []byte, maxSize int) ([]byte, error) {
	dec, err := newDecoder(maxSize)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
