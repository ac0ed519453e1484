package colstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm used for row blocks and the footer.
type Compression uint8

const (
	// CompressionDefault selects the package default (currently zstd).
	CompressionDefault Compression = iota
	// CompressionZSTD favors ratio; the right choice for cold stores.
	CompressionZSTD
	// CompressionLZ4 favors decode speed over ratio.
	CompressionLZ4
	// CompressionNone stores sections raw.
	CompressionNone
)

// String returns the name accepted by ParseCompression.
func (c Compression) String() string {
	switch c {
	case CompressionDefault:
		return "default"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionNone:
		return "none"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a user-facing name to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "default":
		return CompressionDefault, nil
	case "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return CompressionDefault, fmt.Errorf("colstore: unknown compression %q (want zstd, lz4 or none)", s)
	}
}

var (
	// zstdEncoderPool pools ZSTD encoders to avoid allocation overhead
	zstdEncoderPool = sync.Pool{
		New: func() interface{} {
			encoder, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return encoder
		},
	}

	// zstdDecoderPool pools ZSTD decoders
	zstdDecoderPool = sync.Pool{
		New: func() interface{} {
			decoder, _ := zstd.NewReader(nil)
			return decoder
		},
	}
)

// compressSection compresses data and frames it with an 8-byte header:
// [rawLen uint32][compLen uint32]. compLen == 0 marks a raw payload;
// incompressible sections fall back to raw storage so the framing never
// costs more than 8 bytes.
func compressSection(data []byte, compression Compression) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return frameSection(data, data, false), nil

	case CompressionLZ4:
		compressed := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if n == 0 || n >= len(data) {
			return frameSection(data, data, false), nil
		}
		return frameSection(data, compressed[:n], true), nil

	case CompressionZSTD:
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)

		compressed := encoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return frameSection(data, data, false), nil
		}
		return frameSection(data, compressed, true), nil

	default:
		return nil, fmt.Errorf("colstore: unsupported compression type: %d", compression)
	}
}

func frameSection(raw, payload []byte, compressed bool) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(raw)))
	if compressed {
		binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	}
	copy(out[8:], payload)
	return out
}

// decompressSection reverses compressSection. Sections are CRC-checked by
// the caller before they reach here, so framing errors indicate corruption.
func decompressSection(data []byte, compression Compression) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: section too short (%d bytes)", ErrCorrupted, len(data))
	}
	rawLen := binary.LittleEndian.Uint32(data[0:4])
	compLen := binary.LittleEndian.Uint32(data[4:8])
	payload := data[8:]

	if compLen == 0 {
		if uint32(len(payload)) != rawLen {
			return nil, fmt.Errorf("%w: raw section length mismatch (got %d, want %d)", ErrCorrupted, len(payload), rawLen)
		}
		return payload, nil
	}
	if uint32(len(payload)) != compLen {
		return nil, fmt.Errorf("%w: compressed section length mismatch (got %d, want %d)", ErrCorrupted, len(payload), compLen)
	}

	switch compression {
	case CompressionLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decompression failed: %v", ErrCorrupted, err)
		}
		if uint32(n) != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch (got %d, want %d)", ErrCorrupted, n, rawLen)
		}
		return out, nil

	case CompressionZSTD:
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)

		out, err := decoder.DecodeAll(payload, make([]byte, 0, rawLen))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd decompression failed: %v", ErrCorrupted, err)
		}
		if uint32(len(out)) != rawLen {
			return nil, fmt.Errorf("%w: decompressed size mismatch (got %d, want %d)", ErrCorrupted, len(out), rawLen)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: compressed section with compression type %d", ErrCorrupted, compression)
	}
}
