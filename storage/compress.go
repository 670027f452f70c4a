package storage

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the per-row block compression of a container.
type Compression uint8

const (
	// CompressionNone stores row blocks raw.
	CompressionNone Compression = iota
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4
	// CompressionZstd uses zstandard (slower, better ratio).
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("storage.Compression(%d)", uint8(c))
	}
}

// Valid reports whether c is a known compression mode.
func (c Compression) Valid() bool {
	return c <= CompressionZstd
}

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

func zstdInit() {
	// Both are stateless in EncodeAll/DecodeAll mode and safe for
	// concurrent use.
	zstdEnc, _ = zstd.NewWriter(nil)
	zstdDec, _ = zstd.NewReader(nil)
}

// compressRow encodes one raw row block. If the result would not be
// smaller than the input, the raw bytes are returned unchanged; the
// reader tells the two cases apart by the stored length.
func compressRow(c Compression, raw []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil

	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if n == 0 || n >= len(raw) {
			return raw, nil // incompressible
		}
		return dst[:n], nil

	case CompressionZstd:
		zstdOnce.Do(zstdInit)
		dst := zstdEnc.EncodeAll(raw, nil)
		if len(dst) >= len(raw) {
			return raw, nil // incompressible
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("unknown compression: %d", c)
	}
}

// decompressRow decodes one stored row block into dst, which must have
// exactly the raw row size. Stored length equal to the raw size means
// the block was kept raw.
func decompressRow(c Compression, stored, dst []byte) error {
	if len(stored) == len(dst) {
		copy(dst, stored)
		return nil
	}

	switch c {
	case CompressionNone:
		return fmt.Errorf("row block has %d bytes, want %d", len(stored), len(dst))

	case CompressionLZ4:
		n, err := lz4.UncompressBlock(stored, dst)
		if err != nil {
			return fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("lz4 row decompressed to %d bytes, want %d", n, len(dst))
		}
		return nil

	case CompressionZstd:
		zstdOnce.Do(zstdInit)
		out, err := zstdDec.DecodeAll(stored, nil)
		if err != nil {
			return fmt.Errorf("zstd decompression failed: %w", err)
		}
		if len(out) != len(dst) {
			return fmt.Errorf("zstd row decompressed to %d bytes, want %d", len(out), len(dst))
		}
		copy(dst, out)
		return nil

	default:
		return fmt.Errorf("unknown compression: %d", c)
	}
}
