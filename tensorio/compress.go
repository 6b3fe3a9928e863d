package tensorio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression algorithm for tensor
// payloads.
type Compression uint8

const (
	// CompressionNone stores payloads raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd block compression (better ratio).
	CompressionZstd Compression = 2
)

// Valid reports whether c is a known algorithm.
func (c Compression) Valid() bool { return c <= CompressionZstd }

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ErrChecksum is returned when a payload fails CRC verification.
var ErrChecksum = errors.New("tensorio: payload checksum mismatch")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Frame layout, little-endian:
// [rawLen u32][encLen u32][crc u32][data...]
// encLen == 0 means the payload is stored raw; crc always covers the
// raw bytes.
const frameHeaderSize = 12

func rawFrame(data []byte, crc uint32) []byte {
	out := make([]byte, frameHeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], 0)
	binary.LittleEndian.PutUint32(out[8:], crc)
	copy(out[frameHeaderSize:], data)
	return out
}

// frameBlock compresses data with the given algorithm and prepends the
// frame header. Blocks that do not compress below 90% of their raw size
// are stored raw.
func frameBlock(data []byte, c Compression) ([]byte, error) {
	crc := crc32.ChecksumIEEE(data)

	var enc []byte
	switch c {
	case CompressionNone:
		return rawFrame(data, crc), nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("tensorio: lz4 compress: %w", err)
		}
		enc = buf[:n] // n == 0 means incompressible
	case CompressionZstd:
		e := getZstdEncoder()
		enc = e.EncodeAll(data, nil)
		zstdEncoderPool.Put(e)
	default:
		return nil, fmt.Errorf("tensorio: unknown compression %d", c)
	}

	if len(enc) == 0 || float64(len(enc)) > float64(len(data))*0.9 {
		return rawFrame(data, crc), nil
	}

	out := make([]byte, frameHeaderSize+len(enc))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(enc)))
	binary.LittleEndian.PutUint32(out[8:], crc)
	copy(out[frameHeaderSize:], enc)
	return out, nil
}

// unframeBlock decodes a framed payload and verifies its checksum. The
// returned slice may alias frame when the payload was stored raw.
func unframeBlock(frame []byte, c Compression) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, errors.New("tensorio: frame too small for header")
	}

	// Length math in int64: the u32 fields are untrusted, and adding
	// frameHeaderSize in their own width wraps for values near the top
	// of the range, defeating the bounds checks.
	rawLen := int64(binary.LittleEndian.Uint32(frame[0:]))
	encLen := int64(binary.LittleEndian.Uint32(frame[4:]))
	crc := binary.LittleEndian.Uint32(frame[8:])

	var raw []byte
	if encLen == 0 {
		if rawLen > int64(len(frame)-frameHeaderSize) {
			return nil, errors.New("tensorio: frame shorter than raw payload")
		}
		raw = frame[frameHeaderSize : frameHeaderSize+int(rawLen)]
	} else {
		if encLen > int64(len(frame)-frameHeaderSize) {
			return nil, errors.New("tensorio: frame shorter than encoded payload")
		}
		enc := frame[frameHeaderSize : frameHeaderSize+int(encLen)]

		switch c {
		case CompressionLZ4:
			buf := make([]byte, rawLen)
			n, err := lz4.UncompressBlock(enc, buf)
			if err != nil {
				return nil, fmt.Errorf("tensorio: lz4 decompress: %w", err)
			}
			if int64(n) != rawLen {
				return nil, errors.New("tensorio: decompressed size mismatch")
			}
			raw = buf
		case CompressionZstd:
			d := getZstdDecoder()
			decoded, err := d.DecodeAll(enc, make([]byte, 0, rawLen))
			zstdDecoderPool.Put(d)
			if err != nil {
				return nil, fmt.Errorf("tensorio: zstd decompress: %w", err)
			}
			if int64(len(decoded)) != rawLen {
				return nil, errors.New("tensorio: decompressed size mismatch")
			}
			raw = decoded
		default:
			return nil, fmt.Errorf("tensorio: compressed payload with compression %s", c)
		}
	}

	if crc32.ChecksumIEEE(raw) != crc {
		return nil, ErrChecksum
	}
	return raw, nil
}
