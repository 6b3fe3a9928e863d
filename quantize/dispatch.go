package quantize

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nlsommer/graintext/floatx"
)

// ErrBufferMismatch is returned when the destination or source container
// passed to a dispatch function does not match the type tag (for example
// a byte buffer where the Q8 tag requires a *Vector).
var ErrBufferMismatch = errors.New("quantize: buffer does not match type tag")

// Quantize encodes a single float32 into dst using the scalar codec
// selected by t. dst must hold at least t.Size() bytes; multi-byte
// containers are packed little-endian. The Q8 tag has no scalar form and
// reports ErrUnsupportedType, as do unknown tags. This is the public
// switchboard and never panics on a bad tag.
func Quantize(dst []byte, v float32, t Type) error {
	if err := checkScalar(dst, t); err != nil {
		return err
	}
	switch t {
	case F32, E8M23:
		binary.LittleEndian.PutUint32(dst, floatx.E8M23Encode(v))
	case E5M10:
		binary.LittleEndian.PutUint16(dst, floatx.E5M10Encode(v))
	case E8M7:
		binary.LittleEndian.PutUint16(dst, floatx.E8M7Encode(v))
	case E4M3:
		dst[0] = floatx.E4M3Encode(v)
	}
	return nil
}

// Dequantize decodes a single float32 from src using the scalar codec
// selected by t.
func Dequantize(src []byte, t Type) (float32, error) {
	if err := checkScalar(src, t); err != nil {
		return 0, err
	}
	switch t {
	case F32, E8M23:
		return floatx.E8M23Decode(binary.LittleEndian.Uint32(src)), nil
	case E5M10:
		return floatx.E5M10Decode(binary.LittleEndian.Uint16(src)), nil
	case E8M7:
		return floatx.E8M7Decode(binary.LittleEndian.Uint16(src)), nil
	default: // E4M3; checkScalar has excluded everything else
		return floatx.E4M3Decode(src[0]), nil
	}
}

func checkScalar(buf []byte, t Type) error {
	if !t.Valid() || t == Q8 {
		return ErrUnsupportedType
	}
	if len(buf) < t.Size() {
		return fmt.Errorf("quantize: buffer too short for %s: %w", t, ErrBufferMismatch)
	}
	return nil
}

// QuantizeVec quantizes src into dst under the type tag t.
//
// For scalar tags dst must be a []byte of at least len(src)*t.Size()
// bytes, packed densely element-by-element. For Q8 dst must be a *Vector
// of matching length: Q8 does not pack by fixed stride, it owns its
// scales alongside its values. This asymmetry is deliberate and mirrors
// the on-disk layout.
func QuantizeVec(dst any, src []float32, t Type) error {
	if len(src) == 0 {
		return fmt.Errorf("quantize: empty source vector")
	}
	switch t {
	case Q8:
		q, ok := dst.(*Vector)
		if !ok {
			return ErrBufferMismatch
		}
		q.Encode(src)
		return nil
	case F32, E8M23, E5M10, E8M7, E4M3:
		b, ok := dst.([]byte)
		if !ok {
			return ErrBufferMismatch
		}
		stride := t.Size()
		if len(b) < len(src)*stride {
			return fmt.Errorf("quantize: buffer too short for %d %s elements: %w", len(src), t, ErrBufferMismatch)
		}
		for i, v := range src {
			if err := Quantize(b[i*stride:], v, t); err != nil {
				return err
			}
		}
		return nil
	default:
		return ErrUnsupportedType
	}
}

// DequantizeVec decodes src (a []byte for scalar tags, a *Vector for Q8)
// into dst.
func DequantizeVec(dst []float32, src any, t Type) error {
	if len(dst) == 0 {
		return fmt.Errorf("quantize: empty destination vector")
	}
	switch t {
	case Q8:
		q, ok := src.(*Vector)
		if !ok {
			return ErrBufferMismatch
		}
		q.Decode(dst)
		return nil
	case F32, E8M23, E5M10, E8M7, E4M3:
		b, ok := src.([]byte)
		if !ok {
			return ErrBufferMismatch
		}
		stride := t.Size()
		if len(b) < len(dst)*stride {
			return fmt.Errorf("quantize: buffer too short for %d %s elements: %w", len(dst), t, ErrBufferMismatch)
		}
		for i := range dst {
			v, err := Dequantize(b[i*stride:], t)
			if err != nil {
				return err
			}
			dst[i] = v
		}
		return nil
	default:
		return ErrUnsupportedType
	}
}

// QuantizeMat quantizes a flat row-major src of rows*cols elements. For
// scalar tags dst is a densely packed []byte; for Q8 dst is a *Matrix
// whose rows are quantized independently.
func QuantizeMat(dst any, src []float32, rows, cols int, t Type) error {
	if rows <= 0 || cols <= 0 || len(src) != rows*cols {
		return fmt.Errorf("quantize: source does not match %dx%d matrix", rows, cols)
	}
	switch t {
	case Q8:
		m, ok := dst.(*Matrix)
		if !ok {
			return ErrBufferMismatch
		}
		if mr, mc := m.Dims(); mr != rows || mc != cols {
			return fmt.Errorf("quantize: matrix is %dx%d, not %dx%d: %w", mr, mc, rows, cols, ErrBufferMismatch)
		}
		m.Encode(src)
		return nil
	default:
		return QuantizeVec(dst, src, t)
	}
}

// DequantizeMat decodes a rows*cols matrix into a flat row-major dst.
func DequantizeMat(dst []float32, src any, rows, cols int, t Type) error {
	if rows <= 0 || cols <= 0 || len(dst) != rows*cols {
		return fmt.Errorf("quantize: destination does not match %dx%d matrix", rows, cols)
	}
	switch t {
	case Q8:
		m, ok := src.(*Matrix)
		if !ok {
			return ErrBufferMismatch
		}
		if mr, mc := m.Dims(); mr != rows || mc != cols {
			return fmt.Errorf("quantize: matrix is %dx%d, not %dx%d: %w", mr, mc, rows, cols, ErrBufferMismatch)
		}
		m.Decode(dst)
		return nil
	default:
		return DequantizeVec(dst, src, t)
	}
}
