// Package quantize implements block-scaled 8-bit quantization (Q8) and a
// runtime-tagged dispatch layer over the scalar codecs in floatx.
//
// Q8 follows the microscaling layout used by transformer inference
// runtimes: a vector is cut into fixed-size blocks, each block shares a
// single power-of-two scale whose exponent lives in the E4M3 exponent
// domain [-7, 8], and elements are stored as signed 8-bit integers in the
// symmetric range [-127, 127] (-128 is reserved).
package quantize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// BlockSize is the default number of elements sharing one scale.
const BlockSize = 32

const (
	q8Max      = 127 // largest representable magnitude for int8 (symmetric)
	e4m3ExpMax = 7   // mantissa headroom subtracted from the block exponent
	e4m3ExpLo  = -7  // lower bound of the E4M3 exponent domain
	e4m3ExpHi  = 8   // upper bound of the E4M3 exponent domain
)

// Vector is a block-quantized float32 vector. Values holds one int8 per
// element; Scales holds one power-of-two exponent per block.
//
// A Vector is a single-owner value: allocate once, encode in one pass,
// decode as often as needed. It is safe for concurrent reads only.
type Vector struct {
	Values []int8
	Scales []int8

	blockSize int
}

// NewVector allocates a quantized vector of n elements using the default
// block size. n must be a positive multiple of BlockSize; violations are
// programmer error and panic.
func NewVector(n int) *Vector {
	return NewVectorBlock(n, BlockSize)
}

// NewVectorBlock allocates a quantized vector of n elements with an
// explicit block size.
func NewVectorBlock(n, blockSize int) *Vector {
	assertBlocked(n, blockSize)
	return &Vector{
		Values:    make([]int8, n),
		Scales:    make([]int8, n/blockSize),
		blockSize: blockSize,
	}
}

func assertBlocked(n, blockSize int) {
	if blockSize <= 0 {
		panic("quantize: block size must be positive")
	}
	if n < blockSize {
		panic("quantize: length must be at least one block")
	}
	if n%blockSize != 0 {
		panic("quantize: length must be a multiple of the block size")
	}
}

// Len returns the number of quantized elements.
func (v *Vector) Len() int { return len(v.Values) }

// BlockSize returns the number of elements sharing one scale.
func (v *Vector) BlockSize() int { return v.blockSize }

// Encode quantizes src into v. len(src) must equal v.Len(); a mismatch is
// a programmer error and panics.
func (v *Vector) Encode(src []float32) {
	if len(src) != len(v.Values) {
		panic("quantize: source length does not match vector length")
	}

	blockSize := v.blockSize
	numBlocks := len(src) / blockSize

	for b := 0; b < numBlocks; b++ {
		block := src[b*blockSize : (b+1)*blockSize]

		var maxAbs float32
		for _, x := range block {
			if a := float32(math.Abs(float64(x))); a > maxAbs {
				maxAbs = a
			}
		}

		// An all-zero block stores scale 0 and zero values so that it
		// decodes to exact 0.0.
		if maxAbs == 0 {
			v.Scales[b] = 0
			for i := range block {
				v.Values[b*blockSize+i] = 0
			}
			continue
		}

		// Shared exponent: unbiased exponent of the block maximum minus
		// the E4M3 mantissa headroom, clamped to the E4M3 domain.
		w := math.Ilogb(float64(maxAbs)) - e4m3ExpMax
		if w < e4m3ExpLo {
			w = e4m3ExpLo
		}
		if w > e4m3ExpHi {
			w = e4m3ExpHi
		}
		v.Scales[b] = int8(w)

		scale := float32(math.Ldexp(1, w))
		for i, x := range block {
			// Round to nearest, ties away from zero, then clamp to the
			// symmetric int8 range.
			r := int(math.Round(float64(x / scale)))
			if r > q8Max {
				r = q8Max
			}
			if r < -q8Max {
				r = -q8Max
			}
			v.Values[b*blockSize+i] = int8(r)
		}
	}
}

// Decode dequantizes v into dst. len(dst) must equal v.Len().
func (v *Vector) Decode(dst []float32) {
	if len(dst) != len(v.Values) {
		panic("quantize: destination length does not match vector length")
	}

	for i, q := range v.Values {
		scale := float32(math.Ldexp(1, int(v.Scales[i/v.blockSize])))
		dst[i] = float32(q) * scale
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian): [blockSize:u32][len:u32][scales...][values...]
func (v *Vector) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8+len(v.Scales)+len(v.Values))
	binary.LittleEndian.PutUint32(b[0:], uint32(v.blockSize))
	binary.LittleEndian.PutUint32(b[4:], uint32(len(v.Values)))
	off := 8
	for _, s := range v.Scales {
		b[off] = byte(s)
		off++
	}
	for _, q := range v.Values {
		b[off] = byte(q)
		off++
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (v *Vector) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("quantize: vector payload too short")
	}
	blockSize := int(binary.LittleEndian.Uint32(data[0:]))
	n := int(binary.LittleEndian.Uint32(data[4:]))
	if blockSize <= 0 || n <= 0 || n%blockSize != 0 {
		return fmt.Errorf("quantize: invalid vector header (n=%d block=%d)", n, blockSize)
	}
	numBlocks := n / blockSize
	if len(data) != 8+numBlocks+n {
		return fmt.Errorf("quantize: vector payload length %d, want %d", len(data), 8+numBlocks+n)
	}

	v.blockSize = blockSize
	v.Scales = make([]int8, numBlocks)
	v.Values = make([]int8, n)
	off := 8
	for i := range v.Scales {
		v.Scales[i] = int8(data[off])
		off++
	}
	for i := range v.Values {
		v.Values[i] = int8(data[off])
		off++
	}
	return nil
}

// Matrix is a row-major block-quantized matrix: one independently owned
// Vector per row, with no scale sharing across rows.
type Matrix struct {
	Rows []*Vector

	cols int
}

// NewMatrix allocates a rows×cols quantized matrix with the default block
// size. cols must satisfy the Vector block contract.
func NewMatrix(rows, cols int) *Matrix {
	return NewMatrixBlock(rows, cols, BlockSize)
}

// NewMatrixBlock allocates a rows×cols quantized matrix with an explicit
// block size.
func NewMatrixBlock(rows, cols, blockSize int) *Matrix {
	if rows <= 0 {
		panic("quantize: matrix needs at least one row")
	}
	m := &Matrix{
		Rows: make([]*Vector, rows),
		cols: cols,
	}
	for r := range m.Rows {
		m.Rows[r] = NewVectorBlock(cols, blockSize)
	}
	return m
}

// Dims returns the matrix dimensions.
func (m *Matrix) Dims() (rows, cols int) { return len(m.Rows), m.cols }

// Encode quantizes a flat row-major src of len rows*cols, one row per
// Vector.
func (m *Matrix) Encode(src []float32) {
	if len(src) != len(m.Rows)*m.cols {
		panic("quantize: source length does not match matrix dimensions")
	}
	for r, row := range m.Rows {
		row.Encode(src[r*m.cols : (r+1)*m.cols])
	}
}

// Decode dequantizes into a flat row-major dst of len rows*cols.
func (m *Matrix) Decode(dst []float32) {
	if len(dst) != len(m.Rows)*m.cols {
		panic("quantize: destination length does not match matrix dimensions")
	}
	for r, row := range m.Rows {
		row.Decode(dst[r*m.cols : (r+1)*m.cols])
	}
}
