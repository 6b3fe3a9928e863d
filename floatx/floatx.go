// Package floatx implements bit-exact conversion between float32 and the
// reduced-precision storage formats used by the quantization layer.
//
// Four encodings are provided, named by their exponent/mantissa split:
//
//	E8M23: IEEE-754 binary32 passthrough (uint32 container)
//	E5M10: IEEE-754 binary16 / half (uint16 container, bias 15)
//	E8M7:  bfloat16 (uint16 container, bias 127, mantissa truncation)
//	E4M3:  8-bit float (uint8 container, bias 7)
//
// All conversions are pure and total: there is no error path, and
// malformed bit patterns decode to whatever IEEE-754 value they denote.
// Narrowing truncates the mantissa rather than rounding to nearest, and
// flushes source subnormals by shifting mantissa bits into the target
// width (no subnormal emulation). The sign bit survives every encode,
// including the sign of zero.
package floatx

import "math"

const (
	f32SignMask uint32 = 0x80000000
	f32ExpMask  uint32 = 0x7F800000
	f32FracMask uint32 = 0x007FFFFF
)

// E8M23Encode returns the raw binary32 bit pattern of v.
func E8M23Encode(v float32) uint32 {
	return math.Float32bits(v)
}

// E8M23Decode reinterprets a binary32 bit pattern as a float32.
func E8M23Decode(b uint32) float32 {
	return math.Float32frombits(b)
}

// E5M10Encode narrows v to the IEEE-754 binary16 bit layout.
//
// Underflowing exponents clamp to 0 (flush toward subnormal/zero) and
// overflowing exponents clamp to the all-ones field, both keeping the
// truncated mantissa.
func E5M10Encode(v float32) uint16 {
	b := E8M23Encode(v)
	sign := (b >> 31) & 0x1
	exp := (b >> 23) & 0xFF
	frac := b & f32FracMask

	// Zero
	if exp == 0 && frac == 0 {
		return uint16(sign << 15)
	}

	// Subnormal: flush mantissa into the narrow width.
	if exp == 0 {
		return uint16((sign << 15) | (frac >> 13))
	}

	// Inf
	if exp == 0xFF && frac == 0 {
		return uint16((sign << 15) | 0x7C00)
	}

	// NaN: canonical quiet NaN.
	if exp == 0xFF {
		return uint16((sign << 15) | 0x7E00)
	}

	// Normal: rebias 127 -> 15 and truncate the mantissa.
	rebias := int32(exp) - 127 + 15
	if rebias < 0 {
		rebias = 0 // underflow
	}
	if rebias > 0x1F {
		rebias = 0x1F // overflow
	}

	return uint16((sign << 15) | (uint32(rebias) << 10) | (frac >> 13))
}

// E5M10Decode widens a binary16 bit pattern to float32.
func E5M10Decode(b uint16) float32 {
	sign := uint32(b>>15) & 0x1
	exp := uint32(b>>10) & 0x1F
	frac := uint32(b) & 0x3FF

	// Zero
	if exp == 0 && frac == 0 {
		return E8M23Decode(sign << 31)
	}

	// Subnormal
	if exp == 0 {
		return E8M23Decode((sign << 31) | (frac << 13))
	}

	// Inf
	if exp == 0x1F && frac == 0 {
		return E8M23Decode((sign << 31) | f32ExpMask)
	}

	// NaN
	if exp == 0x1F {
		return E8M23Decode((sign << 31) | 0x7FC00000)
	}

	// Normal: rebias 15 -> 127.
	rebias := int32(exp) - 15 + 127
	if rebias < 0 {
		rebias = 0
	}
	if rebias > 0xFF {
		rebias = 0xFF
	}

	return E8M23Decode((sign << 31) | (uint32(rebias) << 23) | (frac << 13))
}

// E8M7Encode narrows v to the bfloat16 bit layout.
//
// bfloat16 keeps the binary32 exponent (bias 127), so the normal path is
// a straight truncation of the low 16 bits.
func E8M7Encode(v float32) uint16 {
	b := E8M23Encode(v)
	sign := (b >> 31) & 0x1
	exp := (b >> 23) & 0xFF
	frac := b & f32FracMask

	// Zero
	if exp == 0 && frac == 0 {
		return uint16(sign << 15)
	}

	// Subnormal
	if exp == 0 {
		return uint16((sign << 15) | (frac >> 16))
	}

	// Inf
	if exp == 0xFF && frac == 0 {
		return uint16((sign << 15) | 0x7F80)
	}

	// NaN: canonical quiet NaN.
	if exp == 0xFF {
		return uint16((sign << 15) | 0x7FC0)
	}

	return uint16(b >> 16)
}

// E8M7Decode widens a bfloat16 bit pattern to float32.
func E8M7Decode(b uint16) float32 {
	sign := uint32(b>>15) & 0x1
	exp := uint32(b>>7) & 0xFF
	frac := uint32(b) & 0x7F

	// Zero
	if exp == 0 && frac == 0 {
		return E8M23Decode(sign << 31)
	}

	// Subnormal
	if exp == 0 {
		return E8M23Decode((sign << 31) | (frac << 16))
	}

	// Inf
	if exp == 0xFF && frac == 0 {
		return E8M23Decode((sign << 31) | f32ExpMask)
	}

	// NaN
	if exp == 0xFF {
		return E8M23Decode((sign << 31) | 0x7FC00000)
	}

	return E8M23Decode(uint32(b) << 16)
}

// E4M3Encode narrows v to the 8-bit float layout: 1 sign bit, 4 exponent
// bits (bias 7), 3 mantissa bits.
//
// Exponent overflow returns the format's infinity pattern rather than
// wrapping; underflow clamps the exponent field to 0.
func E4M3Encode(v float32) uint8 {
	b := E8M23Encode(v)
	sign := (b >> 31) & 0x1
	exp := (b >> 23) & 0xFF
	frac := b & f32FracMask

	// Zero
	if exp == 0 && frac == 0 {
		return uint8(sign << 7)
	}

	// Subnormal
	if exp == 0 {
		return uint8((sign << 7) | (frac >> 20))
	}

	// Inf
	if exp == 0xFF && frac == 0 {
		return uint8((sign << 7) | 0x78) // exp=1111, mant=000
	}

	// NaN
	if exp == 0xFF {
		return uint8((sign << 7) | 0x7F) // exp=1111, mant=111
	}

	// Normal: rebias 127 -> 7.
	rebias := int32(exp) - 127 + 7
	if rebias < 0 {
		rebias = 0 // underflow
	}
	if rebias > 0xF {
		return uint8((sign << 7) | 0x78) // overflow saturates to inf
	}

	return uint8((sign << 7) | (uint32(rebias) << 3) | (frac >> 20))
}

// E4M3Decode widens an 8-bit float pattern to float32.
func E4M3Decode(b uint8) float32 {
	sign := uint32(b>>7) & 0x1
	exp := uint32(b>>3) & 0xF
	frac := uint32(b) & 0x7

	// Zero
	if exp == 0 && frac == 0 {
		return E8M23Decode(sign << 31)
	}

	// Subnormal
	if exp == 0 {
		return E8M23Decode((sign << 31) | (frac << 20))
	}

	// Inf
	if exp == 0xF && frac == 0 {
		return E8M23Decode((sign << 31) | f32ExpMask)
	}

	// NaN
	if exp == 0xF {
		return E8M23Decode((sign << 31) | 0x7FC00000)
	}

	// Normal: rebias 7 -> 127.
	rebias := int32(exp) - 7 + 127
	if rebias < 0 {
		rebias = 0
	}
	if rebias > 0xFF {
		rebias = 0xFF
	}

	return E8M23Decode((sign << 31) | (uint32(rebias) << 23) | (frac << 20))
}
