package quantize

import "errors"

// Type is the closed enumeration of numeric storage types understood by
// the dispatch layer.
type Type uint8

const (
	// F32 stores elements as native float32.
	F32 Type = iota
	// E8M23 stores the raw binary32 bit pattern (alias of F32 storage).
	E8M23
	// E5M10 stores IEEE-754 binary16 (half).
	E5M10
	// E8M7 stores bfloat16.
	E8M7
	// E4M3 stores 8-bit floats (bias 7).
	E4M3
	// Q8 stores block-quantized vectors (see Vector).
	Q8

	typeCount
)

// ErrUnsupportedType is returned when a Type tag is outside the
// recognized set.
var ErrUnsupportedType = errors.New("quantize: unsupported type")

var typeData = [typeCount]struct {
	name string
	size int
}{
	F32:   {"f32", 4},
	E8M23: {"e8m23", 4},
	E5M10: {"e5m10", 2},
	E8M7:  {"e8m7", 2},
	E4M3:  {"e4m3", 1},
	Q8:    {"q8", 1},
}

// Valid reports whether t is a recognized type tag.
func (t Type) Valid() bool { return t < typeCount }

// String returns the canonical lowercase name of the type.
func (t Type) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return typeData[t].name
}

// Size returns the storage width in bytes of one element. For Q8 this is
// the width of one quantized value; block scales are accounted separately
// (one byte per block).
func (t Type) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeData[t].size
}
