package floatx

import (
	"math"
	"testing"
)

func TestE8M23_RoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 3.14159, -2.5e-7, 6.02e23} {
		if got := E8M23Decode(E8M23Encode(v)); got != v {
			t.Fatalf("round trip %v: got %v", v, got)
		}
	}
}

func TestE5M10Encode_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint16
	}{
		{"+0", 0, 0x0000},
		{"-0", float32(math.Copysign(0, -1)), 0x8000},
		{"+1", 1, 0x3C00},
		{"-1", -1, 0xBC00},
		{"+1.5", 1.5, 0x3E00},
		{"+Inf", float32(math.Inf(1)), 0x7C00},
		{"-Inf", float32(math.Inf(-1)), 0xFC00},
		{"65504", 65504, 0x7BFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := E5M10Encode(tt.in); got != tt.want {
				t.Fatalf("got=%04x want=%04x", got, tt.want)
			}
		})
	}
}

func TestE5M10Encode_NaN(t *testing.T) {
	got := E5M10Encode(float32(math.NaN()))
	if got != 0x7E00 {
		t.Fatalf("expected canonical quiet NaN 0x7E00, got=%04x", got)
	}
}

func TestE5M10Encode_OverflowExactPower(t *testing.T) {
	// 2^20 has no mantissa bits, so exponent clamping yields a clean Inf.
	if got := E5M10Encode(float32(1 << 20)); got != 0x7C00 {
		t.Fatalf("got=%04x want=7c00", got)
	}
}

func TestE5M10Encode_UnderflowFlush(t *testing.T) {
	// Far below the binary16 normal range: exponent clamps to 0 and the
	// value flushes toward zero.
	got := E5M10Decode(E5M10Encode(1e-10))
	if got < 0 || got >= 6.2e-5 {
		t.Fatalf("expected flush toward zero, got=%g", got)
	}
}

func TestE5M10_RoundTripExact(t *testing.T) {
	// Values representable in 10 mantissa bits survive unchanged.
	for _, v := range []float32{1, 1.5, 2, 0.25, -0.125, 1024, -3.75, 0.0009765625} {
		if got := E5M10Decode(E5M10Encode(v)); got != v {
			t.Fatalf("round trip %v: got %v", v, got)
		}
	}
}

func TestE8M7Encode_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint16
	}{
		{"+0", 0, 0x0000},
		{"-0", float32(math.Copysign(0, -1)), 0x8000},
		{"+1", 1, 0x3F80},
		{"-1", -1, 0xBF80},
		{"+Inf", float32(math.Inf(1)), 0x7F80},
		{"-Inf", float32(math.Inf(-1)), 0xFF80},
		// 3.140625 is 0x40490000: the low 16 bits are zero, so the
		// truncation is exact.
		{"3.140625", 3.140625, 0x4049},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := E8M7Encode(tt.in); got != tt.want {
				t.Fatalf("got=%04x want=%04x", got, tt.want)
			}
		})
	}
}

func TestE8M7Encode_NaN(t *testing.T) {
	if got := E8M7Encode(float32(math.NaN())); got != 0x7FC0 {
		t.Fatalf("expected canonical quiet NaN 0x7FC0, got=%04x", got)
	}
}

func TestE8M7_TruncatesNotRounds(t *testing.T) {
	// 0x3F80FFFF truncates to 0x3F80 (1.0) even though the discarded
	// bits are closer to the next representable value.
	v := math.Float32frombits(0x3F80FFFF)
	if got := E8M7Encode(v); got != 0x3F80 {
		t.Fatalf("got=%04x want=3f80", got)
	}
}

func TestE8M7_ExponentRangeMatchesFloat32(t *testing.T) {
	// bfloat16 shares the binary32 exponent, so magnitudes near the
	// float32 extremes survive with only mantissa loss.
	for _, v := range []float32{1e38, 1e-38, -1e38} {
		got := E8M7Decode(E8M7Encode(v))
		if math.IsInf(float64(got), 0) || got == 0 {
			t.Fatalf("magnitude %g lost: got %g", v, got)
		}
	}
}

func TestE4M3Encode_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want uint8
	}{
		{"+0", 0, 0x00},
		{"-0", float32(math.Copysign(0, -1)), 0x80},
		{"+1", 1, 0x38},
		{"-1", -1, 0xB8},
		{"+2", 2, 0x40},
		{"+3.5", 3.5, 0x46},
		{"+Inf", float32(math.Inf(1)), 0x78},
		{"-Inf", float32(math.Inf(-1)), 0xF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := E4M3Encode(tt.in); got != tt.want {
				t.Fatalf("got=%02x want=%02x", got, tt.want)
			}
		})
	}
}

func TestE4M3Encode_NaN(t *testing.T) {
	if got := E4M3Encode(float32(math.NaN())); got != 0x7F {
		t.Fatalf("expected NaN pattern 0x7F, got=%02x", got)
	}
}

func TestE4M3Encode_OverflowSaturatesToInf(t *testing.T) {
	// Rebiased exponent above 15 must return the Inf pattern, not wrap.
	for _, v := range []float32{1e10, 65536, -1e10} {
		got := E4M3Encode(v)
		if got&0x7F != 0x78 {
			t.Fatalf("encode(%g)=%02x, want Inf pattern", v, got)
		}
		if (v < 0) != (got&0x80 != 0) {
			t.Fatalf("encode(%g)=%02x, sign lost", v, got)
		}
	}
}

func TestE4M3_RoundTripRelativeError(t *testing.T) {
	// 3 mantissa bits give a worst-case truncation step of 1/8 (12.5%
	// relative) inside the normal range.
	for v := float32(0.125); v < 200; v *= 1.37 {
		got := E4M3Decode(E4M3Encode(v))
		rel := math.Abs(float64(got-v)) / float64(v)
		if rel >= 0.125 {
			t.Fatalf("encode(%g)->%g: relative error %g >= 0.125", v, got, rel)
		}
	}
}

func TestDecode_SpecialClassPreservation(t *testing.T) {
	if !math.IsNaN(float64(E5M10Decode(0x7E01))) {
		t.Fatal("e5m10 NaN class lost")
	}
	if !math.IsNaN(float64(E8M7Decode(0x7FC1))) {
		t.Fatal("e8m7 NaN class lost")
	}
	if !math.IsNaN(float64(E4M3Decode(0x79))) {
		t.Fatal("e4m3 NaN class lost")
	}
	if !math.IsInf(float64(E5M10Decode(0xFC00)), -1) {
		t.Fatal("e5m10 -Inf class lost")
	}
	if !math.IsInf(float64(E4M3Decode(0xF8)), -1) {
		t.Fatal("e4m3 -Inf class lost")
	}
	if bits := math.Float32bits(E8M7Decode(0x8000)); bits != 0x80000000 {
		t.Fatalf("e8m7 -0 sign lost: %08x", bits)
	}
}
