// Package utf8x implements low-level UTF-8 codepoint operations over raw
// byte buffers: lead-byte width detection, strict validation, decoding,
// and cursor navigation in both directions.
//
// The package deliberately re-implements the small subset of UTF-8
// handling the segmentation engine needs rather than relying on the
// standard library, because the grapheme layer depends on the exact
// degraded-input behavior specified here: scans stop at the first
// invalid byte and return the valid prefix.
package utf8x

import "errors"

// ErrInvalidUTF8 is reported by eager operations that refuse to
// materialize results over a malformed sequence.
var ErrInvalidUTF8 = errors.New("utf8x: invalid UTF-8 sequence")

// MaxWidth is the maximum number of bytes in one UTF-8 codepoint.
const MaxWidth = 4

// Width returns the byte width (1..4) a lead byte declares, or -1 for
// anything that cannot start a sequence, including lone continuation
// bytes.
func Width(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return -1
	}
}

// Valid reports whether p begins with one complete, well-formed UTF-8
// codepoint. Beyond continuation-byte structure it rejects overlong
// encodings, UTF-16 surrogate halves, and code points above U+10FFFF.
func Valid(p []byte) bool {
	if len(p) == 0 {
		return false
	}

	width := Width(p[0])
	if width == -1 || len(p) < width {
		return false
	}

	if width == 1 {
		return true
	}

	for i := 1; i < width; i++ {
		if p[i]&0xC0 != 0x80 {
			return false
		}
	}

	switch width {
	case 2:
		if p[0] < 0xC2 {
			return false // overlong
		}
	case 3:
		if p[0] == 0xE0 && p[1] < 0xA0 {
			return false // overlong
		}
		if p[0] == 0xED && p[1] >= 0xA0 {
			return false // surrogate half
		}
	case 4:
		if p[0] == 0xF0 && p[1] < 0x90 {
			return false // overlong
		}
		if p[0] == 0xF4 && p[1] > 0x8F {
			return false // above U+10FFFF
		}
	}

	return true
}

// Decode returns the codepoint starting at p[0], assuming the sequence
// has already been validated. It returns -1 if the lead byte declares no
// usable width.
func Decode(p []byte) rune {
	if len(p) == 0 {
		return -1
	}
	switch Width(p[0]) {
	case 1:
		return rune(p[0])
	case 2:
		return rune(p[0]&0x1F)<<6 | rune(p[1]&0x3F)
	case 3:
		return rune(p[0]&0x0F)<<12 | rune(p[1]&0x3F)<<6 | rune(p[2]&0x3F)
	case 4:
		return rune(p[0]&0x07)<<18 | rune(p[1]&0x3F)<<12 |
			rune(p[2]&0x3F)<<6 | rune(p[3]&0x3F)
	default:
		return -1
	}
}

// Next returns the byte offset of the codepoint following the one at
// off, or -1 when off does not sit on a valid codepoint or the next
// offset would reach the end of p. Forward navigation is O(1).
func Next(p []byte, off int) int {
	if off < 0 || off >= len(p) {
		return -1
	}
	width := Width(p[off])
	if width < 1 || !Valid(p[off:]) {
		return -1
	}
	next := off + width
	if next >= len(p) {
		return -1
	}
	return next
}

// Prev returns the byte offset of the codepoint preceding off, or -1.
// It scans at most MaxWidth bytes backward looking for a lead byte whose
// declared width lands exactly on off; this worst-case O(4) probe is
// intrinsic to UTF-8.
func Prev(p []byte, off int) int {
	if off <= 0 || off > len(p) {
		return -1
	}
	for i := 1; i <= MaxWidth && off-i >= 0; i++ {
		start := off - i
		width := Width(p[start])
		if width < 1 {
			continue
		}
		if start+width == off && Valid(p[start:]) {
			return start
		}
	}
	return -1
}

// Count returns the number of codepoints in p, or an error at the first
// malformed byte.
func Count(p []byte) (int, error) {
	count := 0
	for off := 0; off < len(p); {
		if !Valid(p[off:]) {
			return 0, ErrInvalidUTF8
		}
		count++
		off += Width(p[off])
	}
	return count, nil
}

// Index returns a fresh copy of the codepoint at the given index, or nil
// when the index is out of range or an invalid byte is reached first.
func Index(p []byte, index int) []byte {
	if index < 0 {
		return nil
	}
	count := 0
	for off := 0; off < len(p); {
		if !Valid(p[off:]) {
			return nil
		}
		width := Width(p[off])
		if count == index {
			cp := make([]byte, width)
			copy(cp, p[off:off+width])
			return cp
		}
		off += width
		count++
	}
	return nil
}

// Split eagerly materializes every codepoint of p as an independently
// owned slice. A malformed byte fails the whole operation.
func Split(p []byte) ([][]byte, error) {
	var parts [][]byte
	for off := 0; off < len(p); {
		if !Valid(p[off:]) {
			return nil, ErrInvalidUTF8
		}
		width := Width(p[off])
		cp := make([]byte, width)
		copy(cp, p[off:off+width])
		parts = append(parts, cp)
		off += width
	}
	return parts, nil
}
