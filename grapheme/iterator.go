package grapheme

import "github.com/nlsommer/graintext/utf8x"

// Iterator yields one grapheme cluster per Next call. The lookback
// window persists across calls within one iterator, so a sequence of
// Next calls segments exactly as a single eager Split would.
//
// An Iterator is a single-owner cursor and must not be shared across
// goroutines.
type Iterator struct {
	src       []byte
	off       int
	win       window
	truncated bool
}

// NewIterator returns an iterator positioned at the start of s with a
// cleared lookback window.
func NewIterator(s string) *Iterator {
	return &Iterator{src: []byte(s)}
}

// Next returns the next cluster as a freshly owned string, or "" when
// the input is exhausted or an invalid byte stops the scan. A cluster
// cut short by an invalid byte is still returned (non-empty); the
// following call returns "". It is safe to stop before full consumption.
func (it *Iterator) Next() string {
	if it.truncated || it.off >= len(it.src) {
		return ""
	}

	start := it.off
	for it.off < len(it.src) {
		rest := it.src[it.off:]
		if !utf8x.Valid(rest) {
			it.truncated = true
			break
		}

		cp := utf8x.Decode(rest)
		if it.off > start && isBreak(&it.win, cp) {
			break
		}

		it.win.push(cp)
		it.off += utf8x.Width(rest[0])
	}

	return string(it.src[start:it.off])
}

// Truncated reports whether the scan stopped on an invalid byte rather
// than at end of input.
func (it *Iterator) Truncated() bool { return it.truncated }

// Offset returns the current byte position of the cursor.
func (it *Iterator) Offset() int { return it.off }
