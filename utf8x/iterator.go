package utf8x

// Iterator walks a byte buffer one codepoint at a time. It owns a small
// fixed scratch buffer that each Next call refills, so the returned
// slice is only valid until the following call.
//
// An Iterator is a single-owner cursor: it must not be shared across
// goroutines.
type Iterator struct {
	src []byte
	off int
	buf [MaxWidth + 1]byte
}

// NewIterator returns an iterator positioned at the start of p.
func NewIterator(p []byte) *Iterator {
	return &Iterator{src: p}
}

// Next returns the next codepoint as a slice into the iterator's scratch
// buffer, or nil at end of input or on the first invalid byte. Stopping
// early is always safe.
func (it *Iterator) Next() []byte {
	if it.off >= len(it.src) {
		return nil
	}

	rest := it.src[it.off:]
	width := Width(rest[0])
	if width < 1 || !Valid(rest) {
		return nil // invalid or corrupt
	}

	n := copy(it.buf[:width], rest[:width])
	it.off += width
	return it.buf[:n]
}

// Offset returns the current byte position of the cursor.
func (it *Iterator) Offset() int { return it.off }

// Reset repositions the iterator at the start of its buffer.
func (it *Iterator) Reset() { it.off = 0 }
