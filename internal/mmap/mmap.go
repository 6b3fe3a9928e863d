// Package mmap provides read-only memory-mapped file access so large
// checkpoint files can be parsed without copying them through the heap.
package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when accessing a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidOffset is returned for a negative read offset.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// Mapping is a read-only memory-mapped file. It owns the mapped slice
// and unmaps it on Close.
type Mapping struct {
	data   []byte
	size   int
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size < 0 {
		return nil, errors.New("mmap: negative file size")
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data, size: int(size), unmap: unmap}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped slice. The slice is valid only until Close
// is called.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the mapping size in bytes.
func (m *Mapping) Size() int { return m.size }

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
