// Package tensorio reads and writes tensor checkpoint files.
//
// A checkpoint holds named 2D tensors, each stored under one of the
// quantize type tags. Q8 tensors are serialized row by row as scales
// followed by values; scalar formats are packed densely little-endian.
// Each tensor payload is framed as a single optionally compressed block
// with a CRC-32 checksum, so corruption is detected at read time rather
// than surfacing as garbage weights.
//
// The writer quantizes rows in parallel. Readers come in two flavors:
// Read buffers the whole stream in memory, Open maps the file read-only
// and decodes tensors lazily on demand.
package tensorio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/nlsommer/graintext/hashtable"
	"github.com/nlsommer/graintext/internal/mmap"
	"github.com/nlsommer/graintext/quantize"
)

const (
	// magic is "grt\0" read as a little-endian uint32.
	magic   = 0x00747267
	version = 1
)

var (
	// ErrBadMagic is returned when a stream does not start with the
	// checkpoint magic number.
	ErrBadMagic = errors.New("tensorio: bad magic")
	// ErrBadVersion is returned for an unsupported format version.
	ErrBadVersion = errors.New("tensorio: unsupported version")
	// ErrTruncated is returned when a stream ends mid-structure.
	ErrTruncated = errors.New("tensorio: truncated file")
	// ErrNotFound is returned when looking up a tensor name the file
	// does not contain.
	ErrNotFound = errors.New("tensorio: tensor not found")
)

// Tensor is a named row-major 2D tensor with its storage type tag.
type Tensor struct {
	Name string
	Type quantize.Type
	Rows int
	Cols int
	Data []float32
}

// Info describes a stored tensor without decoding it.
type Info struct {
	Type quantize.Type
	Rows int
	Cols int
}

// Write serializes tensors to w.
//
// Layout, all little-endian:
//
//	u32 magic ("grt\0")  u32 version  u8 compression  u32 count
//	per tensor: u32 nameLen, name bytes, u8 type, u32 rows, u32 cols,
//	            u64 frameLen, framed payload
func Write(ctx context.Context, w io.Writer, tensors []*Tensor, optFns ...func(*Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if !opts.Compression.Valid() {
		return fmt.Errorf("tensorio: unknown compression %d", opts.Compression)
	}
	if opts.BlockSize <= 0 {
		return fmt.Errorf("tensorio: block size %d must be positive", opts.BlockSize)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions.Concurrency
	}

	for _, t := range tensors {
		if err := validate(t, opts); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(magic)); err != nil {
		return fmt.Errorf("tensorio: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(version)); err != nil {
		return fmt.Errorf("tensorio: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(opts.Compression)); err != nil {
		return fmt.Errorf("tensorio: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(tensors))); err != nil {
		return fmt.Errorf("tensorio: write header: %w", err)
	}

	for _, t := range tensors {
		payload, err := encodeTensor(ctx, t, opts)
		if err != nil {
			return fmt.Errorf("tensorio: encode %q: %w", t.Name, err)
		}
		frame, err := frameBlock(payload, opts.Compression)
		if err != nil {
			return fmt.Errorf("tensorio: frame %q: %w", t.Name, err)
		}

		if err := binary.Write(w, binary.LittleEndian, uint32(len(t.Name))); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if _, err := io.WriteString(w, t.Name); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(t.Type)); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(t.Rows)); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(t.Cols)); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(frame))); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
		if _, err := w.Write(frame); err != nil {
			return fmt.Errorf("tensorio: write %q: %w", t.Name, err)
		}
	}
	return nil
}

func validate(t *Tensor, opts Options) error {
	if t.Name == "" {
		return errors.New("tensorio: tensor name is empty")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("tensorio: %q: %w", t.Name, quantize.ErrUnsupportedType)
	}
	if t.Rows <= 0 || t.Cols <= 0 || len(t.Data) != t.Rows*t.Cols {
		return fmt.Errorf("tensorio: %q: data length %d does not match %dx%d",
			t.Name, len(t.Data), t.Rows, t.Cols)
	}
	if t.Type == quantize.Q8 && t.Cols%opts.BlockSize != 0 {
		return fmt.Errorf("tensorio: %q: %d columns not a multiple of block size %d",
			t.Name, t.Cols, opts.BlockSize)
	}
	return nil
}

// encodeTensor quantizes a tensor's rows in parallel into its on-disk
// payload.
func encodeTensor(ctx context.Context, t *Tensor, opts Options) ([]byte, error) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	if t.Type == quantize.Q8 {
		vecs := make([]*quantize.Vector, t.Rows)
		for r := 0; r < t.Rows; r++ {
			r := r
			g.Go(func() error {
				v := quantize.NewVectorBlock(t.Cols, opts.BlockSize)
				v.Encode(t.Data[r*t.Cols : (r+1)*t.Cols])
				vecs[r] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var payload []byte
		for _, v := range vecs {
			b, err := v.MarshalBinary()
			if err != nil {
				return nil, err
			}
			payload = append(payload, b...)
		}
		return payload, nil
	}

	stride := t.Type.Size()
	payload := make([]byte, t.Rows*t.Cols*stride)
	rowBytes := t.Cols * stride
	for r := 0; r < t.Rows; r++ {
		r := r
		g.Go(func() error {
			return quantize.QuantizeVec(
				payload[r*rowBytes:(r+1)*rowBytes],
				t.Data[r*t.Cols:(r+1)*t.Cols],
				t.Type,
			)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payload, nil
}

// section is a stored tensor's metadata plus its still-framed payload.
type section struct {
	info  Info
	frame []byte
}

// File is an open checkpoint. Tensors are decoded on demand; the raw
// payloads stay framed (and, under Open, memory-mapped) until asked
// for. Not safe for concurrent use with Close.
type File struct {
	compression Compression
	sections    *hashtable.Table[string, *section]
	names       []string
	closer      io.Closer
}

// Read parses a checkpoint from r, buffering it fully in memory.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tensorio: read: %w", err)
	}
	return parse(data, nil)
}

// Open memory-maps the checkpoint at path. Tensor payloads are read
// from the mapping on demand, so opening a large file is cheap. Close
// must be called to release the mapping.
func Open(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tensorio: open %s: %w", path, err)
	}
	f, err := parse(m.Bytes(), m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return f, nil
}

func parse(data []byte, closer io.Closer) (*File, error) {
	if len(data) < 13 {
		return nil, ErrTruncated
	}
	if binary.LittleEndian.Uint32(data[0:]) != magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	compression := Compression(data[8])
	if !compression.Valid() {
		return nil, fmt.Errorf("tensorio: unknown compression %d", compression)
	}
	count := int(binary.LittleEndian.Uint32(data[9:]))
	// A tensor record is at least 21 bytes (empty name, empty frame); a
	// count the remaining bytes cannot hold is corrupt, and must be
	// rejected before it sizes any allocation.
	if count > (len(data)-13)/21 {
		return nil, ErrTruncated
	}

	f := &File{
		compression: compression,
		sections:    hashtable.NewString[*section](count * 2),
		names:       make([]string, 0, count),
		closer:      closer,
	}

	off := 13
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return nil, ErrTruncated
		}
		nameLen := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4

		if off+nameLen+17 > len(data) {
			return nil, ErrTruncated
		}
		name := string(data[off : off+nameLen])
		off += nameLen

		typ := quantize.Type(data[off])
		off++
		if !typ.Valid() {
			return nil, fmt.Errorf("tensorio: tensor %q: %w", name, quantize.ErrUnsupportedType)
		}

		rows := int(binary.LittleEndian.Uint32(data[off:]))
		cols := int(binary.LittleEndian.Uint32(data[off+4:]))
		frameLen64 := binary.LittleEndian.Uint64(data[off+8:])
		off += 16

		if rows <= 0 || cols <= 0 {
			return nil, fmt.Errorf("tensorio: tensor %q: bad shape %dx%d", name, rows, cols)
		}
		// Compare in uint64: converting the field to int first would go
		// negative for values >= 2^63 and slip past the bounds check.
		if frameLen64 > uint64(len(data)-off) {
			return nil, ErrTruncated
		}
		frameLen := int(frameLen64)

		s := &section{
			info:  Info{Type: typ, Rows: rows, Cols: cols},
			frame: data[off : off+frameLen],
		}
		off += frameLen

		if f.sections.Insert(name, s) != hashtable.Inserted {
			return nil, fmt.Errorf("tensorio: duplicate tensor %q", name)
		}
		f.names = append(f.names, name)
	}

	return f, nil
}

// Names returns the tensor names in file order.
func (f *File) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Info returns a stored tensor's shape and type without decoding it.
func (f *File) Info(name string) (Info, error) {
	s, ok := f.sections.Search(name)
	if !ok {
		return Info{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.info, nil
}

// Tensor decodes the named tensor back to float32.
func (f *File) Tensor(name string) (*Tensor, error) {
	s, ok := f.sections.Search(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	payload, err := unframeBlock(s.frame, f.compression)
	if err != nil {
		return nil, fmt.Errorf("tensorio: tensor %q: %w", name, err)
	}

	t := &Tensor{
		Name: name,
		Type: s.info.Type,
		Rows: s.info.Rows,
		Cols: s.info.Cols,
		Data: make([]float32, s.info.Rows*s.info.Cols),
	}

	if t.Type == quantize.Q8 {
		if err := decodeQ8Rows(t, payload); err != nil {
			return nil, fmt.Errorf("tensorio: tensor %q: %w", name, err)
		}
		return t, nil
	}

	if want := len(t.Data) * t.Type.Size(); len(payload) != want {
		return nil, fmt.Errorf("tensorio: tensor %q: payload is %d bytes, want %d",
			name, len(payload), want)
	}
	if err := quantize.DequantizeVec(t.Data, payload, t.Type); err != nil {
		return nil, fmt.Errorf("tensorio: tensor %q: %w", name, err)
	}
	return t, nil
}

// decodeQ8Rows walks the concatenated per-row vector records in
// payload and decodes each into its slice of t.Data.
func decodeQ8Rows(t *Tensor, payload []byte) error {
	off := 0
	for r := 0; r < t.Rows; r++ {
		if off+8 > len(payload) {
			return ErrTruncated
		}
		blockSize := int(binary.LittleEndian.Uint32(payload[off:]))
		n := int(binary.LittleEndian.Uint32(payload[off+4:]))
		if blockSize <= 0 || n != t.Cols || n%blockSize != 0 {
			return fmt.Errorf("row %d: bad vector header (n=%d block=%d)", r, n, blockSize)
		}

		rowLen := 8 + n/blockSize + n
		if off+rowLen > len(payload) {
			return ErrTruncated
		}

		var v quantize.Vector
		if err := v.UnmarshalBinary(payload[off : off+rowLen]); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
		v.Decode(t.Data[r*t.Cols : (r+1)*t.Cols])
		off += rowLen
	}
	if off != len(payload) {
		return fmt.Errorf("payload has %d trailing bytes", len(payload)-off)
	}
	return nil
}

// Close releases the underlying mapping, if any. Tensors decoded before
// Close remain valid; Tensor and Info must not be called afterwards on
// a mapped file.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
