// Package vocab maps token strings to dense int32 ids for tokenization
// pipelines. Ids are assigned in insertion order and survive removal of
// other tokens; a roaring bitmap tracks the live id set for membership
// checks and ordered iteration.
package vocab

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/nlsommer/graintext/hashtable"
)

const (
	// magic is "vox\0" read as a little-endian uint32.
	magic   = 0x00786F76
	version = 1
)

var (
	// ErrBadMagic is returned when a stream does not start with the
	// vocabulary magic number.
	ErrBadMagic = errors.New("vocab: bad magic")
	// ErrBadVersion is returned for an unsupported format version.
	ErrBadVersion = errors.New("vocab: unsupported version")
)

type entry struct {
	token string
	id    int32
	freq  int32
}

// Vocab is a bidirectional token/id mapping with per-token frequency
// counts. It is not safe for concurrent use.
type Vocab struct {
	tokens  *hashtable.Table[string, *entry]
	reverse *hashtable.Table[int32, *entry]
	ids     *roaring.Bitmap
	next    int32
}

// New returns an empty vocabulary sized for the given number of tokens.
func New(capacity int) *Vocab {
	return &Vocab{
		tokens:  hashtable.NewString[*entry](capacity * 2),
		reverse: hashtable.NewInt32[*entry](capacity * 2),
		ids:     roaring.New(),
	}
}

// Add records one occurrence of token and returns its id, assigning the
// next free id on first sight.
func (v *Vocab) Add(token string) int32 {
	if e, ok := v.tokens.Search(token); ok {
		e.freq++
		return e.id
	}

	e := &entry{token: token, id: v.next, freq: 1}
	v.tokens.Insert(token, e)
	v.reverse.Insert(e.id, e)
	v.ids.Add(uint32(e.id))
	v.next++
	return e.id
}

// AddText splits text on ASCII whitespace and adds every word.
func (v *Vocab) AddText(text string) {
	for _, word := range strings.Fields(text) {
		v.Add(word)
	}
}

// Lookup returns the id for token.
func (v *Vocab) Lookup(token string) (int32, bool) {
	e, ok := v.tokens.Search(token)
	if !ok {
		return 0, false
	}
	return e.id, true
}

// Token returns the token for id.
func (v *Vocab) Token(id int32) (string, bool) {
	e, ok := v.reverse.Search(id)
	if !ok {
		return "", false
	}
	return e.token, true
}

// Count returns the recorded frequency of token, zero if absent.
func (v *Vocab) Count(token string) int32 {
	e, ok := v.tokens.Search(token)
	if !ok {
		return 0
	}
	return e.freq
}

// Remove drops token from the vocabulary. Its id is retired, not
// reused.
func (v *Vocab) Remove(token string) bool {
	e, ok := v.tokens.Search(token)
	if !ok {
		return false
	}
	v.tokens.Delete(token)
	v.reverse.Delete(e.id)
	v.ids.Remove(uint32(e.id))
	return true
}

// Contains reports whether id is live.
func (v *Vocab) Contains(id int32) bool {
	return v.ids.Contains(uint32(id))
}

// Len returns the number of live tokens.
func (v *Vocab) Len() int {
	return v.tokens.Len()
}

// Ids returns the live ids in ascending order.
func (v *Vocab) Ids() []int32 {
	out := make([]int32, 0, v.ids.GetCardinality())
	it := v.ids.Iterator()
	for it.HasNext() {
		out = append(out, int32(it.Next()))
	}
	return out
}

// Save writes the vocabulary to w.
//
// Layout, all little-endian:
//
//	u32 magic ("vox\0")  u32 version  u32 count
//	per entry: u32 tokLen, tokLen token bytes, i32 id, i32 freq
func (v *Vocab) Save(w io.Writer) error {
	hdr := []uint32{magic, version, uint32(v.Len())}
	for _, h := range hdr {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return fmt.Errorf("vocab: write header: %w", err)
		}
	}

	// Walk ids in ascending order so the on-disk layout is stable
	// regardless of table capacity.
	it := v.ids.Iterator()
	for it.HasNext() {
		e, _ := v.reverse.Search(int32(it.Next()))

		if err := binary.Write(w, binary.LittleEndian, uint32(len(e.token))); err != nil {
			return fmt.Errorf("vocab: write entry: %w", err)
		}
		if _, err := io.WriteString(w, e.token); err != nil {
			return fmt.Errorf("vocab: write entry: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, e.id); err != nil {
			return fmt.Errorf("vocab: write entry: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, e.freq); err != nil {
			return fmt.Errorf("vocab: write entry: %w", err)
		}
	}
	return nil
}

// Load reads a vocabulary written by Save.
func Load(r io.Reader) (*Vocab, error) {
	var hdr [3]uint32
	for i := range hdr {
		if err := binary.Read(r, binary.LittleEndian, &hdr[i]); err != nil {
			return nil, fmt.Errorf("vocab: read header: %w", err)
		}
	}
	if hdr[0] != magic {
		return nil, ErrBadMagic
	}
	if hdr[1] != version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, hdr[1])
	}

	count := int(hdr[2])
	// The count is untrusted until the entries actually arrive, so it
	// serves as a capacity hint only up to a bound; the tables grow on
	// their own past it.
	v := New(min(count, 4096))
	for i := 0; i < count; i++ {
		var tokLen uint32
		if err := binary.Read(r, binary.LittleEndian, &tokLen); err != nil {
			return nil, fmt.Errorf("vocab: read entry %d: %w", i, err)
		}

		// CopyN grows the buffer with the bytes the stream actually
		// delivers, so a lying length field cannot demand a huge
		// upfront allocation.
		var sb strings.Builder
		if _, err := io.CopyN(&sb, r, int64(tokLen)); err != nil {
			return nil, fmt.Errorf("vocab: read entry %d: %w", i, err)
		}

		e := &entry{token: sb.String()}
		if err := binary.Read(r, binary.LittleEndian, &e.id); err != nil {
			return nil, fmt.Errorf("vocab: read entry %d: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &e.freq); err != nil {
			return nil, fmt.Errorf("vocab: read entry %d: %w", i, err)
		}

		v.tokens.Insert(e.token, e)
		v.reverse.Insert(e.id, e)
		v.ids.Add(uint32(e.id))
		if e.id >= v.next {
			v.next = e.id + 1
		}
	}
	return v, nil
}
