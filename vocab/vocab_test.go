package vocab

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocab_AddLookup(t *testing.T) {
	v := New(16)

	id := v.Add("hello")
	assert.Equal(t, int32(0), id)
	assert.Equal(t, int32(1), v.Add("world"))
	assert.Equal(t, id, v.Add("hello"), "re-adding returns the original id")
	assert.Equal(t, 2, v.Len())

	got, ok := v.Lookup("hello")
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = v.Lookup("absent")
	assert.False(t, ok)
}

func TestVocab_ReverseLookup(t *testing.T) {
	v := New(16)
	id := v.Add("token")

	tok, ok := v.Token(id)
	require.True(t, ok)
	assert.Equal(t, "token", tok)

	_, ok = v.Token(999)
	assert.False(t, ok)
}

func TestVocab_Frequencies(t *testing.T) {
	v := New(16)
	v.AddText("the cat sat on the mat the end")

	assert.Equal(t, int32(3), v.Count("the"))
	assert.Equal(t, int32(1), v.Count("cat"))
	assert.Equal(t, int32(0), v.Count("dog"))
	assert.Equal(t, 6, v.Len())
}

func TestVocab_AddTextWhitespace(t *testing.T) {
	v := New(16)
	v.AddText("a\tb\nc\r\nd  e")
	assert.Equal(t, 5, v.Len())
}

func TestVocab_Remove(t *testing.T) {
	v := New(16)
	a := v.Add("a")
	b := v.Add("b")

	require.True(t, v.Remove("a"))
	assert.False(t, v.Remove("a"))
	assert.Equal(t, 1, v.Len())

	_, ok := v.Lookup("a")
	assert.False(t, ok)
	_, ok = v.Token(a)
	assert.False(t, ok)
	assert.False(t, v.Contains(a))
	assert.True(t, v.Contains(b))

	// Retired ids are not reused.
	assert.Equal(t, int32(2), v.Add("c"))
}

func TestVocab_Ids(t *testing.T) {
	v := New(16)
	v.Add("a")
	v.Add("b")
	v.Add("c")
	v.Remove("b")

	assert.Equal(t, []int32{0, 2}, v.Ids())
}

func TestVocab_SaveLoad(t *testing.T) {
	v := New(16)
	v.AddText("the cat sat on the mat")
	v.Remove("sat")

	var buf bytes.Buffer
	require.NoError(t, v.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, v.Len(), got.Len())
	assert.Equal(t, v.Ids(), got.Ids())
	for _, tok := range []string{"the", "cat", "on", "mat"} {
		wantID, ok := v.Lookup(tok)
		require.True(t, ok)
		gotID, ok := got.Lookup(tok)
		require.True(t, ok, "token %q lost in round trip", tok)
		assert.Equal(t, wantID, gotID)
		assert.Equal(t, v.Count(tok), got.Count(tok))
	}

	// New additions continue past the highest loaded id.
	assert.Equal(t, int32(5), got.Add("dog"))
}

func TestLoad_BadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF, 1, 0, 0, 0, 0, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestLoad_BadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(4).Save(&buf))
	b := buf.Bytes()
	b[4] = 99

	_, err := Load(bytes.NewReader(b))
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestLoad_CountExceedsInput(t *testing.T) {
	// A header claiming 2^32-1 entries with an empty body must fail on
	// the first missing entry, not size gigabytes of tables up front.
	var buf bytes.Buffer
	for _, h := range []uint32{magic, version, 0xFFFFFFFF} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	}

	_, err := Load(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

func TestLoad_TokenLengthExceedsInput(t *testing.T) {
	// The token length field claims ~4 GiB but the stream holds 5
	// bytes; the reader must stop at the bytes actually delivered.
	var buf bytes.Buffer
	for _, h := range []uint32{magic, version, 1, 0xFFFFFFF0} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	}
	buf.WriteString("short")

	_, err := Load(bytes.NewReader(buf.Bytes()))
	assert.Error(t, err)
}

func TestLoad_Truncated(t *testing.T) {
	v := New(4)
	v.Add("token")

	var buf bytes.Buffer
	require.NoError(t, v.Save(&buf))

	_, err := Load(bytes.NewReader(buf.Bytes()[:buf.Len()-2]))
	assert.Error(t, err)
}
