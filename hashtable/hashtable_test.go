package hashtable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertSearch(t *testing.T) {
	tbl := NewString[int](16)

	assert.Equal(t, Inserted, tbl.Insert("alpha", 1))
	assert.Equal(t, Inserted, tbl.Insert("beta", 2))
	assert.Equal(t, AlreadyExists, tbl.Insert("alpha", 99))
	assert.Equal(t, 2, tbl.Len())

	v, ok := tbl.Search("alpha")
	require.True(t, ok)
	assert.Equal(t, 1, v, "existing key keeps its original value")

	_, ok = tbl.Search("gamma")
	assert.False(t, ok)
}

func TestTable_IntKeys(t *testing.T) {
	tbl := NewInt32[string](8)

	for i := int32(0); i < 5; i++ {
		assert.Equal(t, Inserted, tbl.Insert(i, fmt.Sprintf("v%d", i)))
	}

	v, ok := tbl.Search(3)
	require.True(t, ok)
	assert.Equal(t, "v3", v)
}

func TestTable_Delete(t *testing.T) {
	tbl := NewString[int](16)
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)

	assert.Equal(t, Deleted, tbl.Delete("a"))
	assert.Equal(t, NotFound, tbl.Delete("a"))
	assert.Equal(t, 1, tbl.Len())

	_, ok := tbl.Search("a")
	assert.False(t, ok)

	v, ok := tbl.Search("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

// collideHash forces every key into the same home slot so probe chains
// are long and deterministic.
func collideHash(string) uint64 { return 0 }

func TestTable_DeleteRepairsProbeChain(t *testing.T) {
	tbl := New[string, int](8, collideHash)

	// All three land in slots 0, 1, 2.
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)
	tbl.Insert("c", 3)

	// Removing the middle of the run must not strand "c" behind an
	// empty slot.
	require.Equal(t, Deleted, tbl.Delete("b"))

	v, ok := tbl.Search("c")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = tbl.Search("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_DeleteHeadOfChain(t *testing.T) {
	tbl := New[string, int](8, collideHash)
	keys := []string{"a", "b", "c", "d"}
	for i, k := range keys {
		tbl.Insert(k, i)
	}

	require.Equal(t, Deleted, tbl.Delete("a"))
	for i, k := range keys[1:] {
		v, ok := tbl.Search(k)
		require.True(t, ok, "key %q lost after chain repair", k)
		assert.Equal(t, i+1, v)
	}
}

func TestTable_AutoResize(t *testing.T) {
	tbl := NewString[int](4)

	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("key-%d", i)
		require.Equal(t, Inserted, tbl.Insert(k, i))
	}
	assert.Equal(t, 50, tbl.Len())
	assert.Greater(t, tbl.Cap(), 50, "table must have grown past the entry count")

	for i := 0; i < 50; i++ {
		v, ok := tbl.Search(fmt.Sprintf("key-%d", i))
		require.True(t, ok, "key-%d missing after resizes", i)
		assert.Equal(t, i, v)
	}
}

func TestTable_ResizeShrinkIsNoop(t *testing.T) {
	tbl := NewString[int](16)
	tbl.Insert("a", 1)

	require.NoError(t, tbl.Resize(4))
	assert.Equal(t, 16, tbl.Cap())

	v, ok := tbl.Search("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestTable_Clear(t *testing.T) {
	tbl := NewString[int](8)
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)

	tbl.Clear()
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 8, tbl.Cap())

	_, ok := tbl.Search("a")
	assert.False(t, ok)

	assert.Equal(t, Inserted, tbl.Insert("a", 3))
}

func TestTable_Iterator(t *testing.T) {
	tbl := NewString[int](32)
	want := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	for k, v := range want {
		tbl.Insert(k, v)
	}

	got := map[string]int{}
	it := tbl.Iter()
	for {
		k, v, ok := it.Next()
		if !ok {
			break
		}
		got[k] = v
	}
	assert.Equal(t, want, got)
}

func TestTable_IteratorEmpty(t *testing.T) {
	tbl := NewString[int](8)
	_, _, ok := tbl.Iter().Next()
	assert.False(t, ok)
}

func TestHashFunctions(t *testing.T) {
	assert.Equal(t, uint64(5381), StringHash(""))
	// djb2("a") = 5381*33 + 'a'
	assert.Equal(t, uint64(5381*33+'a'), StringHash("a"))

	assert.Equal(t, uint64(2654435761), Int64Hash(1))
	assert.Equal(t, uint64(2654435761), Int32Hash(1))
	assert.NotEqual(t, Int32Hash(1), Int32Hash(2))
}

func BenchmarkTable_Insert(b *testing.B) {
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl := NewString[int](2048)
		for j, k := range keys {
			tbl.Insert(k, j)
		}
	}
}
