// Package hashtable implements an open-addressed hash table with linear
// probing, generic over key and value types.
//
// The table mirrors the probing discipline its callers (the tokenizer
// vocabulary and allocator bookkeeping) rely on: slots are scanned
// sequentially from a key's home slot, deletion repairs the probe chain
// by reinserting the remainder of the run, and resizing always rehashes
// into a fresh slot array because probe sequences depend on capacity.
//
// A Table performs no internal locking. Sharing one across goroutines
// requires external mutual exclusion around every logical operation;
// in particular, an iterator invalidated by a concurrent resize has
// undefined behavior, so any lock must be held for the full iteration.
package hashtable

import "errors"

// knuth is the 32-bit multiplicative hashing constant.
const knuth = 2654435761

// maxLoadFactor triggers an automatic doubling before an insert would
// push the table past it.
const maxLoadFactor = 0.75

// defaultCapacity is used when the capacity hint is not positive.
const defaultCapacity = 10

// ErrResize is returned when a resize cannot rehash every live entry.
var ErrResize = errors.New("hashtable: resize failed to rehash entries")

// InsertResult reports the outcome of an Insert.
type InsertResult uint8

const (
	// Inserted means the key was stored.
	Inserted InsertResult = iota
	// AlreadyExists means the key was present; the value is unchanged.
	AlreadyExists
	// Full means every probe slot was occupied and growth failed.
	Full
)

// DeleteResult reports the outcome of a Delete.
type DeleteResult uint8

const (
	// Deleted means the key was removed.
	Deleted DeleteResult = iota
	// NotFound means the key was not present.
	NotFound
)

// HashFunc maps a key to a 64-bit hash. The table reduces it modulo its
// capacity to a home slot.
type HashFunc[K comparable] func(K) uint64

// Int64Hash is Knuth's multiplicative hash over a 64-bit integer key.
func Int64Hash(k int64) uint64 { return uint64(k) * knuth }

// Int32Hash is Knuth's multiplicative hash over a 32-bit integer key.
func Int32Hash(k int32) uint64 { return uint64(uint32(k)) * knuth }

// UintptrHash hashes a pointer-sized key, for identity tables keyed on
// addresses or handles.
func UintptrHash(k uintptr) uint64 { return uint64(k) * knuth }

// StringHash is djb2 over the key bytes.
func StringHash(k string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(k); i++ {
		h = ((h << 5) + h) + uint64(k[i]) // h*33 + c
	}
	return h
}

type slot[K comparable, V any] struct {
	key   K
	value V
	used  bool
}

// Table is an open-addressed hash table with linear probing.
type Table[K comparable, V any] struct {
	slots []slot[K, V]
	count int
	hash  HashFunc[K]
}

// New creates a table with the given capacity hint and hash function.
// Non-positive hints fall back to a small default.
func New[K comparable, V any](capacity int, hash HashFunc[K]) *Table[K, V] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Table[K, V]{
		slots: make([]slot[K, V], capacity),
		hash:  hash,
	}
}

// NewString creates a string-keyed table using djb2.
func NewString[V any](capacity int) *Table[string, V] {
	return New[string, V](capacity, StringHash)
}

// NewInt32 creates an int32-keyed table using Knuth's multiplicative
// hash.
func NewInt32[V any](capacity int) *Table[int32, V] {
	return New[int32, V](capacity, Int32Hash)
}

// NewInt64 creates an int64-keyed table using Knuth's multiplicative
// hash.
func NewInt64[V any](capacity int) *Table[int64, V] {
	return New[int64, V](capacity, Int64Hash)
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int { return t.count }

// Cap returns the current slot count.
func (t *Table[K, V]) Cap() int { return len(t.slots) }

// probe returns the slot index for key at probe step i.
func (t *Table[K, V]) probe(key K, i int) int {
	return int((t.hash(key) + uint64(i)) % uint64(len(t.slots)))
}

// insert places key without load-factor management. Used by both Insert
// and the rehash paths.
func (t *Table[K, V]) insert(key K, value V) InsertResult {
	for i := 0; i < len(t.slots); i++ {
		idx := t.probe(key, i)
		s := &t.slots[idx]

		if !s.used {
			s.key = key
			s.value = value
			s.used = true
			t.count++
			return Inserted
		}
		if s.key == key {
			return AlreadyExists
		}
	}
	return Full
}

// Insert stores key → value. If the insert would push the load factor
// past the threshold the table doubles and rehashes first. Existing keys
// are left untouched and reported as AlreadyExists.
func (t *Table[K, V]) Insert(key K, value V) InsertResult {
	if float64(t.count)/float64(len(t.slots)) > maxLoadFactor {
		if err := t.Resize(len(t.slots) * 2); err != nil {
			return Full
		}
	}
	return t.insert(key, value)
}

// Search returns the value stored under key. The probe stops at the
// first empty slot: linear probing guarantees an unbroken run from the
// home slot to any live entry.
func (t *Table[K, V]) Search(key K) (V, bool) {
	var zero V
	for i := 0; i < len(t.slots); i++ {
		idx := t.probe(key, i)
		s := &t.slots[idx]

		if !s.used {
			return zero, false
		}
		if s.key == key {
			return s.value, true
		}
	}
	return zero, false
}

// Delete removes key and repairs the probe chain: every entry in the
// contiguous run after the vacated slot is lifted out and reinserted,
// so later Search calls still reach entries that had probed past the
// deleted one.
func (t *Table[K, V]) Delete(key K) DeleteResult {
	var zero slot[K, V]

	for i := 0; i < len(t.slots); i++ {
		idx := t.probe(key, i)
		s := &t.slots[idx]

		if !s.used {
			return NotFound
		}
		if s.key != key {
			continue
		}

		*s = zero
		t.count--

		// Reinsert the remainder of the probe sequence.
		for j := i + 1; j < len(t.slots); j++ {
			ridx := t.probe(key, j)
			rs := &t.slots[ridx]
			if !rs.used {
				break
			}

			rkey, rvalue := rs.key, rs.value
			*rs = zero
			t.count--
			t.insert(rkey, rvalue)
		}

		return Deleted
	}

	return NotFound
}

// Clear empties the table without changing its capacity.
func (t *Table[K, V]) Clear() {
	clear(t.slots)
	t.count = 0
}

// Resize rehashes every live entry into a fresh slot array of the given
// capacity. Shrinking below the current capacity is a no-op, matching
// the grow-only contract of the probing scheme. On failure the original
// slots are restored untouched.
func (t *Table[K, V]) Resize(capacity int) error {
	if capacity <= len(t.slots) {
		return nil
	}

	old := t.slots
	t.slots = make([]slot[K, V], capacity)
	t.count = 0

	for i := range old {
		if !old[i].used {
			continue
		}
		if t.insert(old[i].key, old[i].value) != Inserted {
			t.slots = old
			t.recount()
			return ErrResize
		}
	}
	return nil
}

func (t *Table[K, V]) recount() {
	t.count = 0
	for i := range t.slots {
		if t.slots[i].used {
			t.count++
		}
	}
}

// Iterator walks live entries in probe (slot) order. The order is a
// function of the current capacity and must not be assumed stable
// across inserts or resizes.
type Iterator[K comparable, V any] struct {
	table *Table[K, V]
	index int
}

// Iter returns an iterator over the table's live entries.
func (t *Table[K, V]) Iter() *Iterator[K, V] {
	return &Iterator[K, V]{table: t}
}

// Next returns the next live entry, or ok=false when the table is
// exhausted.
func (it *Iterator[K, V]) Next() (key K, value V, ok bool) {
	for it.index < len(it.table.slots) {
		s := &it.table.slots[it.index]
		it.index++
		if s.used {
			return s.key, s.value, true
		}
	}
	var zk K
	var zv V
	return zk, zv, false
}
