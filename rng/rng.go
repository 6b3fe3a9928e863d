// Package rng provides small deterministic pseudo-random generators for
// test fixtures and weight initialization. Both generators hold their
// state in an explicit struct value, so independent streams are cheap
// and reproducible. Neither is cryptographically secure.
package rng

const (
	lehmerModulus    = 2147483647 // 2^31 - 1, Mersenne prime
	lehmerMultiplier = 48271
	lehmerSeed       = 123456789
)

// Lehmer is a Park-Miller multiplicative congruential generator over
// the Mersenne prime 2^31-1. Draws use Schrage's decomposition so the
// intermediate product never overflows 63 bits.
type Lehmer struct {
	seed int64
}

// NewLehmer returns a generator seeded with the given value. Seeds
// outside [1, 2^31-2] fall back to the default seed.
func NewLehmer(seed int64) *Lehmer {
	if seed <= 0 || seed >= lehmerModulus {
		seed = lehmerSeed
	}
	return &Lehmer{seed: seed}
}

// Int63 advances the generator and returns the new state, a value in
// [1, 2^31-2].
func (l *Lehmer) Int63() int64 {
	const (
		q = lehmerModulus / lehmerMultiplier
		r = lehmerModulus % lehmerMultiplier
	)

	hi := l.seed / q
	lo := l.seed % q

	t := lehmerMultiplier*lo - r*hi
	if t > 0 {
		l.seed = t
	} else {
		l.seed = t + lehmerModulus
	}
	return l.seed
}

// Int31 advances the generator and returns the new state truncated to
// 32 bits.
func (l *Lehmer) Int31() int32 {
	return int32(l.Int63())
}

// Float64 advances the generator and returns a value in (0, 1).
func (l *Lehmer) Float64() float64 {
	return float64(l.Int63()) / float64(lehmerModulus)
}

// Float32 advances the generator and returns a value in (0, 1).
func (l *Lehmer) Float32() float32 {
	return float32(l.Float64())
}

// Shuffle performs a Fisher-Yates shuffle over n elements, calling swap
// for each exchange.
func (l *Lehmer) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(l.Int63() % int64(i+1))
		swap(i, j)
	}
}

// Xorshift is an xorshift* generator with 64 bits of state and a
// multiplicative output finalizer.
type Xorshift struct {
	state uint64
}

// NewXorshift returns a generator seeded with the given value. A zero
// seed is replaced, since the all-zero state is a fixed point.
func NewXorshift(seed uint64) *Xorshift {
	if seed == 0 {
		seed = lehmerSeed
	}
	return &Xorshift{state: seed}
}

// Uint32 advances the generator and returns the high 32 bits of the
// finalized state.
func (x *Xorshift) Uint32() uint32 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return uint32((x.state * 0x2545F4914F6CDD1D) >> 32)
}

// Float32 advances the generator and returns a value in [0, 1) with 24
// bits of precision.
func (x *Xorshift) Float32() float32 {
	return float32(x.Uint32()>>8) / 16777216.0
}
