package layer

// RNG is a small xorshift64* generator. It is deterministic for a given
// seed and cheap to create, so one can be derived per position.
type RNG struct {
	state uint64
}

// NewRNG seeds a generator. A zero seed is replaced since xorshift never
// leaves the all-zero state.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &RNG{state: seed}
}

// RandUint64 returns the next 64 bits.
func (r *RNG) RandUint64() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545F4914F6CDD1D
}

// RandFloat returns a value in [0, 1).
func (r *RNG) RandFloat() float32 {
	return float32(r.RandUint64()>>40) / (1 << 24)
}

// Intn returns a value in [0, n). n must be positive.
func (r *RNG) Intn(n int) int {
	return int(r.RandUint64() % uint64(n))
}

// State returns the internal state so it can be persisted.
func (r *RNG) State() uint64 { return r.state }

// SetState restores a state returned by State.
func (r *RNG) SetState(s uint64) {
	if s == 0 {
		s = 0x9E3779B97F4A7C15
	}
	r.state = s
}

// Mix hashes the values into a single seed (splitmix64 finaliser).
// Used to derive per-position streams from a base seed.
func Mix(vals ...uint64) uint64 {
	var h uint64 = 0x9E3779B97F4A7C15
	for _, v := range vals {
		h ^= v + 0x9E3779B97F4A7C15 + (h << 6) + (h >> 2)
		h = (h ^ (h >> 30)) * 0xBF58476D1CE4E5B9
		h = (h ^ (h >> 27)) * 0x94D049BB133111EB
		h ^= h >> 31
	}
	return h
}
