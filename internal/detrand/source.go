// Package detrand provides the deterministic random source used by every
// analysis stage whose output depends on randomness. It is a plain 32-bit
// linear congruential generator so that two runs seeded identically produce
// identical draws regardless of platform.
package detrand

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// Source is a seeded pseudo-random source. One instance belongs to one
// logical analysis run; it is not safe for concurrent use.
type Source struct {
	state uint32
}

// New returns a source seeded with n.
func New(n uint32) *Source {
	return &Source{state: n}
}

// Seed resets the internal state to n.
func (s *Source) Seed(n uint32) {
	s.state = n
}

// Next advances the generator and returns a value in [0, 1).
func (s *Source) Next() float64 {
	s.state = s.state*lcgMultiplier + lcgIncrement
	return float64(s.state) / float64(lcgModulus)
}

// NextInt returns an integer in [min, max]. When max < min it returns min.
func (s *Source) NextInt(min, max int) int {
	if max < min {
		return min
	}
	return min + int(s.Next()*float64(max-min+1))
}

// IntN returns an integer in [0, n). n must be positive.
func (s *Source) IntN(n int) int {
	return s.NextInt(0, n-1)
}

// DatasetSeed derives a reproducible seed from a dataset's identity so that
// re-loading the same recording yields the same clusters. It is the rolling
// 31-multiplier hash over the name followed by the two shape counts, wrapped
// to 32 bits.
func DatasetSeed(name string, neuronCount, frameCount int) uint32 {
	var h int32
	for _, r := range name {
		h = h*31 + int32(r)
	}
	h = h*31 + int32(neuronCount)
	h = h*31 + int32(frameCount)
	if h < 0 {
		h = -h
	}
	return uint32(h)
}
