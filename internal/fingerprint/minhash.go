package fingerprint

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/tooitw/morning-pulse-nlp/internal/text"
)

// NumPerm is the number of permutation functions used by MinHash, fixed
// across the process so that Jaccard estimates (and therefore LSH
// decisions) are reproducible given the same token streams — the
// determinism invariant spec section 9 requires of the clustering engine.
const NumPerm = 128

// mersennePrime is the modulus used for the permutation family, the same
// value the reference datasketch implementation uses: the Mersenne prime
// 2^61-1, large enough that collisions in the permutation space are
// negligible at 32-bit hash width.
const mersennePrime = (uint64(1) << 61) - 1

const maxHash32 = uint64(1)<<32 - 1

// permSeed fixes the permutation coefficients across the process. Using a
// fixed seed (rather than one drawn fresh per MinHash instance) is what
// makes two independently computed MinHash sketches of the same text
// comparable, and is required for idempotent dedup runs (spec section 9,
// "LSH determinism").
const permSeed = 0x6d6f726e696e67 // "morning" in hex, arbitrary fixed constant

// MinHash is a MinHash sketch: the minimum permuted hash value seen, for
// each of NumPerm independent permutations, over a set of byte strings.
type MinHash struct {
	values [NumPerm]uint64
}

var permutations = generatePermutations(NumPerm, permSeed)

type permutation struct {
	a, b uint64
}

func generatePermutations(n int, seed uint64) []permutation {
	rng := newSplitMix64(seed)
	perms := make([]permutation, n)
	for i := range perms {
		// a must be nonzero modulo mersennePrime to be a valid
		// linear-permutation coefficient.
		a := rng.next() % mersennePrime
		if a == 0 {
			a = 1
		}
		b := rng.next() % mersennePrime
		perms[i] = permutation{a: a, b: b}
	}
	return perms
}

// splitMix64 is a small, dependency-free deterministic PRNG used only to
// derive the fixed permutation coefficients at package init. It is not
// used anywhere values need to be unpredictable.
type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NewMinHash returns a MinHash sketch initialized to the maximum possible
// value in every permutation slot — the state an empty token stream keeps,
// which the LSH index treats as pathologically dissimilar to anything
// non-empty (spec section 4.2).
func NewMinHash() *MinHash {
	m := &MinHash{}
	for i := range m.values {
		m.values[i] = maxHash32
	}
	return m
}

// Update folds one token (as UTF-8 bytes) into the sketch.
func (m *MinHash) Update(token []byte) {
	hv := sha1Hash32(token)
	for i, p := range permutations {
		phv := ((p.a*hv + p.b) % mersennePrime) & maxHash32
		if phv < m.values[i] {
			m.values[i] = phv
		}
	}
}

// ComputeMinHash tokenizes input via the shared normalizer and folds every
// token's UTF-8 bytes into a fresh MinHash sketch.
func ComputeMinHash(input string) *MinHash {
	m := NewMinHash()
	for _, tok := range text.Tokenize(input) {
		m.Update([]byte(tok))
	}
	return m
}

// JaccardEstimate returns the estimated Jaccard similarity between two
// MinHash sketches: the fraction of permutation slots where the two
// sketches agree.
func (m *MinHash) JaccardEstimate(other *MinHash) float64 {
	equal := 0
	for i := range m.values {
		if m.values[i] == other.values[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(m.values))
}

// Values exposes the sketch's raw permutation minima, for callers (the LSH
// index) that need to band them into bucket keys.
func (m *MinHash) Values() [NumPerm]uint64 {
	return m.values
}

func sha1Hash32(data []byte) uint64 {
	sum := sha1.Sum(data)
	return uint64(binary.BigEndian.Uint32(sum[:4]))
}
