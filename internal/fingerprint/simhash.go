// Package fingerprint computes the SimHash and MinHash sketches the
// deduplication worker uses to detect near-duplicate articles.
package fingerprint

import (
	"crypto/md5"
	"fmt"
	"math/big"

	"github.com/tooitw/morning-pulse-nlp/internal/text"
)

// NumBits is the width of the SimHash fingerprint.
const NumBits = 64

// ZeroSimHash is the fingerprint of an empty token stream.
const ZeroSimHash = "0000000000000000"

// SimHash computes a 64-bit SimHash fingerprint over the tokens of text,
// rendered as 16 lowercase hex characters. An empty token stream yields
// ZeroSimHash.
func SimHash(input string) string {
	tokens := text.Tokenize(input)
	if len(tokens) == 0 {
		return ZeroSimHash
	}

	var vector [NumBits]int
	for _, tok := range tokens {
		sum := md5.Sum([]byte(tok))
		digest := new(big.Int).SetBytes(sum[:])
		low64 := new(big.Int).And(digest, maxUint64)
		bits := low64.Uint64()
		for i := 0; i < NumBits; i++ {
			if bits&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < NumBits; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fmt.Sprintf("%016x", fingerprint)
}

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// Hamming returns the number of differing bits between two equal-length
// hex-encoded fingerprints. It errors if the two strings differ in length.
func Hamming(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("fingerprint: hamming distance requires equal-length hashes, got %d and %d", len(a), len(b))
	}
	ai, ok := new(big.Int).SetString(a, 16)
	if !ok {
		return 0, fmt.Errorf("fingerprint: %q is not valid hex", a)
	}
	bi, ok := new(big.Int).SetString(b, 16)
	if !ok {
		return 0, fmt.Errorf("fingerprint: %q is not valid hex", b)
	}
	xor := new(big.Int).Xor(ai, bi)
	count := 0
	for _, w := range xor.Bits() {
		count += popcount(uint64(w))
	}
	return count, nil
}

func popcount(w uint64) int {
	n := 0
	for w != 0 {
		w &= w - 1
		n++
	}
	return n
}
