// Package lsh implements a banded MinHash locality-sensitive-hashing index:
// insert a key under its MinHash signature, then query for previously
// inserted keys whose estimated Jaccard similarity clears a threshold,
// comparing only against keys that share a band bucket rather than against
// every other key in the index.
package lsh

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/tooitw/morning-pulse-nlp/internal/fingerprint"
)

// Threshold is the similarity cutoff above which two articles are treated
// as near-duplicates belonging to the same cluster.
const Threshold = 0.85

// falsePositiveWeight and falseNegativeWeight balance the search for band
// count b and rows-per-band r: equal weight, matching the reference
// implementation's default.
const falsePositiveWeight = 0.5
const falseNegativeWeight = 0.5

type bandKey uint64

// Index is a job-local, ephemeral banded MinHash LSH index. It is not safe
// for concurrent use — a deduplication job owns exactly one Index for its
// duration (spec section 4.5: "constructed fresh at the start of each
// deduplication job and discarded at its end").
type Index struct {
	bands    int
	rows     int
	buckets  []map[bandKey][]string
	entries  map[string]*fingerprint.MinHash
	order    []string
}

// New builds an Index sized for fingerprint.NumPerm permutations and the
// package Threshold, choosing band/row counts the way datasketch's
// MinHashLSH does: minimizing the weighted sum of false-positive and
// false-negative probability over the space of (b, r) with b*r <= numPerm.
func New() *Index {
	bands, rows := optimalParams(fingerprint.NumPerm, Threshold, falseNegativeWeight, falsePositiveWeight)
	buckets := make([]map[bandKey][]string, bands)
	for i := range buckets {
		buckets[i] = make(map[bandKey][]string)
	}
	return &Index{
		bands:   bands,
		rows:    rows,
		buckets: buckets,
		entries: make(map[string]*fingerprint.MinHash),
	}
}

// Insert adds key under mh's signature. Re-inserting the same key overwrites
// its prior signature but does not remove stale bucket entries — callers
// only ever insert a key once per job, consistent with the dedup process
// (spec section 4.6 step 2e).
func (idx *Index) Insert(key string, mh *fingerprint.MinHash) {
	idx.entries[key] = mh
	idx.order = append(idx.order, key)
	for b := 0; b < idx.bands; b++ {
		k := idx.bandHash(b, mh)
		idx.buckets[b][k] = append(idx.buckets[b][k], key)
	}
}

// Query returns the previously inserted keys that share at least one band
// bucket with mh and whose MinHash signature estimates a Jaccard
// similarity >= Threshold against mh. Candidates are gathered from matching
// bands, deduplicated, then confirmed against the real threshold so
// banding's false positives never leak through; a key above the threshold
// that shares no band bucket with mh is not returned.
func (idx *Index) Query(mh *fingerprint.MinHash) []string {
	seen := make(map[string]struct{})
	var candidates []string
	for b := 0; b < idx.bands; b++ {
		k := idx.bandHash(b, mh)
		for _, key := range idx.buckets[b][k] {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			candidates = append(candidates, key)
		}
	}

	var matches []string
	for _, key := range candidates {
		other := idx.entries[key]
		if mh.JaccardEstimate(other) >= Threshold {
			matches = append(matches, key)
		}
	}
	return matches
}

// bandHash folds one band's slice of permutation minima into a single
// 64-bit bucket key via FNV-1a, stable across calls for identical input.
func (idx *Index) bandHash(band int, mh *fingerprint.MinHash) bandKey {
	start := band * idx.rows
	end := start + idx.rows
	values := mh.Values()

	h := fnv.New64a()
	var buf [8]byte
	for i := start; i < end && i < len(values); i++ {
		binary.BigEndian.PutUint64(buf[:], values[i])
		h.Write(buf[:])
	}
	return bandKey(h.Sum64())
}

// optimalParams searches every (b, r) with b*r <= numPerm for the pair
// minimizing falseNegativeWeight*falseNegativeProbability +
// falsePositiveWeight*falsePositiveProbability at the given threshold,
// mirroring datasketch's MinHashLSH._optimal_param.
func optimalParams(numPerm int, threshold, falseNegWeight, falsePosWeight float64) (bands, rows int) {
	minError := math.MaxFloat64
	bands, rows = 1, numPerm
	for b := 1; b <= numPerm; b++ {
		for r := 1; r <= numPerm/b; r++ {
			fp := falsePositiveProbability(threshold, b, r)
			fn := falseNegativeProbability(threshold, b, r)
			err := fp*falsePosWeight + fn*falseNegWeight
			if err < minError {
				minError = err
				bands, rows = b, r
			}
		}
	}
	return bands, rows
}

// falsePositiveProbability integrates 1-(1-s^r)^b over [0, threshold] via
// fixed-step quadrature, matching the reference implementation's
// approach closely enough for band/row selection purposes.
func falsePositiveProbability(threshold float64, b, r int) float64 {
	const steps = 200
	step := threshold / steps
	total := 0.0
	for i := 0; i < steps; i++ {
		s := (float64(i) + 0.5) * step
		total += (1 - math.Pow(1-math.Pow(s, float64(r)), float64(b))) * step
	}
	return total
}

// falseNegativeProbability integrates (1-s^r)^b over [threshold, 1].
func falseNegativeProbability(threshold float64, b, r int) float64 {
	const steps = 200
	step := (1 - threshold) / steps
	total := 0.0
	for i := 0; i < steps; i++ {
		s := threshold + (float64(i)+0.5)*step
		total += math.Pow(1-math.Pow(s, float64(r)), float64(b)) * step
	}
	return total
}
