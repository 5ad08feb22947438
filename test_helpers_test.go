package cuckoostat

import (
	"encoding/binary"
	"hash/fnv"
	randv2 "math/rand/v2"
	"testing"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *randv2.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return randv2.New(randv2.NewPCG(testSeed1^s1, testSeed2^s2))
}

// generateRandomKeys creates n deterministic pseudo-random keys, with the
// KeyEmpty sentinel remapped since it can never be a real key.
func generateRandomKeys(rng *randv2.Rand, n int) []uint64 {
	keys := make([]uint64, n)
	for i := range keys {
		k := rng.Uint64()
		if k == KeyEmpty {
			k = 0
		}
		keys[i] = k
	}
	return keys
}

// referenceDistinct computes a key's distinct-slot count the obvious way,
// with a map, for cross-checking the analyzer's pairwise version.
func referenceDistinct(key, tableSize uint64, funcs []HashFunc) int {
	seen := make(map[uint64]struct{})
	for _, f := range funcs {
		seen[f.Slot(key, tableSize)] = struct{}{}
	}
	return len(seen)
}

// sumHistogram returns the sum of all bucket counts.
func sumHistogram(h Histogram) uint64 {
	var total uint64
	for _, b := range h {
		total += b.Count
	}
	return total
}
