package cuckoostat

import (
	"slices"

	custaterrors "github.com/hashlab/cuckoostat/errors"
	"github.com/hashlab/cuckoostat/internal/histogram"
)

// Bucket and Histogram are re-exported so callers can consume reduction
// results without importing the internal package.
type (
	Bucket    = histogram.Bucket
	Histogram = histogram.Histogram
)

// BuildSummary condenses the per-key eviction-iteration counts of a table
// construction run.
//
// Median is the element at index n/2 of the ascending-sorted sequence:
// for even n the upper middle is taken, never an average. Max doubles as
// the length of the longest eviction chain observed during the build.
type BuildSummary struct {
	Total  uint64
	Mean   float64
	Median uint64
	Max    uint64
	Hist   Histogram
}

// SlotLoadHistogram reduces per-slot load counters into (load, slots with
// that load) buckets, ascending by load. Only observed loads appear.
func SlotLoadHistogram(loads []uint64) Histogram {
	return histogram.RunLength(loads)
}

// DistinctCountHistogram reduces per-key distinct-slot counts into
// (distinct count, keys) buckets, ascending. Only observed counts appear;
// a healthy family concentrates all mass at the function count.
func DistinctCountHistogram(counts []uint8) Histogram {
	widened := make([]uint64, len(counts))
	for i, c := range counts {
		widened[i] = uint64(c)
	}
	return histogram.RunLength(widened)
}

// SummarizeBuildIterations reduces per-key/attempt eviction-iteration
// counts. Empty input is a precondition violation: the median and maximum
// are undefined, so ErrNoSamples is returned rather than a partial summary.
func SummarizeBuildIterations(iters []uint64) (BuildSummary, error) {
	if len(iters) == 0 {
		return BuildSummary{}, custaterrors.ErrNoSamples
	}

	sorted := slices.Clone(iters)
	slices.Sort(sorted)

	var total uint64
	for _, v := range sorted {
		total += v
	}

	return BuildSummary{
		Total:  total,
		Mean:   float64(total) / float64(len(sorted)),
		Median: sorted[len(sorted)/2],
		Max:    sorted[len(sorted)-1],
		Hist:   histogram.FromSorted(sorted),
	}, nil
}

// ProbeHistogram reduces per-query probe counts into a dense histogram
// over [0, numFuncs+1]: exactly numFuncs+2 buckets, zero-count buckets
// included, ascending. The top bucket holds the sentinel probe count for
// stash hits and misses. A probe value outside the domain is a
// precondition violation.
func ProbeHistogram(probes []uint64, numFuncs int) (Histogram, error) {
	if numFuncs < 1 || numFuncs > MaxHashFunctions {
		return nil, custaterrors.ErrBadFunctionCount
	}
	h, ok := histogram.Dense(probes, uint64(numFuncs)+2)
	if !ok {
		return nil, custaterrors.ErrProbeOutOfRange
	}
	return h, nil
}
