// Package histogram provides the sort + run-length-encode primitives
// behind the statistical reductions.
package histogram

import "slices"

// Bucket is one histogram bucket: an observed value and how many times
// it occurred.
type Bucket struct {
	Value uint64
	Count uint64
}

// Histogram is an ordered sequence of buckets, ascending by value.
type Histogram []Bucket

// FromSorted run-length-encodes an ascending-sorted sequence. Only
// observed values appear; bucket counts always sum to len(sorted).
func FromSorted(sorted []uint64) Histogram {
	if len(sorted) == 0 {
		return nil
	}
	h := Histogram{{Value: sorted[0], Count: 1}}
	for _, v := range sorted[1:] {
		if last := &h[len(h)-1]; last.Value == v {
			last.Count++
		} else {
			h = append(h, Bucket{Value: v, Count: 1})
		}
	}
	return h
}

// RunLength sorts a copy of values and run-length-encodes it. The input
// is not modified.
func RunLength(values []uint64) Histogram {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return FromSorted(sorted)
}

// Dense builds a histogram over the full domain [0, domain), emitting
// every bucket including zero-count ones. Values must lie in the domain;
// the second return is false when one does not.
func Dense(values []uint64, domain uint64) (Histogram, bool) {
	counts := make([]uint64, domain)
	for _, v := range values {
		if v >= domain {
			return nil, false
		}
		counts[v]++
	}
	h := make(Histogram, domain)
	for v, c := range counts {
		h[v] = Bucket{Value: uint64(v), Count: c}
	}
	return h, true
}

// Total returns the sum of all bucket counts.
func (h Histogram) Total() uint64 {
	var total uint64
	for _, b := range h {
		total += b.Count
	}
	return total
}
