package cuckoostat

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// Reporter renders analysis results as self-contained text lines, one
// report item per call, in call order. The output channel is whatever
// io.Writer the caller supplies; the Reporter itself never buffers and
// never assumes a byte budget for accumulated text.
//
// Every emitted byte is also folded into a running xxHash64 digest, so two
// runs can be compared for reproducibility without diffing their output.
type Reporter struct {
	w      io.Writer
	digest *xxhash.Digest
}

// NewReporter returns a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w, digest: xxhash.New()}
}

// Digest returns the xxHash64 of all bytes emitted so far.
func (r *Reporter) Digest() uint64 { return r.digest.Sum64() }

func (r *Reporter) emit(format string, args ...any) error {
	line := fmt.Sprintf(format+"\n", args...)
	r.digest.WriteString(line) // never fails per hash.Hash contract
	if _, err := io.WriteString(r.w, line); err != nil {
		return fmt.Errorf("report write: %w", err)
	}
	return nil
}

// Constants reports the configured hash-function constant pairs.
func (r *Reporter) Constants(funcs []HashFunc) error {
	if err := r.emit("hash functions: %d", len(funcs)); err != nil {
		return err
	}
	for i, f := range funcs {
		if err := r.emit("  function %d: multiplier=%#016x increment=%#016x", i, f.Multiplier, f.Increment); err != nil {
			return err
		}
	}
	return nil
}

// SlotLoads reports the per-slot load histogram.
func (r *Reporter) SlotLoads(h Histogram) error {
	if err := r.emit("slot load histogram (%d slots):", h.Total()); err != nil {
		return err
	}
	for _, b := range h {
		if err := r.emit("  load %d: %d slots", b.Value, b.Count); err != nil {
			return err
		}
	}
	return nil
}

// DistinctCounts reports the per-key distinct-slot histogram.
func (r *Reporter) DistinctCounts(h Histogram, numFuncs int) error {
	if err := r.emit("keys by distinct slot count (of %d functions):", numFuncs); err != nil {
		return err
	}
	for _, b := range h {
		if err := r.emit("  %d distinct: %d keys", b.Value, b.Count); err != nil {
			return err
		}
	}
	return nil
}

// BuildIterations reports the construction summary, with the longest
// eviction chain highlighted on its own line.
func (r *Reporter) BuildIterations(s BuildSummary) error {
	if err := r.emit("build iterations: total=%d mean=%.3f median=%d max=%d",
		s.Total, s.Mean, s.Median, s.Max); err != nil {
		return err
	}
	for _, b := range s.Hist {
		if err := r.emit("  %d iterations: %d keys", b.Value, b.Count); err != nil {
			return err
		}
	}
	return r.emit("longest eviction chain: %d", s.Max)
}

// Probes reports the dense retrieval-probe histogram, zero buckets included.
func (r *Reporter) Probes(h Histogram) error {
	if err := r.emit("retrieval probe histogram (%d queries):", h.Total()); err != nil {
		return err
	}
	for _, b := range h {
		if err := r.emit("  %d probes: %d queries", b.Value, b.Count); err != nil {
			return err
		}
	}
	return nil
}

// StashDump reports the occupied stash entries, one line each.
func (r *Reporter) StashDump(entries []StashEntry) error {
	if err := r.emit("stash entries: %d", len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := r.emit("  stash[%d]: key=%d value=%d", e.Slot, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
