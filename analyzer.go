package cuckoostat

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	custaterrors "github.com/hashlab/cuckoostat/errors"
)

const (
	// ctxCheckInterval is the number of keys processed between context
	// cancellation checks inside a worker shard.
	ctxCheckInterval = 1 << 16
)

// Analyzer computes, for every key, the candidate slots under a
// hash-function family, and collects the quality statistics selected by
// its options: per-slot load counters, per-key distinct-slot counts, and
// a family failure flag.
//
// An Analyzer is immutable after construction and safe for concurrent use;
// each Analyze call is self-contained and shares no state with other calls.
type Analyzer struct {
	tableSize uint64
	funcs     []HashFunc
	cfg       *analyzeConfig
}

// Result holds the outputs of one analysis run. Only the outputs enabled
// via options are non-nil/meaningful.
type Result struct {
	// SlotLoads[s] is the number of (key, function) pairs that map to
	// slot s. Nil unless WithSlotLoads was set. Always sums to
	// len(keys) * len(funcs).
	SlotLoads []uint64

	// DistinctCounts[i] is the number of distinct candidate slots of
	// keys[i], in [1, len(funcs)]. Nil unless WithDistinctCounts was set.
	DistinctCounts []uint8

	// Failed reports whether any key received fewer distinct slots than
	// there are hash functions. Always false unless WithFailureDetection
	// was set.
	Failed bool
}

// NewAnalyzer validates the table geometry and returns an Analyzer.
func NewAnalyzer(tableSize uint64, funcs []HashFunc, opts ...Option) (*Analyzer, error) {
	if tableSize == 0 {
		return nil, custaterrors.ErrBadTableSize
	}
	if len(funcs) < 1 || len(funcs) > MaxHashFunctions {
		return nil, custaterrors.ErrBadFunctionCount
	}

	cfg := defaultAnalyzeConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Analyzer{
		tableSize: tableSize,
		funcs:     append([]HashFunc(nil), funcs...),
		cfg:       cfg,
	}, nil
}

// NumFunctions returns the size of the configured hash-function family.
func (a *Analyzer) NumFunctions() int { return len(a.funcs) }

// Analyze runs the per-key slot analysis over keys.
//
// Keys are independent: the key range is sharded across workers, per-slot
// load counters are updated with atomic adds, and the failure flag is a
// monotonic false-to-true transition, so concurrent writers are safe. No
// Result field is readable before Analyze returns; the errgroup wait is
// the barrier between the parallel phase and the caller.
func (a *Analyzer) Analyze(ctx context.Context, keys []uint64) (*Result, error) {
	res := &Result{}
	if a.cfg.slotLoads {
		res.SlotLoads = make([]uint64, a.tableSize)
	}
	if a.cfg.distinctCounts {
		res.DistinctCounts = make([]uint8, len(keys))
	}

	var failed atomic.Bool

	workers := a.cfg.workers
	if workers <= 1 || len(keys) < 2 {
		if err := a.analyzeShard(ctx, keys, 0, len(keys), res, &failed); err != nil {
			return nil, err
		}
		res.Failed = failed.Load()
		return res, nil
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	g, gctx := errgroup.WithContext(ctx)
	shardSize := (len(keys) + workers - 1) / workers
	for start := 0; start < len(keys); start += shardSize {
		end := start + shardSize
		if end > len(keys) {
			end = len(keys)
		}
		g.Go(func() error {
			return a.analyzeShard(gctx, keys, start, end, res, &failed)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Failed = failed.Load()
	return res, nil
}

// analyzeShard processes keys[start:end]. Per-key outputs land in disjoint
// cells of res.DistinctCounts; the shared load counters and the failure
// flag use atomics.
func (a *Analyzer) analyzeShard(ctx context.Context, keys []uint64, start, end int, res *Result, failed *atomic.Bool) error {
	numFuncs := len(a.funcs)
	var slots [MaxHashFunctions]uint64

	for i := start; i < end; i++ {
		if (i-start)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		key := keys[i]
		for fi, f := range a.funcs {
			slots[fi] = f.Slot(key, a.tableSize)
		}

		if res.SlotLoads != nil {
			for fi := 0; fi < numFuncs; fi++ {
				atomic.AddUint64(&res.SlotLoads[slots[fi]], 1)
			}
		}

		// Pairwise comparison over a tiny bounded set; no sorting needed.
		distinct := 1
		for fi := 1; fi < numFuncs; fi++ {
			dup := false
			for fj := 0; fj < fi; fj++ {
				if slots[fi] == slots[fj] {
					dup = true
					break
				}
			}
			if !dup {
				distinct++
			}
		}

		if res.DistinctCounts != nil {
			res.DistinctCounts[i] = uint8(distinct)
		}
		if a.cfg.failureDetection && distinct != numFuncs {
			failed.Store(true)
		}
	}
	return nil
}
