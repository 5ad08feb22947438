// Package cuckoostat is the validation and instrumentation layer for a
// parallel cuckoo hash table. It measures hash-function family quality
// (distinct candidate slots per key, per-slot load distribution), reduces
// externally supplied build and lookup counters into reproducible
// histograms, and dumps the table's stash overflow region for inspection.
//
// The table engine itself is an external collaborator: construction,
// retrieval, hash-function selection, and allocation all happen elsewhere.
// This package only reads snapshots of the table and counter sequences
// produced by the engine. It exists for validation and debug
// configurations, never on a production request path.
//
// # Basic Usage
//
// Analyzing a hash-function family over a key set:
//
//	funcs, err := cuckoostat.GenerateFunctions(seed, 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	analyzer, err := cuckoostat.NewAnalyzer(tableSize, funcs,
//	    cuckoostat.WithSlotLoads(),
//	    cuckoostat.WithDistinctCounts(),
//	    cuckoostat.WithFailureDetection(),
//	    cuckoostat.WithWorkers(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := analyzer.Analyze(ctx, keys)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rep := cuckoostat.NewReporter(os.Stdout)
//	rep.SlotLoads(cuckoostat.SlotLoadHistogram(res.SlotLoads))
//	rep.DistinctCounts(cuckoostat.DistinctCountHistogram(res.DistinctCounts), len(funcs))
//
// Each statistic is gated by its own option; disabled statistics are
// neither allocated nor collected.
//
// # Package Structure
//
//   - Analysis: analyzer.go (NewAnalyzer, Analyze), analyzer_options.go (Option, With* functions)
//   - Hashing: hash.go (HashFunc, GenerateFunctions)
//   - Reductions: stats.go (SlotLoadHistogram, DistinctCountHistogram, SummarizeBuildIterations, ProbeHistogram), internal/histogram/
//   - Stash: stash.go (Entry, OccupiedStashEntries)
//   - Reporting: report.go (Reporter)
//   - Snapshot files: snapshot.go (WriteSnapshot, OpenSnapshot), fadvise_*.go (platform hints)
package cuckoostat
