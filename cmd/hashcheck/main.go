// Hashcheck is a validation harness for the cuckoostat instrumentation
// layer. It plays the role of the table engine: it generates keys, builds
// a small host-side cuckoo table (recording eviction iterations and stash
// spills), runs lookups (recording probe counts), and feeds everything
// through the analyzer, reducers, and reporter.
//
// Usage:
//
//	go run ./cmd/hashcheck -keys 100000 -funcs 4 -workers 8
//
// Flags:
//
//	-keys      Number of keys to generate (default: 100,000)
//	-table     Primary table size in slots (default: 2x keys)
//	-stash     Stash capacity (default: 101)
//	-funcs     Number of hash functions (default: 4)
//	-seed      Seed for key and constant generation (default: 1)
//	-workers   Number of parallel analysis workers (default: 1)
//	-snapshot  Write the built table to this snapshot file, then re-open
//	           it and dump the stash from the file (default: none)
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/hashlab/cuckoostat"
)

// maxEvictions bounds one insertion's eviction chain before the key is
// spilled to the stash.
const maxEvictions = 100

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hashcheck:", err)
		os.Exit(1)
	}
}

func run() error {
	keysFlag := flag.Int("keys", 100_000, "number of keys")
	tableFlag := flag.Uint64("table", 0, "table size in slots (0 = 2x keys)")
	stashFlag := flag.Int("stash", 101, "stash capacity")
	funcsFlag := flag.Int("funcs", 4, "number of hash functions")
	seedFlag := flag.Uint64("seed", 1, "seed for key and constant generation")
	workersFlag := flag.Int("workers", 1, "number of parallel analysis workers")
	snapshotFlag := flag.String("snapshot", "", "snapshot file path (empty = skip)")
	flag.Parse()

	numKeys := *keysFlag
	tableSize := *tableFlag
	if tableSize == 0 {
		tableSize = 2 * uint64(numKeys)
	}

	fmt.Printf("Generating %d keys...\n", numKeys)
	keys := generateKeys(*seedFlag, numKeys)

	funcs, err := cuckoostat.GenerateFunctions(*seedFlag, *funcsFlag)
	if err != nil {
		return err
	}

	rep := cuckoostat.NewReporter(os.Stdout)
	if err := rep.Constants(funcs); err != nil {
		return err
	}

	fmt.Println("Analyzing hash-function family...")
	analyzer, err := cuckoostat.NewAnalyzer(tableSize, funcs,
		cuckoostat.WithSlotLoads(),
		cuckoostat.WithDistinctCounts(),
		cuckoostat.WithFailureDetection(),
		cuckoostat.WithWorkers(*workersFlag))
	if err != nil {
		return err
	}
	analyzeStart := time.Now()
	res, err := analyzer.Analyze(context.Background(), keys)
	if err != nil {
		return err
	}
	fmt.Printf("Analysis took %v\n", time.Since(analyzeStart))

	if err := rep.SlotLoads(cuckoostat.SlotLoadHistogram(res.SlotLoads)); err != nil {
		return err
	}
	if err := rep.DistinctCounts(cuckoostat.DistinctCountHistogram(res.DistinctCounts), len(funcs)); err != nil {
		return err
	}
	if res.Failed {
		fmt.Println("WARNING: at least one key has fewer distinct slots than hash functions")
	}

	fmt.Println("Building table...")
	buildStart := time.Now()
	table := newTable(tableSize, *stashFlag, funcs)
	iterations := make([]uint64, 0, numKeys)
	unplaced := 0
	for i, key := range keys {
		iters, ok := table.insert(key, uint64(i)+1)
		iterations = append(iterations, iters)
		if !ok {
			unplaced++
		}
	}
	fmt.Printf("Build took %v (%d keys unplaced)\n", time.Since(buildStart), unplaced)

	summary, err := cuckoostat.SummarizeBuildIterations(iterations)
	if err != nil {
		return err
	}
	if err := rep.BuildIterations(summary); err != nil {
		return err
	}

	fmt.Println("Querying table...")
	probes := make([]uint64, 0, numKeys)
	for _, key := range keys {
		probes = append(probes, table.lookup(key))
	}
	probeHist, err := cuckoostat.ProbeHistogram(probes, len(funcs))
	if err != nil {
		return err
	}
	if err := rep.Probes(probeHist); err != nil {
		return err
	}

	if *snapshotFlag != "" {
		if err := dumpAndReload(rep, table, funcs, *snapshotFlag); err != nil {
			return err
		}
	} else if err := rep.StashDump(cuckoostat.OccupiedStashEntries(table.stash)); err != nil {
		return err
	}

	fmt.Printf("Report digest: %#016x\n", rep.Digest())
	return nil
}

// dumpAndReload writes the table to a snapshot file, re-opens it, and
// dumps the stash from the file rather than from memory.
func dumpAndReload(rep *cuckoostat.Reporter, t *table, funcs []cuckoostat.HashFunc, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	snap := &cuckoostat.Snapshot{Funcs: funcs, Slots: t.slots, Stash: t.stash}
	if err := cuckoostat.WriteSnapshot(f, snap); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	sf, err := cuckoostat.OpenSnapshot(path)
	if err != nil {
		return err
	}
	defer sf.Close()

	stash, err := sf.Stash()
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot %s: %d slots, %d stash entries, %d functions\n",
		path, sf.TableSize(), sf.StashSize(), sf.NumFunctions())
	return rep.StashDump(cuckoostat.OccupiedStashEntries(stash))
}

// generateKeys derives numKeys distinct pseudo-random keys from seed.
// Murmur3 over a counter gives a deterministic, well-spread key stream.
// KeyEmpty is remapped since it can never be a real key.
func generateKeys(seed uint64, numKeys int) []uint64 {
	keys := make([]uint64, numKeys)
	var buf [8]byte
	for i := range keys {
		binary.LittleEndian.PutUint64(buf[:], uint64(i))
		k := murmur3.Sum64WithSeed(buf[:], uint32(seed))
		if k == cuckoostat.KeyEmpty {
			k = 0
		}
		keys[i] = k
	}
	return keys
}

// table is a minimal host-side cuckoo hash table. It exists only to
// produce realistic iteration and probe counts for the reducers; the real
// engine lives elsewhere.
type table struct {
	slots []cuckoostat.Entry
	stash []cuckoostat.Entry
	funcs []cuckoostat.HashFunc
}

func newTable(size uint64, stashSize int, funcs []cuckoostat.HashFunc) *table {
	t := &table{
		slots: make([]cuckoostat.Entry, size),
		stash: make([]cuckoostat.Entry, stashSize),
		funcs: funcs,
	}
	for i := range t.slots {
		t.slots[i].Key = cuckoostat.KeyEmpty
	}
	for i := range t.stash {
		t.stash[i].Key = cuckoostat.KeyEmpty
	}
	return t
}

// insert places (key, value), evicting occupants cuckoo-style. It returns
// the number of eviction iterations taken and whether the key (or the
// final displaced victim) found a home in the table or stash.
func (t *table) insert(key, value uint64) (uint64, bool) {
	tableSize := uint64(len(t.slots))
	cur := cuckoostat.Entry{Key: key, Value: value}

	var iterations uint64
	for ; iterations < maxEvictions; iterations++ {
		for _, f := range t.funcs {
			slot := f.Slot(cur.Key, tableSize)
			if t.slots[slot].IsEmpty() {
				t.slots[slot] = cur
				return iterations, true
			}
		}
		// All candidates occupied: evict from the slot chosen by the
		// function index rotating with the iteration count.
		slot := t.funcs[iterations%uint64(len(t.funcs))].Slot(cur.Key, tableSize)
		t.slots[slot], cur = cur, t.slots[slot]
	}

	for i := range t.stash {
		if t.stash[i].IsEmpty() {
			t.stash[i] = cur
			return iterations, true
		}
	}
	return iterations, false
}

// lookup returns the probe count for key: the index of the hash function
// that hit, or numFuncs+1 for stash hits and misses.
func (t *table) lookup(key uint64) uint64 {
	tableSize := uint64(len(t.slots))
	for fi, f := range t.funcs {
		if t.slots[f.Slot(key, tableSize)].Key == key {
			return uint64(fi)
		}
	}
	return uint64(len(t.funcs)) + 1
}
