package cuckoostat

// Option is a functional option for configuring analysis runs.
type Option func(*analyzeConfig)

type analyzeConfig struct {
	workers          int
	slotLoads        bool
	distinctCounts   bool
	failureDetection bool
}

func defaultAnalyzeConfig() *analyzeConfig {
	return &analyzeConfig{
		workers: 0, // Default to single-threaded; use WithWorkers(n) to parallelize
	}
}

// WithWorkers sets the number of parallel workers for the analysis phase.
func WithWorkers(n int) Option {
	return func(c *analyzeConfig) {
		c.workers = n
	}
}

// WithSlotLoads enables collection of per-slot load counters.
// When disabled, the load array is neither allocated nor populated.
func WithSlotLoads() Option {
	return func(c *analyzeConfig) {
		c.slotLoads = true
	}
}

// WithDistinctCounts enables recording of each key's distinct-slot count.
// When disabled, the per-key array is neither allocated nor populated.
func WithDistinctCounts() Option {
	return func(c *analyzeConfig) {
		c.distinctCounts = true
	}
}

// WithFailureDetection enables the family failure flag: Result.Failed is
// set when any key receives fewer distinct slots than there are hash
// functions.
func WithFailureDetection() Option {
	return func(c *analyzeConfig) {
		c.failureDetection = true
	}
}
