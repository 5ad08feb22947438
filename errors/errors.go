// Package errors defines all exported error sentinels for the cuckoostat library.
//
// This is the single source of truth for error values. Both the top-level
// cuckoostat package and internal packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Precondition errors
var (
	ErrBadFunctionCount = errors.New("cuckoostat: hash function count must be in [1, MaxHashFunctions]")
	ErrBadTableSize     = errors.New("cuckoostat: table size must be positive")
	ErrNoSamples        = errors.New("cuckoostat: cannot summarize an empty sample sequence")
	ErrProbeOutOfRange  = errors.New("cuckoostat: probe count outside histogram domain")
)

// Snapshot file errors
var (
	ErrInvalidMagic      = errors.New("cuckoostat: invalid snapshot magic number")
	ErrInvalidVersion    = errors.New("cuckoostat: unsupported snapshot version")
	ErrChecksumFailed    = errors.New("cuckoostat: snapshot checksum verification failed")
	ErrTruncatedSnapshot = errors.New("cuckoostat: snapshot file is truncated")
	ErrCorruptedSnapshot = errors.New("cuckoostat: snapshot data is corrupted")
	ErrSnapshotClosed    = errors.New("cuckoostat: snapshot is closed")
)
