package cuckoostat

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	custaterrors "github.com/hashlab/cuckoostat/errors"
)

const (
	// snapshotMagic identifies cuckoo table snapshot files.
	// "CKST" in little-endian.
	snapshotMagic = uint32(0x434B5354)

	// snapshotVersion is the current snapshot format version.
	snapshotVersion = uint16(0x0001)

	// snapshotHeaderSize is the exact size of the serialized header.
	snapshotHeaderSize = 24

	// snapshotEntrySize is the size of one serialized Entry or HashFunc
	// (two little-endian uint64s).
	snapshotEntrySize = 16

	// snapshotChecksumSize is the size of the trailing xxHash64 checksum.
	snapshotChecksumSize = 8

	// minSnapshotSize is the smallest structurally valid file: header,
	// one hash function, one slot, empty stash, checksum.
	minSnapshotSize = snapshotHeaderSize + 2*snapshotEntrySize + snapshotChecksumSize
)

// Snapshot is an in-memory image of a cuckoo hash table as dumped by the
// table engine: the hash-function constants, the primary slot array, and
// the fixed-capacity stash.
//
// File layout (all fields little-endian):
//
//	Offset  Size   Field
//	0       4      Magic      0x434B5354 ("CKST")
//	4       2      Version    0x0001
//	6       2      NumFuncs   uint16
//	8       8      TableSize  uint64
//	16      8      StashSize  uint64
//	24      nf×16  Funcs      (Multiplier, Increment) pairs
//	·       ts×16  Slots      (Key, Value) pairs
//	·       ss×16  Stash      (Key, Value) pairs
//	end-8   8      Checksum   xxHash64 of all preceding bytes
type Snapshot struct {
	Funcs []HashFunc
	Slots []Entry
	Stash []Entry
}

// WriteSnapshot serializes snap to w. Bytes are folded into a streaming
// xxHash64 while they are written; the digest becomes the trailing
// checksum.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	if len(snap.Funcs) < 1 || len(snap.Funcs) > MaxHashFunctions {
		return custaterrors.ErrBadFunctionCount
	}
	if len(snap.Slots) == 0 {
		return custaterrors.ErrBadTableSize
	}

	hasher := xxhash.New()
	out := io.MultiWriter(w, hasher)

	var header [snapshotHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], snapshotMagic)
	binary.LittleEndian.PutUint16(header[4:6], snapshotVersion)
	binary.LittleEndian.PutUint16(header[6:8], uint16(len(snap.Funcs)))
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(snap.Slots)))
	binary.LittleEndian.PutUint64(header[16:24], uint64(len(snap.Stash)))
	if _, err := out.Write(header[:]); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	var pair [snapshotEntrySize]byte
	writePair := func(a, b uint64) error {
		binary.LittleEndian.PutUint64(pair[0:8], a)
		binary.LittleEndian.PutUint64(pair[8:16], b)
		_, err := out.Write(pair[:])
		return err
	}

	for _, f := range snap.Funcs {
		if err := writePair(f.Multiplier, f.Increment); err != nil {
			return fmt.Errorf("write snapshot functions: %w", err)
		}
	}
	for _, e := range snap.Slots {
		if err := writePair(e.Key, e.Value); err != nil {
			return fmt.Errorf("write snapshot slots: %w", err)
		}
	}
	for _, e := range snap.Stash {
		if err := writePair(e.Key, e.Value); err != nil {
			return fmt.Errorf("write snapshot stash: %w", err)
		}
	}

	var checksum [snapshotChecksumSize]byte
	binary.LittleEndian.PutUint64(checksum[:], hasher.Sum64())
	if _, err := w.Write(checksum[:]); err != nil {
		return fmt.Errorf("write snapshot checksum: %w", err)
	}
	return nil
}

// SnapshotFile is a read-only, memory-mapped table snapshot.
//
// Accessors are safe for concurrent use. Close is not safe to call
// concurrently with accessors and must only be called after all reads
// have completed.
type SnapshotFile struct {
	mmap mmap.MMap
	data []byte

	numFuncs  int
	tableSize uint64
	stashSize uint64

	funcsOffset uint64
	slotsOffset uint64
	stashOffset uint64

	closed atomic.Bool
}

// OpenSnapshot opens a snapshot file for reading. It opens the file,
// memory-maps it, and closes the file descriptor.
func OpenSnapshot(path string) (*SnapshotFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()
	return OpenSnapshotFile(f)
}

// OpenSnapshotFile opens a snapshot by memory-mapping the given file.
// The caller is responsible for closing f. Per POSIX mmap(2), f may be
// closed immediately after OpenSnapshotFile returns.
func OpenSnapshotFile(f *os.File) (*SnapshotFile, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat snapshot file: %w", err)
	}
	fileSize := stat.Size()
	if fileSize < minSnapshotSize {
		return nil, custaterrors.ErrTruncatedSnapshot
	}

	// The whole file is read front to back for checksum verification.
	fadviseSequential(int(f.Fd()), 0, fileSize)

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap snapshot file: %w", err)
	}
	data := []byte(mm)

	sf := &SnapshotFile{mmap: mm, data: data}
	if err := sf.parseAndVerify(); err != nil {
		_ = mm.Unmap()
		return nil, err
	}
	return sf, nil
}

func (sf *SnapshotFile) parseAndVerify() error {
	data := sf.data

	if binary.LittleEndian.Uint32(data[0:4]) != snapshotMagic {
		return custaterrors.ErrInvalidMagic
	}
	if binary.LittleEndian.Uint16(data[4:6]) != snapshotVersion {
		return custaterrors.ErrInvalidVersion
	}

	numFuncs := int(binary.LittleEndian.Uint16(data[6:8]))
	tableSize := binary.LittleEndian.Uint64(data[8:16])
	stashSize := binary.LittleEndian.Uint64(data[16:24])

	if numFuncs < 1 || numFuncs > MaxHashFunctions {
		return custaterrors.ErrCorruptedSnapshot
	}
	if tableSize == 0 {
		return custaterrors.ErrCorruptedSnapshot
	}

	expected := uint64(snapshotHeaderSize) +
		(uint64(numFuncs)+tableSize+stashSize)*snapshotEntrySize +
		snapshotChecksumSize
	if uint64(len(data)) < expected {
		return custaterrors.ErrTruncatedSnapshot
	}
	if uint64(len(data)) != expected {
		return custaterrors.ErrCorruptedSnapshot
	}

	body := data[:len(data)-snapshotChecksumSize]
	want := binary.LittleEndian.Uint64(data[len(data)-snapshotChecksumSize:])
	if xxhash.Sum64(body) != want {
		return custaterrors.ErrChecksumFailed
	}

	sf.numFuncs = numFuncs
	sf.tableSize = tableSize
	sf.stashSize = stashSize
	sf.funcsOffset = snapshotHeaderSize
	sf.slotsOffset = sf.funcsOffset + uint64(numFuncs)*snapshotEntrySize
	sf.stashOffset = sf.slotsOffset + tableSize*snapshotEntrySize
	return nil
}

// NumFunctions returns the number of hash functions in the snapshot.
func (sf *SnapshotFile) NumFunctions() int { return sf.numFuncs }

// TableSize returns the primary table capacity.
func (sf *SnapshotFile) TableSize() uint64 { return sf.tableSize }

// StashSize returns the stash capacity.
func (sf *SnapshotFile) StashSize() uint64 { return sf.stashSize }

func (sf *SnapshotFile) pairAt(offset uint64) (uint64, uint64) {
	return binary.LittleEndian.Uint64(sf.data[offset : offset+8]),
		binary.LittleEndian.Uint64(sf.data[offset+8 : offset+16])
}

// Funcs decodes the hash-function constant pairs.
func (sf *SnapshotFile) Funcs() ([]HashFunc, error) {
	if sf.closed.Load() {
		return nil, custaterrors.ErrSnapshotClosed
	}
	funcs := make([]HashFunc, sf.numFuncs)
	for i := range funcs {
		m, c := sf.pairAt(sf.funcsOffset + uint64(i)*snapshotEntrySize)
		funcs[i] = HashFunc{Multiplier: m, Increment: c}
	}
	return funcs, nil
}

// Slots decodes the primary slot array.
func (sf *SnapshotFile) Slots() ([]Entry, error) {
	if sf.closed.Load() {
		return nil, custaterrors.ErrSnapshotClosed
	}
	return sf.decodeEntries(sf.slotsOffset, sf.tableSize), nil
}

// Stash decodes the stash region.
func (sf *SnapshotFile) Stash() ([]Entry, error) {
	if sf.closed.Load() {
		return nil, custaterrors.ErrSnapshotClosed
	}
	return sf.decodeEntries(sf.stashOffset, sf.stashSize), nil
}

func (sf *SnapshotFile) decodeEntries(offset, n uint64) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		k, v := sf.pairAt(offset + uint64(i)*snapshotEntrySize)
		entries[i] = Entry{Key: k, Value: v}
	}
	return entries
}

// Close unmaps the snapshot. After Close returns, no methods may be
// called on the SnapshotFile.
func (sf *SnapshotFile) Close() error {
	if sf.closed.Swap(true) {
		return nil
	}
	if err := sf.mmap.Unmap(); err != nil {
		return fmt.Errorf("unmap snapshot file: %w", err)
	}
	return nil
}
