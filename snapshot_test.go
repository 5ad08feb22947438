package cuckoostat

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	custaterrors "github.com/hashlab/cuckoostat/errors"
)

// buildTestSnapshot assembles a small snapshot with a couple of occupied
// slots and stash entries.
func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	funcs, err := GenerateFunctions(testSeed1, 3)
	if err != nil {
		t.Fatalf("GenerateFunctions: %v", err)
	}

	slots := make([]Entry, 16)
	for i := range slots {
		slots[i].Key = KeyEmpty
	}
	slots[3] = Entry{Key: 100, Value: 1}
	slots[9] = Entry{Key: 200, Value: 2}

	stash := make([]Entry, 4)
	for i := range stash {
		stash[i].Key = KeyEmpty
	}
	stash[1] = Entry{Key: 300, Value: 3}

	return &Snapshot{Funcs: funcs, Slots: slots, Stash: stash}
}

// writeTestSnapshot serializes snap to a file under t.TempDir.
func writeTestSnapshot(t *testing.T, snap *Snapshot) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.snap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := WriteSnapshot(f, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := buildTestSnapshot(t)
	path := writeTestSnapshot(t, snap)

	sf, err := OpenSnapshot(path)
	if err != nil {
		t.Fatalf("OpenSnapshot: %v", err)
	}
	defer sf.Close()

	if sf.NumFunctions() != len(snap.Funcs) {
		t.Errorf("NumFunctions = %d, want %d", sf.NumFunctions(), len(snap.Funcs))
	}
	if sf.TableSize() != uint64(len(snap.Slots)) {
		t.Errorf("TableSize = %d, want %d", sf.TableSize(), len(snap.Slots))
	}
	if sf.StashSize() != uint64(len(snap.Stash)) {
		t.Errorf("StashSize = %d, want %d", sf.StashSize(), len(snap.Stash))
	}

	funcs, err := sf.Funcs()
	if err != nil {
		t.Fatalf("Funcs: %v", err)
	}
	for i := range snap.Funcs {
		if funcs[i] != snap.Funcs[i] {
			t.Errorf("function %d = %+v, want %+v", i, funcs[i], snap.Funcs[i])
		}
	}

	slots, err := sf.Slots()
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	for i := range snap.Slots {
		if slots[i] != snap.Slots[i] {
			t.Errorf("slot %d = %+v, want %+v", i, slots[i], snap.Slots[i])
		}
	}

	stash, err := sf.Stash()
	if err != nil {
		t.Fatalf("Stash: %v", err)
	}
	occupied := OccupiedStashEntries(stash)
	if len(occupied) != 1 || occupied[0] != (StashEntry{Slot: 1, Key: 300, Value: 3}) {
		t.Errorf("occupied stash = %v", occupied)
	}
}

func TestWriteSnapshotValidation(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, &Snapshot{Slots: make([]Entry, 4)}); !errors.Is(err, custaterrors.ErrBadFunctionCount) {
		t.Errorf("no functions: expected ErrBadFunctionCount, got %v", err)
	}
	funcs, err := GenerateFunctions(testSeed1, 2)
	if err != nil {
		t.Fatalf("GenerateFunctions: %v", err)
	}
	if err := WriteSnapshot(&buf, &Snapshot{Funcs: funcs}); !errors.Is(err, custaterrors.ErrBadTableSize) {
		t.Errorf("no slots: expected ErrBadTableSize, got %v", err)
	}
}

// corruptAt opens a valid snapshot after overwriting the byte at offset.
func corruptAt(t *testing.T, offset int64, b byte) error {
	t.Helper()
	path := writeTestSnapshot(t, buildTestSnapshot(t))
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("open for corruption: %v", err)
	}
	if _, err := f.WriteAt([]byte{b}, offset); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err = OpenSnapshot(path)
	return err
}

func TestOpenSnapshotCorruption(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		if err := corruptAt(t, 0, 0xFF); !errors.Is(err, custaterrors.ErrInvalidMagic) {
			t.Errorf("expected ErrInvalidMagic, got %v", err)
		}
	})

	t.Run("bad version", func(t *testing.T) {
		if err := corruptAt(t, 4, 0x7F); !errors.Is(err, custaterrors.ErrInvalidVersion) {
			t.Errorf("expected ErrInvalidVersion, got %v", err)
		}
	})

	t.Run("zero function count", func(t *testing.T) {
		if err := corruptAt(t, 6, 0x00); !errors.Is(err, custaterrors.ErrCorruptedSnapshot) {
			t.Errorf("expected ErrCorruptedSnapshot, got %v", err)
		}
	})

	t.Run("flipped body byte", func(t *testing.T) {
		// Offset inside the slot region: header + 3 functions + a bit.
		offset := int64(snapshotHeaderSize + 3*snapshotEntrySize + 5)
		if err := corruptAt(t, offset, 0xAB); !errors.Is(err, custaterrors.ErrChecksumFailed) {
			t.Errorf("expected ErrChecksumFailed, got %v", err)
		}
	})

	t.Run("truncated tail", func(t *testing.T) {
		path := writeTestSnapshot(t, buildTestSnapshot(t))
		stat, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if err := os.Truncate(path, stat.Size()-10); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if _, err := OpenSnapshot(path); !errors.Is(err, custaterrors.ErrTruncatedSnapshot) {
			t.Errorf("expected ErrTruncatedSnapshot, got %v", err)
		}
	})

	t.Run("truncated below minimum", func(t *testing.T) {
		path := writeTestSnapshot(t, buildTestSnapshot(t))
		if err := os.Truncate(path, 10); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		if _, err := OpenSnapshot(path); !errors.Is(err, custaterrors.ErrTruncatedSnapshot) {
			t.Errorf("expected ErrTruncatedSnapshot, got %v", err)
		}
	})

	t.Run("trailing garbage", func(t *testing.T) {
		path := writeTestSnapshot(t, buildTestSnapshot(t))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			t.Fatalf("open for append: %v", err)
		}
		if _, err := f.Write(make([]byte, 32)); err != nil {
			t.Fatalf("append: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if _, err := OpenSnapshot(path); !errors.Is(err, custaterrors.ErrCorruptedSnapshot) {
			t.Errorf("expected ErrCorruptedSnapshot, got %v", err)
		}
	})
}

func TestSnapshotClose(t *testing.T) {
	path := writeTestSnapshot(t, buildTestSnapshot(t))
	sf, err := OpenSnapshot(path)
	if err != nil {
		t.Fatalf("OpenSnapshot: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := sf.Slots(); !errors.Is(err, custaterrors.ErrSnapshotClosed) {
		t.Errorf("Slots after Close: expected ErrSnapshotClosed, got %v", err)
	}
	if _, err := sf.Stash(); !errors.Is(err, custaterrors.ErrSnapshotClosed) {
		t.Errorf("Stash after Close: expected ErrSnapshotClosed, got %v", err)
	}
	if _, err := sf.Funcs(); !errors.Is(err, custaterrors.ErrSnapshotClosed) {
		t.Errorf("Funcs after Close: expected ErrSnapshotClosed, got %v", err)
	}
}
