package cuckoostat

// Entry is one encoded (key, value) pair of the table or its stash.
// A key of KeyEmpty marks a vacant slot.
type Entry struct {
	Key   uint64
	Value uint64
}

// IsEmpty reports whether the entry is vacant.
func (e Entry) IsEmpty() bool { return e.Key == KeyEmpty }

// StashEntry is one occupied stash slot, as emitted by a dump.
type StashEntry struct {
	Slot  int
	Key   uint64
	Value uint64
}

// OccupiedStashEntries scans a stash snapshot in ascending index order and
// returns its occupied entries. The snapshot is never modified.
func OccupiedStashEntries(stash []Entry) []StashEntry {
	var occupied []StashEntry
	for i, e := range stash {
		if e.IsEmpty() {
			continue
		}
		occupied = append(occupied, StashEntry{Slot: i, Key: e.Key, Value: e.Value})
	}
	return occupied
}
