package cuckoostat

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	custaterrors "github.com/hashlab/cuckoostat/errors"
)

// MaxHashFunctions is the maximum number of hash functions a table
// configuration may carry. Per-key slot buffers are sized to this bound,
// so analysis never allocates per key.
const MaxHashFunctions = 8

// KeyEmpty is the reserved key marking a vacant slot or stash entry.
// It can never be a real key.
const KeyEmpty = ^uint64(0)

// HashFunc is one member of a hash-function family: the (multiplier,
// increment) pair of a multiplicative hash mapping a key to a table slot.
type HashFunc struct {
	Multiplier uint64
	Increment  uint64
}

// mix64 is the SplitMix64 finalizer. Applied after the multiplicative
// step so that keys with a common stride do not collapse onto a small
// set of residues of the table size.
func mix64(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

// Slot maps key to a slot index in [0, tableSize).
func (f HashFunc) Slot(key, tableSize uint64) uint64 {
	return mix64(f.Multiplier*key+f.Increment) % tableSize
}

// GenerateFunctions derives n hash functions from seed. The derivation is
// deterministic: the same seed always yields the same family. Multipliers
// are forced odd; multiplying by an odd number is a bijection mod 2^64,
// so the multiplicative step never discards key bits.
func GenerateFunctions(seed uint64, n int) ([]HashFunc, error) {
	if n < 1 || n > MaxHashFunctions {
		return nil, custaterrors.ErrBadFunctionCount
	}

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)

	funcs := make([]HashFunc, n)
	for i := range funcs {
		binary.LittleEndian.PutUint64(buf[8:16], uint64(i))
		h := xxh3.Hash128(buf[:])
		funcs[i] = HashFunc{
			Multiplier: h.Hi | 1,
			Increment:  h.Lo,
		}
	}
	return funcs, nil
}
