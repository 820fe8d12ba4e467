// pkg/network/substrate/storage.go
package substrate

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Twox128 is the 128-bit xxhash used for storage prefixes: two xxhash64
// digests with seeds 0 and 1, each little-endian.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		d.Write(data)
		binary.LittleEndian.PutUint64(out[seed*8:], d.Sum64())
	}
	return out
}

// StorageKey returns the key of a plain storage value.
func StorageKey(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// Blake2b256 hashes data to 32 bytes.
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// SystemEventsKey is the storage key of System.Events.
var SystemEventsKey = StorageKey("System", "Events")
