// Package shuffle reproduces the seeded shuffle the runtime applies to signed
// extrinsics before dispatching them: a xoshiro256+ generator seeded with the
// block's 32-byte seed, driving an in-place Fisher-Yates shuffle.
package shuffle

import (
	"encoding/binary"
	"math/bits"
)

// Xoshiro256Plus is the xoshiro256+ generator.
type Xoshiro256Plus struct {
	s [4]uint64
}

// NewXoshiro256Plus seeds a generator from 32 bytes, read as four
// little-endian 64-bit state words. An all-zero seed is used as is.
func NewXoshiro256Plus(seed [32]byte) *Xoshiro256Plus {
	x := &Xoshiro256Plus{}
	for i := range x.s {
		x.s[i] = binary.LittleEndian.Uint64(seed[i*8 : i*8+8])
	}
	return x
}

// Next returns the next raw 64-bit output and advances the state.
func (x *Xoshiro256Plus) Next() uint64 {
	s := &x.s
	result := s[0] + s[3]
	t := s[1] << 17

	s[2] ^= s[0]
	s[3] ^= s[1]
	s[1] ^= s[2]
	s[0] ^= s[3]
	s[2] ^= t
	s[3] = bits.RotateLeft64(s[3], 45)

	return result
}

// NextU32 returns the upper 32 bits of the next output; the low bits of
// xoshiro256+ are weak.
func (x *Xoshiro256Plus) NextU32() uint32 {
	return uint32(x.Next() >> 32)
}

// NextU64 composes two consecutive NextU32 draws, high half first.
func (x *Xoshiro256Plus) NextU64() uint64 {
	hi := uint64(x.NextU32())
	lo := uint64(x.NextU32())
	return hi<<32 | lo
}

// NextBounded returns NextU64() modulo bound. bound must be non-zero.
func (x *Xoshiro256Plus) NextBounded(bound uint64) uint64 {
	return x.NextU64() % bound
}
