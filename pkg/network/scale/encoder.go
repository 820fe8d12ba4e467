package scale

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
)

// Encoder accumulates SCALE-encoded values.
type Encoder struct {
	buf bytes.Buffer
}

// Bytes returns the encoded output.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Len returns the number of encoded bytes.
func (e *Encoder) Len() int { return e.buf.Len() }

// PutRaw appends b without a length prefix.
func (e *Encoder) PutRaw(b []byte) { e.buf.Write(b) }

// PutBool appends a boolean.
func (e *Encoder) PutBool(v bool) {
	if v {
		e.buf.WriteByte(1)
		return
	}
	e.buf.WriteByte(0)
}

// PutU8 appends a byte.
func (e *Encoder) PutU8(v uint8) { e.buf.WriteByte(v) }

// PutU16 appends a little-endian u16.
func (e *Encoder) PutU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.buf.Write(b[:])
}

// PutU32 appends a little-endian u32.
func (e *Encoder) PutU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// PutU64 appends a little-endian u64.
func (e *Encoder) PutU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// PutUintN appends v as an n-byte little-endian integer.
func (e *Encoder) PutUintN(v *big.Int, n int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("scale: negative value %s for unsigned field", v)
	}
	be := v.Bytes()
	if len(be) > n {
		return fmt.Errorf("scale: value %s does not fit in %d bytes", v, n)
	}
	out := make([]byte, n)
	for i := range be {
		out[i] = be[len(be)-1-i]
	}
	e.buf.Write(out)
	return nil
}

// PutCompact appends a compact-encoded integer.
func (e *Encoder) PutCompact(v uint64) {
	e.buf.Write(EncodeCompact(v))
}

// PutCompactBig appends a compact-encoded integer of any width.
func (e *Encoder) PutCompactBig(v *big.Int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("scale: negative compact value %s", v)
	}
	if v.IsUint64() {
		e.PutCompact(v.Uint64())
		return nil
	}
	be := v.Bytes()
	if len(be) > 67 {
		return fmt.Errorf("scale: compact value %s too large", v)
	}
	e.buf.WriteByte(byte((len(be)-4)<<2) | 0x03)
	for i := len(be) - 1; i >= 0; i-- {
		e.buf.WriteByte(be[i])
	}
	return nil
}

// PutBytes appends a compact length-prefixed byte vector.
func (e *Encoder) PutBytes(b []byte) {
	e.PutCompact(uint64(len(b)))
	e.buf.Write(b)
}

// PutString appends a compact length-prefixed string.
func (e *Encoder) PutString(s string) {
	e.PutBytes([]byte(s))
}

// EncodeCompact returns the compact encoding of v.
func EncodeCompact(v uint64) []byte {
	switch {
	case v < 1<<6:
		return []byte{byte(v << 2)}
	case v < 1<<14:
		x := uint16(v<<2) | 0x01
		return []byte{byte(x), byte(x >> 8)}
	case v < 1<<30:
		x := uint32(v<<2) | 0x02
		return []byte{byte(x), byte(x >> 8), byte(x >> 16), byte(x >> 24)}
	}
	n := 0
	for t := v; t > 0; t >>= 8 {
		n++
	}
	if n < 4 {
		n = 4
	}
	out := make([]byte, 1, n+1)
	out[0] = byte((n-4)<<2) | 0x03
	for i := 0; i < n; i++ {
		out = append(out, byte(v>>(8*i)))
	}
	return out
}
