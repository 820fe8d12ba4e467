// Package scale implements the subset of the SCALE codec needed to talk to
// Substrate nodes: fixed-width little-endian integers, compact integers,
// length-prefixed byte vectors, strings, booleans and option tags.
package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// ErrShortBuffer is returned when the input ends before a value is complete.
var ErrShortBuffer = errors.New("scale: unexpected end of input")

// Decoder reads SCALE values from a byte slice.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder creates a Decoder over b. The slice is not copied.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.off }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// ReadN consumes and returns the next n bytes.
func (d *Decoder) ReadN(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortBuffer, n, d.off, d.Remaining())
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out, nil
}

// ReadByte consumes a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.ReadN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Bool decodes a boolean (0x00 or 0x01).
func (d *Decoder) Bool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid bool byte 0x%02x", b)
	}
}

// U8 decodes an unsigned 8-bit integer.
func (d *Decoder) U8() (uint8, error) {
	return d.ReadByte()
}

// U16 decodes a little-endian unsigned 16-bit integer.
func (d *Decoder) U16() (uint16, error) {
	b, err := d.ReadN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 decodes a little-endian unsigned 32-bit integer.
func (d *Decoder) U32() (uint32, error) {
	b, err := d.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 decodes a little-endian unsigned 64-bit integer.
func (d *Decoder) U64() (uint64, error) {
	b, err := d.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// UintN decodes an n-byte little-endian unsigned integer of arbitrary width.
func (d *Decoder) UintN(n int) (*big.Int, error) {
	b, err := d.ReadN(n)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(reverse(b)), nil
}

// Compact decodes a compact-encoded integer that must fit in 64 bits.
func (d *Decoder) Compact() (uint64, error) {
	v, err := d.CompactBig()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("scale: compact value %s overflows uint64", v)
	}
	return v.Uint64(), nil
}

// CompactBig decodes a compact-encoded integer of any width.
func (d *Decoder) CompactBig() (*big.Int, error) {
	b0, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch b0 & 0x03 {
	case 0:
		return big.NewInt(int64(b0 >> 2)), nil
	case 1:
		b1, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		v := (uint64(b1)<<8 | uint64(b0)) >> 2
		return new(big.Int).SetUint64(v), nil
	case 2:
		rest, err := d.ReadN(3)
		if err != nil {
			return nil, err
		}
		v := (uint64(rest[2])<<24 | uint64(rest[1])<<16 | uint64(rest[0])<<8 | uint64(b0)) >> 2
		return new(big.Int).SetUint64(v), nil
	default:
		n := int(b0>>2) + 4
		return d.UintN(n)
	}
}

// Length decodes a compact length prefix and bounds-checks it against the
// remaining input so corrupt data cannot trigger huge allocations.
func (d *Decoder) Length() (int, error) {
	n, err := d.Compact()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.Remaining()) {
		return 0, fmt.Errorf("%w: length %d exceeds remaining %d", ErrShortBuffer, n, d.Remaining())
	}
	return int(n), nil
}

// Bytes decodes a compact length-prefixed byte vector.
func (d *Decoder) Bytes() ([]byte, error) {
	n, err := d.Length()
	if err != nil {
		return nil, err
	}
	return d.ReadN(n)
}

// String decodes a compact length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	b, err := d.Bytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Option decodes an option tag and reports whether a value follows.
func (d *Decoder) Option() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("scale: invalid option tag 0x%02x", b)
	}
}

// Strings decodes a Vec<String>.
func (d *Decoder) Strings() ([]string, error) {
	n, err := d.Length()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := d.String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[len(b)-1-i] = b[i]
	}
	return out
}
