// pkg/network/substrate/ss58.go
package substrate

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var ss58Context = []byte("SS58PRE")

// ss58Checksum returns the first two bytes of blake2b-512("SS58PRE" ++ data).
func ss58Checksum(data []byte) []byte {
	h, _ := blake2b.New512(nil)
	h.Write(ss58Context)
	h.Write(data)
	return h.Sum(nil)[:2]
}

func ss58PrefixBytes(prefix uint16) ([]byte, error) {
	switch {
	case prefix < 64:
		return []byte{byte(prefix)}, nil
	case prefix < 16384:
		first := byte((prefix&0x00fc)>>2) | 0x40
		second := byte(prefix>>8) | byte((prefix&0x0003)<<6)
		return []byte{first, second}, nil
	}
	return nil, fmt.Errorf("ss58 prefix %d out of range", prefix)
}

// SS58Encode renders a 32-byte account id as an SS58 address.
func SS58Encode(accountID []byte, prefix uint16) (string, error) {
	if len(accountID) != 32 && len(accountID) != 33 {
		return "", fmt.Errorf("ss58: unsupported account id length %d", len(accountID))
	}
	pb, err := ss58PrefixBytes(prefix)
	if err != nil {
		return "", err
	}
	payload := append(append([]byte{}, pb...), accountID...)
	return base58.Encode(append(payload, ss58Checksum(payload)...)), nil
}

// SS58Decode parses an SS58 address into its account id and network prefix.
func SS58Decode(address string) ([]byte, uint16, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, 0, fmt.Errorf("ss58: %w", err)
	}
	if len(raw) < 3 {
		return nil, 0, fmt.Errorf("ss58: address too short")
	}

	var prefix uint16
	prefixLen := 1
	if raw[0]&0x40 != 0 {
		prefixLen = 2
		lower := (raw[0] << 2) | (raw[1] >> 6)
		upper := raw[1] & 0x3f
		prefix = uint16(lower) | uint16(upper)<<8
	} else {
		prefix = uint16(raw[0])
	}

	body := raw[:len(raw)-2]
	if len(body)-prefixLen != 32 && len(body)-prefixLen != 33 {
		return nil, 0, fmt.Errorf("ss58: unsupported account id length %d", len(body)-prefixLen)
	}
	if !bytes.Equal(ss58Checksum(body), raw[len(raw)-2:]) {
		return nil, 0, fmt.Errorf("ss58: invalid checksum")
	}
	return body[prefixLen:], prefix, nil
}
