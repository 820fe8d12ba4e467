// pkg/network/substrate/address.go
package substrate

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Address format names accepted by NewAddressFormat.
const (
	FormatSS58     = "ss58"
	FormatEthereum = "ethereum"
)

// DefaultSS58Prefix is the generic Substrate prefix (42).
const DefaultSS58Prefix uint16 = 42

// AddressFormat renders account ids the way the chain's client libraries do.
// Signer addresses are sorted by their rendered form when reconstructing the
// execution order, so the rendering must match the node's conventions exactly.
type AddressFormat struct {
	kind   string
	prefix uint16
}

// NewAddressFormat validates and creates an AddressFormat.
func NewAddressFormat(kind string, prefix uint16) (AddressFormat, error) {
	switch kind {
	case "", FormatSS58:
		if _, err := ss58PrefixBytes(prefix); err != nil {
			return AddressFormat{}, err
		}
		return AddressFormat{kind: FormatSS58, prefix: prefix}, nil
	case FormatEthereum:
		return AddressFormat{kind: FormatEthereum}, nil
	}
	return AddressFormat{}, fmt.Errorf("unknown address format %q (must be %q or %q)", kind, FormatSS58, FormatEthereum)
}

// DefaultAddressFormat returns SS58 with the generic prefix.
func DefaultAddressFormat() AddressFormat {
	return AddressFormat{kind: FormatSS58, prefix: DefaultSS58Prefix}
}

// Kind returns the format name.
func (f AddressFormat) Kind() string {
	if f.kind == "" {
		return FormatSS58
	}
	return f.kind
}

// AccountIDLength is the size of an account id in this format.
func (f AddressFormat) AccountIDLength() int {
	if f.Kind() == FormatEthereum {
		return common.AddressLength
	}
	return 32
}

// Encode renders an account id. 20-byte ids are always rendered as EIP-55
// checksummed hex.
func (f AddressFormat) Encode(accountID []byte) string {
	if len(accountID) == common.AddressLength {
		return common.BytesToAddress(accountID).Hex()
	}
	prefix := f.prefix
	if f.kind == "" {
		prefix = DefaultSS58Prefix
	}
	addr, err := SS58Encode(accountID, prefix)
	if err != nil {
		return hexutil.Encode(accountID)
	}
	return addr
}

// Decode parses an address rendered in SS58 or hex into an account id.
func (f AddressFormat) Decode(address string) ([]byte, error) {
	if strings.HasPrefix(address, "0x") {
		b, err := hexutil.Decode(address)
		if err != nil {
			return nil, fmt.Errorf("invalid hex address %q: %w", address, err)
		}
		if len(b) != f.AccountIDLength() {
			return nil, fmt.Errorf("invalid address %q: expected %d bytes, got %d", address, f.AccountIDLength(), len(b))
		}
		return b, nil
	}
	if f.Kind() == FormatEthereum {
		return nil, fmt.Errorf("invalid address %q: ethereum accounts must be 0x-prefixed", address)
	}
	id, _, err := SS58Decode(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}
	return id, nil
}
