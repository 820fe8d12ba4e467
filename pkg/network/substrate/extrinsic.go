// pkg/network/substrate/extrinsic.go
package substrate

import (
	"fmt"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

const (
	// ExtrinsicVersion is the supported extrinsic format version.
	ExtrinsicVersion = 4

	signedBit = 0x80
)

// MultiAddress variants.
const (
	addressID        = 0x00
	addressIndex     = 0x01
	addressRaw       = 0x02
	addressAddress32 = 0x03
	addressAddress20 = 0x04
)

// MultiSignature variants.
const (
	signatureEd25519 = 0x00
	signatureSr25519 = 0x01
	signatureEcdsa   = 0x02
)

// ParseExtrinsic splits an opaque block extrinsic into its signer and call.
// raw is the extrinsic as returned by chain_getBlock, length prefix included.
func (m *Metadata) ParseExtrinsic(raw []byte, format AddressFormat) (network.Extrinsic, error) {
	ext := network.Extrinsic{Hash: network.Hash(Blake2b256(raw)), Raw: raw}

	d := scale.NewDecoder(raw)
	n, err := d.Compact()
	if err != nil {
		return ext, fmt.Errorf("extrinsic length: %w", err)
	}
	if n != uint64(d.Remaining()) {
		return ext, fmt.Errorf("extrinsic length prefix %d does not match body of %d bytes", n, d.Remaining())
	}
	version, err := d.U8()
	if err != nil {
		return ext, err
	}
	if version&^signedBit != ExtrinsicVersion {
		return ext, fmt.Errorf("unsupported extrinsic version %d", version&^signedBit)
	}
	ext.Signed = version&signedBit != 0

	if ext.Signed {
		signer, err := decodeAddress(d, format)
		if err != nil {
			return ext, fmt.Errorf("signer: %w", err)
		}
		ext.Signer = signer
		if err := skipSignature(d, format); err != nil {
			return ext, fmt.Errorf("signature: %w", err)
		}
		for _, se := range m.Extrinsic.SignedExtensions {
			if _, err := m.DecodeValue(d, se.Type, format); err != nil {
				return ext, fmt.Errorf("signed extension %s: %w", se.Identifier, err)
			}
		}
	}

	call, err := d.ReadN(d.Remaining())
	if err != nil {
		return ext, err
	}
	ext.Call = call
	return ext, nil
}

func decodeAddress(d *scale.Decoder, format AddressFormat) (string, error) {
	if format.Kind() == FormatEthereum {
		id, err := d.ReadN(format.AccountIDLength())
		if err != nil {
			return "", err
		}
		return format.Encode(id), nil
	}

	kind, err := d.U8()
	if err != nil {
		return "", err
	}
	switch kind {
	case addressID, addressAddress32:
		id, err := d.ReadN(32)
		if err != nil {
			return "", err
		}
		return format.Encode(id), nil
	case addressAddress20:
		id, err := d.ReadN(20)
		if err != nil {
			return "", err
		}
		return format.Encode(id), nil
	case addressIndex:
		idx, err := d.Compact()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("index:%d", idx), nil
	case addressRaw:
		b, err := d.Bytes()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("raw:%x", b), nil
	}
	return "", fmt.Errorf("unknown address variant %d", kind)
}

func skipSignature(d *scale.Decoder, format AddressFormat) error {
	if format.Kind() == FormatEthereum {
		_, err := d.ReadN(65)
		return err
	}
	kind, err := d.U8()
	if err != nil {
		return err
	}
	switch kind {
	case signatureEd25519, signatureSr25519:
		_, err = d.ReadN(64)
	case signatureEcdsa:
		_, err = d.ReadN(65)
	default:
		err = fmt.Errorf("unknown signature variant %d", kind)
	}
	return err
}

// EncodeExtrinsic assembles a v4 extrinsic and returns it with its length
// prefix. A nil signature produces an unsigned extrinsic.
func EncodeExtrinsic(address, signature, extra, call []byte) []byte {
	var body scale.Encoder
	if signature == nil {
		body.PutU8(ExtrinsicVersion)
	} else {
		body.PutU8(ExtrinsicVersion | signedBit)
		body.PutRaw(address)
		body.PutRaw(signature)
		body.PutRaw(extra)
	}
	body.PutRaw(call)

	var out scale.Encoder
	out.PutCompact(uint64(body.Len()))
	out.PutRaw(body.Bytes())
	return out.Bytes()
}
