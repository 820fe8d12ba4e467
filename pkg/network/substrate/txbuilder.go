// pkg/network/substrate/txbuilder.go
package substrate

import (
	"context"
	"fmt"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// maxUnhashedPayload is the signing payload size above which the payload is
// replaced by its blake2b-256 digest before signing.
const maxUnhashedPayload = 256

// TxBuilder builds immortal v4 extrinsics for one chain.
type TxBuilder struct {
	meta               *Metadata
	format             AddressFormat
	genesis            network.Hash
	specVersion        uint32
	transactionVersion uint32
}

var _ network.TxBuilder = (*TxBuilder)(nil)

// NewTxBuilder creates a TxBuilder from chain parameters.
func NewTxBuilder(meta *Metadata, format AddressFormat, genesis network.Hash, version RuntimeVersion) *TxBuilder {
	return &TxBuilder{
		meta:               meta,
		format:             format,
		genesis:            genesis,
		specVersion:        version.SpecVersion,
		transactionVersion: version.TransactionVersion,
	}
}

// NewTxBuilderForNode fetches metadata, genesis hash and runtime version from
// node.
func NewTxBuilderForNode(ctx context.Context, node *Node) (*TxBuilder, error) {
	meta, err := node.Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	genesis, err := node.GenesisHash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get genesis hash: %w", err)
	}
	version, err := node.RuntimeVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime version: %w", err)
	}
	return NewTxBuilder(meta, node.AddressFormat(), genesis, *version), nil
}

// BuildTx implements network.TxBuilder.
func (b *TxBuilder) BuildTx(ctx context.Context, req *network.TxBuildRequest) (*network.UnsignedTx, error) {
	if len(req.Call) == 0 {
		return nil, fmt.Errorf("call is required")
	}

	var extra, additional scale.Encoder
	for _, se := range b.meta.Extrinsic.SignedExtensions {
		if !b.meta.IsEmptyType(se.Type) {
			if err := b.putExtra(&extra, se.Identifier, req); err != nil {
				return nil, err
			}
		}
		if !b.meta.IsEmptyType(se.AdditionalSigned) {
			if err := b.putAdditional(&additional, se.Identifier); err != nil {
				return nil, err
			}
		}
	}

	return &network.UnsignedTx{
		Call:       req.Call,
		Extra:      extra.Bytes(),
		Additional: additional.Bytes(),
		Nonce:      req.Nonce,
	}, nil
}

func (b *TxBuilder) putExtra(e *scale.Encoder, id string, req *network.TxBuildRequest) error {
	switch id {
	case "CheckMortality", "CheckEra":
		e.PutU8(0) // immortal
	case "CheckNonce":
		e.PutCompact(req.Nonce)
	case "ChargeTransactionPayment":
		e.PutCompact(req.Tip)
	case "ChargeAssetTxPayment":
		e.PutCompact(req.Tip)
		e.PutU8(0) // no asset
	case "CheckMetadataHash":
		e.PutU8(0) // disabled
	default:
		return fmt.Errorf("unsupported signed extension %s", id)
	}
	return nil
}

func (b *TxBuilder) putAdditional(e *scale.Encoder, id string) error {
	switch id {
	case "CheckSpecVersion":
		e.PutU32(b.specVersion)
	case "CheckTxVersion":
		e.PutU32(b.transactionVersion)
	case "CheckGenesis", "CheckMortality", "CheckEra":
		e.PutRaw(b.genesis[:])
	case "CheckMetadataHash":
		e.PutU8(0) // no metadata hash
	default:
		return fmt.Errorf("unsupported signed extension %s", id)
	}
	return nil
}

// SignTx implements network.TxBuilder.
func (b *TxBuilder) SignTx(ctx context.Context, tx *network.UnsignedTx, signer network.Signer) (*network.SignedTx, error) {
	address, err := b.encodeAddress(signer)
	if err != nil {
		return nil, err
	}

	payload := tx.SigningPayload()
	if len(payload) > maxUnhashedPayload {
		sum := Blake2b256(payload)
		payload = sum[:]
	}
	sig, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	signature, err := b.encodeSignature(signer.Scheme(), sig)
	if err != nil {
		return nil, err
	}

	txBytes := EncodeExtrinsic(address, signature, tx.Extra, tx.Call)
	return &network.SignedTx{
		TxBytes:   txBytes,
		Hash:      network.Hash(Blake2b256(txBytes)),
		Signature: sig,
		Nonce:     tx.Nonce,
	}, nil
}

func (b *TxBuilder) encodeAddress(signer network.Signer) ([]byte, error) {
	id := signer.AccountID()
	if len(id) != b.format.AccountIDLength() {
		return nil, fmt.Errorf("%s signer has a %d-byte account id, chain expects %d bytes",
			signer.Scheme(), len(id), b.format.AccountIDLength())
	}
	if b.format.Kind() == FormatEthereum {
		return id, nil
	}
	return append([]byte{addressID}, id...), nil
}

func (b *TxBuilder) encodeSignature(scheme network.SignatureScheme, sig []byte) ([]byte, error) {
	if b.format.Kind() == FormatEthereum {
		if scheme != network.SchemeEthereum {
			return nil, fmt.Errorf("chain requires ethereum signatures, got %s", scheme)
		}
		return sig, nil
	}

	var tag byte
	switch scheme {
	case network.SchemeEd25519:
		tag = signatureEd25519
	case network.SchemeSr25519:
		tag = signatureSr25519
	case network.SchemeEcdsa:
		tag = signatureEcdsa
	default:
		return nil, fmt.Errorf("scheme %s is not supported by MultiSignature", scheme)
	}
	return append([]byte{tag}, sig...), nil
}
