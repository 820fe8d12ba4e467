// pkg/network/txbuilder.go
package network

import (
	"context"
)

// TxBuilder is the core abstraction for building and signing extrinsics.
//
// A TxBuilder is created for a specific chain (genesis hash, runtime version,
// signed extension layout) and then used for many transactions.
type TxBuilder interface {
	// BuildTx constructs the signing payload for a call.
	BuildTx(ctx context.Context, req *TxBuildRequest) (*UnsignedTx, error)

	// SignTx signs an unsigned transaction and assembles the final extrinsic.
	SignTx(ctx context.Context, tx *UnsignedTx, signer Signer) (*SignedTx, error)
}

// SignatureScheme identifies the key type of a signer.
type SignatureScheme string

// Supported signature schemes.
const (
	SchemeEd25519  SignatureScheme = "ed25519"
	SchemeSr25519  SignatureScheme = "sr25519"
	SchemeEcdsa    SignatureScheme = "ecdsa"
	SchemeEthereum SignatureScheme = "ethereum"
)

// Signer holds key material for one account.
type Signer interface {
	// Scheme returns the signature scheme.
	Scheme() SignatureScheme

	// AccountID returns the raw on-chain account id (32 bytes, or 20 for ethereum).
	AccountID() []byte

	// PublicKey returns the raw public key.
	PublicKey() []byte

	// Sign signs msg. The scheme decides whether msg is hashed first.
	Sign(msg []byte) ([]byte, error)
}

// TxBuildRequest contains the parameters for building a transaction.
type TxBuildRequest struct {
	// Call is the SCALE-encoded call (pallet index, call index, arguments).
	Call []byte `json:"call"`

	// Signer is the account that will sign the transaction.
	Signer Signer `json:"-"`

	// Nonce is the sequence number to embed.
	Nonce uint64 `json:"nonce"`

	// Tip is an optional priority tip in the chain's native unit.
	Tip uint64 `json:"tip,omitempty"`
}

// UnsignedTx represents a transaction ready for signing.
type UnsignedTx struct {
	// Call is the encoded call.
	Call []byte `json:"call"`

	// Extra is the encoded signed-extension data carried in the extrinsic.
	Extra []byte `json:"extra"`

	// Additional is the encoded implicit data that is signed but not carried.
	Additional []byte `json:"additional"`

	// Nonce is the signer's sequence number.
	Nonce uint64 `json:"nonce"`
}

// SigningPayload returns call ++ extra ++ additional.
func (tx *UnsignedTx) SigningPayload() []byte {
	out := make([]byte, 0, len(tx.Call)+len(tx.Extra)+len(tx.Additional))
	out = append(out, tx.Call...)
	out = append(out, tx.Extra...)
	return append(out, tx.Additional...)
}

// SignedTx represents a fully signed extrinsic.
type SignedTx struct {
	// TxBytes is the encoded extrinsic, length prefix included.
	TxBytes []byte `json:"txBytes"`

	// Hash is the blake2b-256 digest of TxBytes.
	Hash Hash `json:"hash"`

	// Signature is the raw signature.
	Signature []byte `json:"signature"`

	// Nonce is the sequence number embedded in the extrinsic.
	Nonce uint64 `json:"nonce"`
}
