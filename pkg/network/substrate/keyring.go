// pkg/network/substrate/keyring.go
package substrate

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/tyler-smith/go-bip39"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/scale"
)

// DevPhrase is the well-known mnemonic behind the //Alice, //Bob, ... dev accounts.
const DevPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"

// signingContext is the sr25519 signing context used by Substrate.
var signingContext = []byte("substrate")

// junction is one "//hard" path segment of a secret URI.
type junction struct {
	chainCode [32]byte
}

// newJunction encodes a path segment into a chain code: numbers as u64,
// everything else as a SCALE string, truncated or zero-padded to 32 bytes
// (longer encodings are hashed).
func newJunction(segment string) junction {
	var j junction
	var enc []byte
	if n, err := strconv.ParseUint(segment, 10, 64); err == nil {
		enc = binary.LittleEndian.AppendUint64(nil, n)
	} else {
		var e scale.Encoder
		e.PutString(segment)
		enc = e.Bytes()
	}
	if len(enc) > 32 {
		sum := Blake2b256(enc)
		enc = sum[:]
	}
	copy(j.chainCode[:], enc)
	return j
}

// secretURI is a parsed "<phrase|0xseed>//hard//path///password" string.
type secretURI struct {
	phrase    string
	seed      []byte
	junctions []junction
	password  string
}

func parseSecretURI(uri string) (*secretURI, error) {
	s := &secretURI{}
	rest := strings.TrimSpace(uri)

	if i := strings.Index(rest, "///"); i >= 0 {
		s.password = rest[i+3:]
		rest = rest[:i]
	}

	base := rest
	path := ""
	if i := strings.Index(rest, "/"); i >= 0 {
		base, path = rest[:i], rest[i:]
	}
	base = strings.TrimSpace(base)
	if base == "" {
		base = DevPhrase
	}

	for path != "" {
		if !strings.HasPrefix(path, "//") {
			return nil, fmt.Errorf("invalid secret URI %q: soft derivation is not supported", uri)
		}
		path = path[2:]
		end := strings.Index(path, "/")
		segment := path
		if end >= 0 {
			segment, path = path[:end], path[end:]
		} else {
			path = ""
		}
		if segment == "" {
			return nil, fmt.Errorf("invalid secret URI %q: empty path segment", uri)
		}
		s.junctions = append(s.junctions, newJunction(segment))
	}

	if strings.HasPrefix(base, "0x") {
		seed, err := hexutil.Decode(base)
		if err != nil {
			return nil, fmt.Errorf("invalid secret seed: %w", err)
		}
		if len(seed) != 32 {
			return nil, fmt.Errorf("invalid secret seed: expected 32 bytes, got %d", len(seed))
		}
		s.seed = seed
		return s, nil
	}
	if !bip39.IsMnemonicValid(base) {
		return nil, fmt.Errorf("invalid secret URI: not a hex seed or a valid mnemonic")
	}
	s.phrase = base
	return s, nil
}

// miniSecret returns the 32-byte seed of the URI's root key.
func (s *secretURI) miniSecret() ([]byte, error) {
	if s.seed != nil {
		return s.seed, nil
	}
	entropy, err := bip39.EntropyFromMnemonic(s.phrase)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	seed := pbkdf2.Key(entropy, []byte("mnemonic"+s.password), 2048, 64, sha512.New)
	return seed[:32], nil
}

// NewSigner creates a signer for a secret URI such as "//Alice", a mnemonic
// with an optional "//hard" path, or a 0x-prefixed 32-byte seed.
//
// The ethereum scheme only accepts a raw private key.
func NewSigner(scheme network.SignatureScheme, uri string) (network.Signer, error) {
	s, err := parseSecretURI(uri)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case network.SchemeSr25519, "":
		return newSr25519Signer(s)
	case network.SchemeEd25519:
		seed, err := s.derivedSeed("Ed25519HDKD")
		if err != nil {
			return nil, err
		}
		return &ed25519Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
	case network.SchemeEcdsa:
		seed, err := s.derivedSeed("Secp256k1HDKD")
		if err != nil {
			return nil, err
		}
		key, err := crypto.ToECDSA(seed)
		if err != nil {
			return nil, fmt.Errorf("invalid ecdsa seed: %w", err)
		}
		return &ecdsaSigner{key: key}, nil
	case network.SchemeEthereum:
		if s.seed == nil || len(s.junctions) > 0 {
			return nil, fmt.Errorf("ethereum signers require a 0x-prefixed private key")
		}
		key, err := crypto.ToECDSA(s.seed)
		if err != nil {
			return nil, fmt.Errorf("invalid ethereum private key: %w", err)
		}
		return &ethereumSigner{key: key}, nil
	}
	return nil, fmt.Errorf("unsupported signature scheme %q", scheme)
}

// derivedSeed applies hard junctions the way ed25519 and ecdsa pairs do:
// blake2_256(SCALE(tag) ++ seed ++ chain code).
func (s *secretURI) derivedSeed(tag string) ([]byte, error) {
	seed, err := s.miniSecret()
	if err != nil {
		return nil, err
	}
	for _, j := range s.junctions {
		var e scale.Encoder
		e.PutString(tag)
		e.PutRaw(seed)
		e.PutRaw(j.chainCode[:])
		sum := Blake2b256(e.Bytes())
		seed = sum[:]
	}
	return seed, nil
}

type sr25519Signer struct {
	secret *schnorrkel.SecretKey
	public [32]byte
}

func newSr25519Signer(s *secretURI) (*sr25519Signer, error) {
	seed, err := s.miniSecret()
	if err != nil {
		return nil, err
	}
	var raw [32]byte
	copy(raw[:], seed)
	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid sr25519 seed: %w", err)
	}
	secret := mini.ExpandEd25519()
	for _, j := range s.junctions {
		derived, _, err := secret.HardDeriveMiniSecretKey([]byte{}, j.chainCode)
		if err != nil {
			return nil, fmt.Errorf("sr25519 derivation: %w", err)
		}
		secret = derived.ExpandEd25519()
	}
	pub, err := secret.Public()
	if err != nil {
		return nil, err
	}
	return &sr25519Signer{secret: secret, public: pub.Encode()}, nil
}

func (s *sr25519Signer) Scheme() network.SignatureScheme { return network.SchemeSr25519 }
func (s *sr25519Signer) AccountID() []byte               { return s.public[:] }
func (s *sr25519Signer) PublicKey() []byte               { return s.public[:] }

func (s *sr25519Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := s.secret.Sign(schnorrkel.NewSigningContext(signingContext, msg))
	if err != nil {
		return nil, err
	}
	enc := sig.Encode()
	return enc[:], nil
}

type ed25519Signer struct {
	key ed25519.PrivateKey
}

func (s *ed25519Signer) Scheme() network.SignatureScheme { return network.SchemeEd25519 }
func (s *ed25519Signer) AccountID() []byte               { return s.PublicKey() }

func (s *ed25519Signer) PublicKey() []byte {
	return []byte(s.key.Public().(ed25519.PublicKey))
}

func (s *ed25519Signer) Sign(msg []byte) ([]byte, error) {
	return ed25519.Sign(s.key, msg), nil
}

type ecdsaSigner struct {
	key *ecdsa.PrivateKey
}

func (s *ecdsaSigner) Scheme() network.SignatureScheme { return network.SchemeEcdsa }

// AccountID is the blake2_256 hash of the compressed public key.
func (s *ecdsaSigner) AccountID() []byte {
	sum := Blake2b256(s.PublicKey())
	return sum[:]
}

func (s *ecdsaSigner) PublicKey() []byte {
	return crypto.CompressPubkey(&s.key.PublicKey)
}

func (s *ecdsaSigner) Sign(msg []byte) ([]byte, error) {
	digest := Blake2b256(msg)
	return crypto.Sign(digest[:], s.key)
}

type ethereumSigner struct {
	key *ecdsa.PrivateKey
}

func (s *ethereumSigner) Scheme() network.SignatureScheme { return network.SchemeEthereum }

func (s *ethereumSigner) AccountID() []byte {
	return crypto.PubkeyToAddress(s.key.PublicKey).Bytes()
}

func (s *ethereumSigner) PublicKey() []byte {
	return crypto.CompressPubkey(&s.key.PublicKey)
}

func (s *ethereumSigner) Sign(msg []byte) ([]byte, error) {
	return crypto.Sign(crypto.Keccak256(msg), s.key)
}
