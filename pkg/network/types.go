// pkg/network/types.go
package network

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashLength is the size of block and extrinsic hashes in bytes.
const HashLength = 32

// Hash is a 32-byte blake2b digest identifying a block or an extrinsic.
type Hash [HashLength]byte

// HashFromHex parses a 0x-prefixed hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("invalid hash %q: expected %d bytes, got %d", s, HashLength, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Hex returns the 0x-prefixed hex encoding.
func (h Hash) Hex() string { return hexutil.Encode(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is all zeroes.
func (h Hash) IsZero() bool { return h == Hash{} }

// Short returns the truncated form used in progress logs: the first 7 and the
// last 5 characters of the hex encoding.
func (h Hash) Short() string { return Truncate(h.Hex()) }

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON decodes a hex string.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Truncate shortens s to its first 7 and last 5 characters.
func Truncate(s string) string {
	if len(s) <= 15 {
		return s
	}
	return s[:7] + "..." + s[len(s)-5:]
}

// SeedLength is the size of the per-block shuffling seed.
const SeedLength = 32

// BlockExecutionMetadata carries the custom header fields that drive the
// execution order of a block.
type BlockExecutionMetadata struct {
	// Seed is the random seed the block author used to shuffle signed extrinsics.
	Seed [SeedLength]byte `json:"seed"`

	// Count is the number of extrinsics at the start of the block that are
	// this block's own inherents. Everything after them was carried over
	// from the previous block.
	Count uint32 `json:"count"`
}

// Header is a block header.
type Header struct {
	ParentHash     Hash   `json:"parentHash"`
	Number         uint64 `json:"number"`
	StateRoot      Hash   `json:"stateRoot"`
	ExtrinsicsRoot Hash   `json:"extrinsicsRoot"`

	// Execution is nil when the chain does not publish shuffling metadata.
	Execution *BlockExecutionMetadata `json:"execution,omitempty"`
}

// Extrinsic is a single opaque extrinsic as stored in a block body.
type Extrinsic struct {
	// Hash is the blake2b-256 digest of the full encoded extrinsic.
	Hash Hash `json:"hash"`

	// Raw is the full encoded extrinsic including its length prefix.
	Raw []byte `json:"-"`

	// Signed reports whether the extrinsic carries a signature.
	Signed bool `json:"signed"`

	// Signer is the rendered address of the signer; empty for unsigned extrinsics.
	Signer string `json:"signer,omitempty"`

	// Call is the encoded call data.
	Call []byte `json:"-"`
}

// Block is a block with its hash and parsed extrinsics.
type Block struct {
	Hash       Hash        `json:"hash"`
	Header     Header      `json:"header"`
	Extrinsics []Extrinsic `json:"extrinsics"`
}

// TxStatusType is the kind of a transaction pool status update.
type TxStatusType string

// Transaction pool status kinds reported by author_submitAndWatchExtrinsic.
const (
	TxStatusFuture          TxStatusType = "Future"
	TxStatusReady           TxStatusType = "Ready"
	TxStatusBroadcast       TxStatusType = "Broadcast"
	TxStatusInBlock         TxStatusType = "InBlock"
	TxStatusRetracted       TxStatusType = "Retracted"
	TxStatusFinalityTimeout TxStatusType = "FinalityTimeout"
	TxStatusFinalized       TxStatusType = "Finalized"
	TxStatusUsurped         TxStatusType = "Usurped"
	TxStatusDropped         TxStatusType = "Dropped"
	TxStatusInvalid         TxStatusType = "Invalid"
)

// TxStatus is a single status update for a watched extrinsic.
type TxStatus struct {
	Type TxStatusType `json:"type"`

	// BlockHash is set for InBlock, Retracted, FinalityTimeout and Finalized.
	BlockHash Hash `json:"blockHash,omitempty"`

	// Peers is set for Broadcast.
	Peers []string `json:"peers,omitempty"`

	// Usurper is set for Usurped.
	Usurper Hash `json:"usurper,omitempty"`
}

// IsFinalized reports whether the extrinsic was finalized.
func (s TxStatus) IsFinalized() bool { return s.Type == TxStatusFinalized }

// IsError reports whether the status is a terminal pool error.
func (s TxStatus) IsError() bool {
	switch s.Type {
	case TxStatusDropped, TxStatusFinalityTimeout, TxStatusInvalid, TxStatusUsurped:
		return true
	}
	return false
}

// Value renders the status payload for logs.
func (s TxStatus) Value() string {
	switch s.Type {
	case TxStatusInBlock, TxStatusRetracted, TxStatusFinalityTimeout, TxStatusFinalized:
		return s.BlockHash.Hex()
	case TxStatusUsurped:
		return s.Usurper.Hex()
	case TxStatusBroadcast:
		return strings.Join(s.Peers, ",")
	}
	return ""
}

// PhaseKind identifies the stage of block execution an event was emitted in.
type PhaseKind uint8

// Event phase kinds, in their on-chain enum order.
const (
	PhaseApplyExtrinsic PhaseKind = iota
	PhaseFinalization
	PhaseInitialization
)

// String implements fmt.Stringer.
func (k PhaseKind) String() string {
	switch k {
	case PhaseApplyExtrinsic:
		return "ApplyExtrinsic"
	case PhaseFinalization:
		return "Finalization"
	case PhaseInitialization:
		return "Initialization"
	}
	return fmt.Sprintf("PhaseKind(%d)", uint8(k))
}

// Phase is the dispatch phase of an event.
type Phase struct {
	Kind PhaseKind `json:"kind"`

	// Index is the extrinsic index, only meaningful for PhaseApplyExtrinsic.
	Index uint32 `json:"index,omitempty"`
}

// IsApplyExtrinsic reports whether the event was emitted while applying the
// extrinsic at idx.
func (p Phase) IsApplyExtrinsic(idx uint32) bool {
	return p.Kind == PhaseApplyExtrinsic && p.Index == idx
}

// EventArg is a decoded event field.
type EventArg struct {
	// Name is the field name, empty for tuple-like events.
	Name string `json:"name,omitempty"`

	// TypeName is the type name recorded in metadata, e.g. "DispatchError".
	TypeName string `json:"lookupName"`

	// Value is the decoded value.
	Value any `json:"data"`
}

// EventRecord is a decoded entry of System.Events.
type EventRecord struct {
	Phase   Phase      `json:"phase"`
	Section string     `json:"section"`
	Method  string     `json:"method"`
	Docs    []string   `json:"docs,omitempty"`
	Args    []EventArg `json:"args"`
	Topics  []Hash     `json:"topics,omitempty"`
}

// MetaError is a dispatch error resolved against runtime metadata.
type MetaError struct {
	Section string   `json:"section,omitempty"`
	Name    string   `json:"name"`
	Docs    []string `json:"documentation"`
}

// UnknownError is returned when a dispatch error cannot be resolved.
func UnknownError() *MetaError {
	return &MetaError{Name: "UnknownError", Docs: []string{"Unknown error"}}
}

// DecodedEvent is an event attributed to a confirmed transaction.
type DecodedEvent struct {
	Phase   Phase      `json:"phase"`
	Section string     `json:"section"`
	Method  string     `json:"method"`
	Docs    []string   `json:"metaDocumentation,omitempty"`
	Data    []EventArg `json:"eventData"`

	// Error is set for System.ExtrinsicFailed events.
	Error *MetaError `json:"error,omitempty"`
}

// IsFailure reports whether the event signals a failed dispatch.
func (e DecodedEvent) IsFailure() bool {
	return e.Section == "system" && e.Method == "ExtrinsicFailed"
}
