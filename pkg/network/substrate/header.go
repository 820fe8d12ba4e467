// pkg/network/substrate/header.go
package substrate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// rpcHeader is the JSON header returned by chain_getHeader and chain_newHead.
// seed and count are only present on chains that shuffle execution.
type rpcHeader struct {
	ParentHash     network.Hash    `json:"parentHash"`
	Number         json.RawMessage `json:"number"`
	StateRoot      network.Hash    `json:"stateRoot"`
	ExtrinsicsRoot network.Hash    `json:"extrinsicsRoot"`
	Seed           *struct {
		Seed string `json:"seed"`
	} `json:"seed,omitempty"`
	Count json.RawMessage `json:"count,omitempty"`
}

// ParseHeader decodes a JSON block header.
func ParseHeader(raw json.RawMessage) (*network.Header, error) {
	var h rpcHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	number, err := parseQuantity(h.Number)
	if err != nil {
		return nil, fmt.Errorf("invalid header number: %w", err)
	}

	header := &network.Header{
		ParentHash:     h.ParentHash,
		Number:         number,
		StateRoot:      h.StateRoot,
		ExtrinsicsRoot: h.ExtrinsicsRoot,
	}
	if h.Seed == nil {
		return header, nil
	}

	seed, err := hexutil.Decode(h.Seed.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid header seed: %w", err)
	}
	if len(seed) != network.SeedLength {
		return nil, fmt.Errorf("invalid header seed: expected %d bytes, got %d", network.SeedLength, len(seed))
	}
	count, err := parseQuantity(h.Count)
	if err != nil {
		return nil, fmt.Errorf("invalid header count: %w", err)
	}
	if count > uint64(^uint32(0)) {
		return nil, fmt.Errorf("invalid header count %d", count)
	}
	meta := &network.BlockExecutionMetadata{Count: uint32(count)}
	copy(meta.Seed[:], seed)
	header.Execution = meta
	return header, nil
}

// parseQuantity accepts a JSON number, a decimal string or a 0x-prefixed hex string.
func parseQuantity(raw json.RawMessage) (uint64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("missing value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// ParseTxStatus decodes an author_extrinsicUpdate notification.
func ParseTxStatus(raw json.RawMessage) (network.TxStatus, error) {
	var simple string
	if err := json.Unmarshal(raw, &simple); err == nil {
		switch simple {
		case "future":
			return network.TxStatus{Type: network.TxStatusFuture}, nil
		case "ready":
			return network.TxStatus{Type: network.TxStatusReady}, nil
		case "dropped":
			return network.TxStatus{Type: network.TxStatusDropped}, nil
		case "invalid":
			return network.TxStatus{Type: network.TxStatusInvalid}, nil
		}
		return network.TxStatus{}, fmt.Errorf("unknown transaction status %q", simple)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) != 1 {
		return network.TxStatus{}, fmt.Errorf("invalid transaction status %s", string(raw))
	}
	for key, value := range obj {
		var status network.TxStatus
		switch key {
		case "broadcast":
			status.Type = network.TxStatusBroadcast
			if err := json.Unmarshal(value, &status.Peers); err != nil {
				return status, fmt.Errorf("invalid broadcast status: %w", err)
			}
			return status, nil
		case "inBlock":
			status.Type = network.TxStatusInBlock
		case "retracted":
			status.Type = network.TxStatusRetracted
		case "finalityTimeout":
			status.Type = network.TxStatusFinalityTimeout
		case "finalized":
			status.Type = network.TxStatusFinalized
		case "usurped":
			status.Type = network.TxStatusUsurped
			if err := json.Unmarshal(value, &status.Usurper); err != nil {
				return status, fmt.Errorf("invalid usurped status: %w", err)
			}
			return status, nil
		default:
			return status, fmt.Errorf("unknown transaction status %q", key)
		}
		if err := json.Unmarshal(value, &status.BlockHash); err != nil {
			return status, fmt.Errorf("invalid %s status: %w", key, err)
		}
		return status, nil
	}
	return network.TxStatus{}, fmt.Errorf("invalid transaction status %s", string(raw))
}
