// internal/controller/events.go
package controller

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// decodeEvents keeps the records emitted while applying the extrinsic at idx
// and resolves dispatch errors of failed extrinsics.
func (c *TxController) decodeEvents(ctx context.Context, records []network.EventRecord, idx uint32) []network.DecodedEvent {
	events := make([]network.DecodedEvent, 0)
	for _, rec := range records {
		if !rec.Phase.IsApplyExtrinsic(idx) {
			continue
		}
		events = append(events, network.DecodedEvent{
			Phase:   rec.Phase,
			Section: rec.Section,
			Method:  rec.Method,
			Docs:    rec.Docs,
			Data:    rec.Args,
			Error:   c.dispatchError(ctx, rec),
		})
	}
	return events
}

func (c *TxController) dispatchError(ctx context.Context, rec network.EventRecord) *network.MetaError {
	if rec.Method != "ExtrinsicFailed" {
		return nil
	}
	pallet, index, ok := moduleError(rec.Args)
	if !ok {
		return network.UnknownError()
	}
	metaErr, err := c.node.MetaError(ctx, pallet, index)
	if err != nil {
		return network.UnknownError()
	}
	return metaErr
}

// moduleError extracts the pallet and error index of a DispatchError::Module
// argument. Newer runtimes encode the error as [u8; 4]; only the first byte
// selects the variant.
func moduleError(args []network.EventArg) (pallet, index uint8, ok bool) {
	for _, arg := range args {
		if !strings.Contains(arg.TypeName, "DispatchError") {
			continue
		}
		outer, isMap := arg.Value.(map[string]any)
		if !isMap {
			return 0, 0, false
		}
		module, isMap := outer["Module"].(map[string]any)
		if !isMap {
			return 0, 0, false
		}
		pallet, okPallet := firstByte(module["index"])
		index, okIndex := firstByte(module["error"])
		return pallet, index, okPallet && okIndex
	}
	return 0, 0, false
}

func firstByte(v any) (uint8, bool) {
	switch x := v.(type) {
	case uint8:
		return x, true
	case uint64:
		return uint8(x), x <= 0xff
	case int:
		return uint8(x), x >= 0 && x <= 0xff
	case string:
		b, err := hexutil.Decode(x)
		if err != nil || len(b) == 0 {
			return 0, false
		}
		return b[0], true
	}
	return 0, false
}
