package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/txconfirm/internal/execorder"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

func newTestLogger() (*Logger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	l := NewLoggerWithWriters(&out, &errOut)
	l.SetNoColor(true)
	return l, &out, &errOut
}

func TestLogger_TextMode(t *testing.T) {
	l, out, errOut := newTestLogger()

	l.Info("hello %s", "world")
	l.Success("done")
	l.Warn("careful")
	l.Debug("hidden")
	l.SetVerbose(true)
	l.Debug("shown")

	assert.Equal(t, "hello world\n✓ done\n", out.String())
	assert.Equal(t, "Warning: careful\n[DEBUG] shown\n", errOut.String())
}

func TestLogger_JSONMode(t *testing.T) {
	l, out, errOut := newTestLogger()
	l.SetJSONMode(true)

	l.Info("suppressed")
	l.PrintEvents(nil)
	l.Error("still printed")
	require.NoError(t, l.JSON(map[string]int{"nonce": 7}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 7, got["nonce"])
	assert.Equal(t, "Error: still printed\n", errOut.String())
}

func TestLogger_PrintEvents(t *testing.T) {
	l, out, _ := newTestLogger()

	l.PrintEvents([]network.DecodedEvent{
		{Section: "balances", Method: "Withdraw", Data: []network.EventArg{{Name: "amount", Value: uint64(5)}}},
		{
			Section: "system",
			Method:  "ExtrinsicFailed",
			Data:    []network.EventArg{{TypeName: "DispatchError", Value: map[string]any{"Module": map[string]any{"index": 5}}}},
			Error:   &network.MetaError{Name: "InsufficientBalance", Docs: []string{"Balance too low."}},
		},
	})

	s := out.String()
	assert.Contains(t, s, "• balances.Withdraw")
	assert.Contains(t, s, "amount: 5")
	assert.Contains(t, s, "✗ system.ExtrinsicFailed: InsufficientBalance")
	assert.Contains(t, s, "Balance too low.")
	assert.Contains(t, s, `DispatchError: {"Module":{"index":5}}`)
}

func TestLogger_PrintOrder(t *testing.T) {
	l, out, _ := newTestLogger()
	block := &network.Block{
		Hash:   network.Hash{0x11},
		Header: network.Header{Number: 21, Execution: &network.BlockExecutionMetadata{Count: 1}},
		Extrinsics: []network.Extrinsic{
			{Hash: network.Hash{0x01}},
			{Hash: network.Hash{0x02}, Signed: true, Signer: "alice"},
		},
	}
	res, err := execorder.ForBlock(block)
	require.NoError(t, err)

	l.PrintOrder(block, res)

	s := out.String()
	assert.Contains(t, s, "Block #21")
	assert.Contains(t, s, "count: 1")
	assert.Contains(t, s, "   0  "+network.Hash{0x01}.Hex()+"  inherent")
	assert.Contains(t, s, "round 1")
	assert.Contains(t, s, "   1  "+network.Hash{0x02}.Hex()+"  alice")
}
