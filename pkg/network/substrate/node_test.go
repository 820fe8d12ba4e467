package substrate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

var (
	testBlockHash = network.Hash{0xbb, 0x01}
	testSeedHex   = "0x0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
)

func headerJSON(number uint64, parent network.Hash, withSeed bool) map[string]any {
	h := map[string]any{
		"parentHash":     parent.Hex(),
		"number":         hexutil.EncodeUint64(number),
		"stateRoot":      network.Hash{}.Hex(),
		"extrinsicsRoot": network.Hash{}.Hex(),
		"digest":         map[string]any{"logs": []string{}},
	}
	if withSeed {
		h["seed"] = map[string]any{"seed": testSeedHex}
		h["count"] = 1
	}
	return h
}

func newTestNode(t *testing.T) (*Node, *fakeNode) {
	t.Helper()
	fake := newFakeNode(t)
	fake.result("state_getMetadata", hexutil.Encode(testMetadataBytes()))
	fake.result("state_getRuntimeVersion", map[string]any{"specName": "test", "specVersion": 100, "transactionVersion": 2})
	fake.handle("chain_getBlockHash", func(_ *fakeConn, params []json.RawMessage) (any, *rpcErrorObject) {
		switch string(params[0]) {
		case "0":
			return testGenesis.Hex(), nil
		case "11":
			return testBlockHash.Hex(), nil
		}
		return nil, nil
	})
	return NewNode(dialFake(t, fake), DefaultAddressFormat(), nil), fake
}

func TestNode_MetadataIsCached(t *testing.T) {
	node, fake := newTestNode(t)

	m1, err := node.Metadata(testContext(t))
	require.NoError(t, err)
	m2, err := node.Metadata(testContext(t))
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Len(t, fake.calls("state_getMetadata"), 1)
}

func TestNode_BlockHashAndGenesis(t *testing.T) {
	node, fake := newTestNode(t)

	h, err := node.BlockHash(testContext(t), 11)
	require.NoError(t, err)
	assert.Equal(t, testBlockHash, h)

	_, err = node.BlockHash(testContext(t), 99)
	assert.True(t, IsNotFound(err))

	g, err := node.GenesisHash(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, testGenesis, g)
	_, err = node.GenesisHash(testContext(t))
	require.NoError(t, err)

	zeroCalls := 0
	for _, r := range fake.calls("chain_getBlockHash") {
		if string(r.Params) == "[0]" {
			zeroCalls++
		}
	}
	assert.Equal(t, 1, zeroCalls)
}

func TestNode_Header(t *testing.T) {
	node, fake := newTestNode(t)
	parent := network.Hash{0xaa}
	fake.result("chain_getHeader", headerJSON(12, parent, true))

	h, err := node.Header(testContext(t), testBlockHash)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), h.Number)
	assert.Equal(t, parent, h.ParentHash)
	require.NotNil(t, h.Execution)
	assert.Equal(t, uint32(1), h.Execution.Count)
	assert.Equal(t, byte(0x01), h.Execution.Seed[0])
	assert.Equal(t, byte(0x20), h.Execution.Seed[31])

	reqs := fake.calls("chain_getHeader")
	assert.JSONEq(t, `["`+testBlockHash.Hex()+`"]`, string(reqs[0].Params))
}

func TestNode_HeaderNotFound(t *testing.T) {
	node, fake := newTestNode(t)
	fake.result("chain_getHeader", nil)

	_, err := node.Header(testContext(t), testBlockHash)
	assert.True(t, IsNotFound(err))
}

func TestNode_Block(t *testing.T) {
	node, fake := newTestNode(t)
	b := testTxBuilder(t)

	inherent := EncodeExtrinsic(nil, nil, nil, remarkCall(t, b.meta))
	signer, err := NewSigner(network.SchemeSr25519, "//Bob")
	require.NoError(t, err)
	unsigned, err := b.BuildTx(testContext(t), &network.TxBuildRequest{Call: remarkCall(t, b.meta), Nonce: 1})
	require.NoError(t, err)
	signed, err := b.SignTx(testContext(t), unsigned, signer)
	require.NoError(t, err)

	fake.result("chain_getBlock", map[string]any{
		"block": map[string]any{
			"header":     headerJSON(12, network.Hash{}, true),
			"extrinsics": []string{hexutil.Encode(inherent), hexutil.Encode(signed.TxBytes)},
		},
		"justifications": nil,
	})

	block, err := node.Block(testContext(t), testBlockHash)
	require.NoError(t, err)
	assert.Equal(t, testBlockHash, block.Hash)
	require.Len(t, block.Extrinsics, 2)
	assert.False(t, block.Extrinsics[0].Signed)
	assert.True(t, block.Extrinsics[1].Signed)
	assert.Equal(t, bobSS58, block.Extrinsics[1].Signer)
	assert.Equal(t, signed.Hash, block.Extrinsics[1].Hash)
}

func TestNode_EventsAndErrors(t *testing.T) {
	node, fake := newTestNode(t)
	fake.result("state_getStorage", hexutil.Encode(testEventsBytes()))

	events, err := node.Events(testContext(t), testBlockHash)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	reqs := fake.calls("state_getStorage")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `["0x26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7","`+testBlockHash.Hex()+`"]`,
		string(reqs[0].Params))

	metaErr, err := node.MetaError(testContext(t), balancesIndex, 1)
	require.NoError(t, err)
	assert.Equal(t, "InsufficientBalance", metaErr.Name)
}

func TestNode_EventsEmptyStorage(t *testing.T) {
	node, fake := newTestNode(t)
	fake.result("state_getStorage", nil)

	events, err := node.Events(testContext(t), testBlockHash)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNode_AccountNextIndexAndDescribe(t *testing.T) {
	node, fake := newTestNode(t)
	fake.result("system_accountNextIndex", 7)

	next, err := node.AccountNextIndex(testContext(t), aliceSS58)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), next)

	desc, err := node.DescribeCall(testContext(t), remarkCall(t, testMetadata(t)))
	require.NoError(t, err)
	assert.Equal(t, `system::remark({"remark":"0xdeadbeef"})`, desc)
}

func TestNode_SubmitAndWatch(t *testing.T) {
	node, fake := newTestNode(t)
	inBlock := network.Hash{0x0b}
	fake.handle("author_submitAndWatchExtrinsic", func(c *fakeConn, _ []json.RawMessage) (any, *rpcErrorObject) {
		c.queue(notification("author_extrinsicUpdate", "w1", "ready"))
		c.queue(notification("author_extrinsicUpdate", "w1", map[string]any{"broadcast": []string{"peer1"}}))
		c.queue(notification("author_extrinsicUpdate", "w1", map[string]any{"inBlock": inBlock.Hex()}))
		c.queue(notification("author_extrinsicUpdate", "w1", map[string]any{"finalized": inBlock.Hex()}))
		return "w1", nil
	})
	fake.result("author_unwatchExtrinsic", true)

	sub, err := node.SubmitAndWatch(testContext(t), []byte{0x04})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	reqs := fake.calls("author_submitAndWatchExtrinsic")
	assert.JSONEq(t, `["0x04"]`, string(reqs[0].Params))

	var got []network.TxStatus
	for len(got) < 4 {
		select {
		case st := <-sub.Chan():
			got = append(got, st)
		case err := <-sub.Err():
			t.Fatalf("subscription failed: %v", err)
		case <-time.After(2 * time.Second):
			t.Fatal("status updates not delivered")
		}
	}
	assert.Equal(t, network.TxStatusReady, got[0].Type)
	assert.Equal(t, []string{"peer1"}, got[1].Peers)
	assert.Equal(t, network.TxStatus{Type: network.TxStatusInBlock, BlockHash: inBlock}, got[2])
	assert.True(t, got[3].IsFinalized())
}

func TestNode_SubscribeNewHeads(t *testing.T) {
	node, fake := newTestNode(t)
	fake.handle("chain_subscribeNewHeads", func(c *fakeConn, _ []json.RawMessage) (any, *rpcErrorObject) {
		c.queue(notification("chain_newHead", "h1", headerJSON(5, network.Hash{}, false)))
		c.queue(notification("chain_newHead", "h1", map[string]any{"number": "bogus"}))
		return "h1", nil
	})
	fake.result("chain_unsubscribeNewHeads", true)

	sub, err := node.SubscribeNewHeads(testContext(t))
	require.NoError(t, err)
	defer sub.Unsubscribe()

	select {
	case h := <-sub.Chan():
		assert.Equal(t, uint64(5), h.Number)
		assert.Nil(t, h.Execution)
	case <-time.After(2 * time.Second):
		t.Fatal("head not delivered")
	}

	select {
	case err := <-sub.Err():
		assert.ErrorContains(t, err, "chain_subscribeNewHeads")
	case <-time.After(2 * time.Second):
		t.Fatal("malformed head not reported")
	}
}

func TestParseTxStatus(t *testing.T) {
	h := network.Hash{0x01}
	tests := []struct {
		raw  string
		want network.TxStatus
	}{
		{`"future"`, network.TxStatus{Type: network.TxStatusFuture}},
		{`"dropped"`, network.TxStatus{Type: network.TxStatusDropped}},
		{`"invalid"`, network.TxStatus{Type: network.TxStatusInvalid}},
		{`{"retracted":"` + h.Hex() + `"}`, network.TxStatus{Type: network.TxStatusRetracted, BlockHash: h}},
		{`{"finalityTimeout":"` + h.Hex() + `"}`, network.TxStatus{Type: network.TxStatusFinalityTimeout, BlockHash: h}},
		{`{"usurped":"` + h.Hex() + `"}`, network.TxStatus{Type: network.TxStatusUsurped, Usurper: h}},
	}
	for _, tt := range tests {
		got, err := ParseTxStatus(json.RawMessage(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, raw := range []string{`"weird"`, `{"a":1,"b":2}`, `{"inBlock":"0x01"}`, `42`} {
		_, err := ParseTxStatus(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestParseHeader_Errors(t *testing.T) {
	for _, raw := range []string{
		`{"number":"0x1","seed":{"seed":"0x01"},"count":1}`,
		`{"number":"0x1","seed":{"seed":"` + testSeedHex + `"}}`,
		`{"parentHash":"0x00"}`,
	} {
		_, err := ParseHeader(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}

	h, err := ParseHeader(json.RawMessage(`{"number":17,"seed":{"seed":"` + testSeedHex + `"},"count":"0x3"}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(17), h.Number)
	assert.Equal(t, uint32(3), h.Execution.Count)
}
