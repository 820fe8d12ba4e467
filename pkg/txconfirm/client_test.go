package txconfirm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altuslabsxyz/txconfirm/pkg/sequence"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
)

const aliceSS58 = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"

type stubSub[T any] struct {
	ch    chan T
	errCh chan error
}

func newStubSub[T any](items ...T) *stubSub[T] {
	s := &stubSub[T]{ch: make(chan T, len(items)), errCh: make(chan error, 1)}
	for _, it := range items {
		s.ch <- it
	}
	return s
}

func (s *stubSub[T]) Chan() <-chan T    { return s.ch }
func (s *stubSub[T]) Err() <-chan error { return s.errCh }
func (s *stubSub[T]) Unsubscribe()      {}

// stubNode implements network.Node; only the calls exercised here do real work.
type stubNode struct {
	mu         sync.Mutex
	addresses  []string
	remoteNext uint64
	submitErr  error
	statuses   []network.TxStatus
	blocks     map[network.Hash]*network.Block
	hashes     map[uint64]network.Hash
}

func (n *stubNode) SubmitAndWatch(ctx context.Context, extrinsic []byte) (network.Subscription[network.TxStatus], error) {
	if n.submitErr != nil {
		return nil, n.submitErr
	}
	return newStubSub(n.statuses...), nil
}

func (n *stubNode) SubscribeNewHeads(ctx context.Context) (network.Subscription[network.Header], error) {
	return newStubSub[network.Header](), nil
}

func (n *stubNode) Header(ctx context.Context, hash network.Hash) (*network.Header, error) {
	b, ok := n.blocks[hash]
	if !ok {
		return nil, &substrate.NotFoundError{Resource: "header"}
	}
	return &b.Header, nil
}

func (n *stubNode) BlockHash(ctx context.Context, number uint64) (network.Hash, error) {
	h, ok := n.hashes[number]
	if !ok {
		return network.Hash{}, &substrate.NotFoundError{Resource: "block hash"}
	}
	return h, nil
}

func (n *stubNode) Block(ctx context.Context, hash network.Hash) (*network.Block, error) {
	b, ok := n.blocks[hash]
	if !ok {
		return nil, &substrate.NotFoundError{Resource: "block"}
	}
	return b, nil
}

func (n *stubNode) Events(ctx context.Context, hash network.Hash) ([]network.EventRecord, error) {
	return nil, nil
}

func (n *stubNode) AccountNextIndex(ctx context.Context, address string) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.addresses = append(n.addresses, address)
	return n.remoteNext, nil
}

func (n *stubNode) MetaError(ctx context.Context, palletIndex, errorIndex uint8) (*network.MetaError, error) {
	return nil, errors.New("no metadata")
}

func (n *stubNode) DescribeCall(ctx context.Context, call []byte) (string, error) {
	return "balances::transfer()", nil
}

type recordingBuilder struct {
	requests []network.TxBuildRequest
}

func (b *recordingBuilder) BuildTx(ctx context.Context, req *network.TxBuildRequest) (*network.UnsignedTx, error) {
	b.requests = append(b.requests, *req)
	return &network.UnsignedTx{Call: req.Call, Nonce: req.Nonce}, nil
}

func (b *recordingBuilder) SignTx(ctx context.Context, tx *network.UnsignedTx, signer network.Signer) (*network.SignedTx, error) {
	return &network.SignedTx{TxBytes: tx.Call, Hash: network.Hash{0xee, byte(tx.Nonce)}, Nonce: tx.Nonce}, nil
}

func alice(t *testing.T) network.Signer {
	t.Helper()
	signer, err := substrate.NewSigner(network.SchemeSr25519, "//Alice")
	require.NoError(t, err)
	return signer
}

func TestSignAndConfirm_RemoteSequenceUsesAddressFormat(t *testing.T) {
	node := &stubNode{remoteNext: 5, submitErr: errors.New("pool full")}
	builder := &recordingBuilder{}
	client := New(node, builder, WithLogger(log.NewTestLogger(t)))

	_, err := client.SignAndConfirm(testContext(t), []byte{0x05, 0x00}, alice(t), WithTip(9))
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	require.Len(t, builder.requests, 1)
	assert.Equal(t, uint64(5), builder.requests[0].Nonce)
	assert.Equal(t, uint64(9), builder.requests[0].Tip)

	// One read for the submission, one for reconciliation.
	assert.Equal(t, []string{aliceSS58, aliceSS58}, node.addresses)
	next, ok := client.CachedSequence(aliceSS58)
	require.True(t, ok)
	assert.Equal(t, uint64(5), next)
}

func TestSignAndConfirm_NonceOverride(t *testing.T) {
	node := &stubNode{remoteNext: 5, submitErr: errors.New("pool full")}
	builder := &recordingBuilder{}
	cache := sequence.New()
	client := New(node, builder, WithSequenceCache(cache))

	_, err := client.SignAndConfirm(testContext(t), []byte{0x05, 0x00}, alice(t), WithNonce(42))
	require.Error(t, err)

	require.Len(t, builder.requests, 1)
	assert.Equal(t, uint64(42), builder.requests[0].Nonce)

	// The submission skipped the cache; only the failure reconciled it.
	assert.Equal(t, []string{aliceSS58}, node.addresses)
	next, ok := cache.Get(aliceSS58)
	require.True(t, ok)
	assert.Equal(t, uint64(5), next)
}

func TestSignAndConfirm_StatusCallback(t *testing.T) {
	node := &stubNode{
		remoteNext: 1,
		statuses: []network.TxStatus{
			{Type: network.TxStatusReady},
			{Type: network.TxStatusInvalid},
		},
	}
	client := New(node, &recordingBuilder{})

	var seen []network.TxStatusType
	_, err := client.SignAndConfirm(testContext(t), []byte{0x05, 0x00}, alice(t),
		WithStatusCallback(func(s network.TxStatus) { seen = append(seen, s.Type) }),
		WithExtrinsicStatus(func([]network.DecodedEvent) { t.Fatal("unexpected events") }),
	)

	var extErr *ExtrinsicError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, network.TxStatusInvalid, extErr.Status.Type)
	assert.Equal(t, []network.TxStatusType{network.TxStatusReady, network.TxStatusInvalid}, seen)
}

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) ObserveConfirmation(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}
func (r *countingRecorder) IncHeadRetries()            {}
func (r *countingRecorder) IncReconstructionFailures() {}

func TestSignAndConfirm_RecorderAndSharedCache(t *testing.T) {
	node := &stubNode{remoteNext: 3, submitErr: errors.New("pool full")}
	rec := &countingRecorder{}
	cache := sequence.New()
	first := New(node, &recordingBuilder{}, WithRecorder(rec), WithSequenceCache(cache))
	second := New(node, &recordingBuilder{}, WithSequenceCache(cache))

	_, err := first.SignAndConfirm(testContext(t), []byte{0x05, 0x00}, alice(t))
	require.Error(t, err)
	assert.Equal(t, []string{OutcomeTransportError}, rec.outcomes)

	next, ok := second.CachedSequence(aliceSS58)
	require.True(t, ok)
	assert.Equal(t, uint64(3), next)
}

func TestResolveBlock(t *testing.T) {
	h := network.Hash{0x42}
	client := New(&stubNode{hashes: map[uint64]network.Hash{12: h}}, &recordingBuilder{})

	got, err := client.ResolveBlock(testContext(t), h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, got)

	got, err = client.ResolveBlock(testContext(t), "12")
	require.NoError(t, err)
	assert.Equal(t, h, got)

	_, err = client.ResolveBlock(testContext(t), "13")
	assert.True(t, substrate.IsNotFound(err))

	_, err = client.ResolveBlock(testContext(t), "latest")
	assert.ErrorContains(t, err, "invalid block reference")
}

func TestExecutionOrder(t *testing.T) {
	withMeta := network.Hash{0x01}
	withoutMeta := network.Hash{0x02}
	extrinsics := []network.Extrinsic{
		{Hash: network.Hash{0xa0}},
		{Hash: network.Hash{0xa1}, Signed: true, Signer: "alice"},
		{Hash: network.Hash{0xa2}, Signed: true, Signer: "bob"},
	}
	node := &stubNode{blocks: map[network.Hash]*network.Block{
		withMeta: {
			Hash:       withMeta,
			Header:     network.Header{Number: 3, Execution: &network.BlockExecutionMetadata{Seed: [32]byte{7}, Count: 1}},
			Extrinsics: extrinsics,
		},
		withoutMeta: {Hash: withoutMeta, Header: network.Header{Number: 4}, Extrinsics: extrinsics},
	}}
	client := New(node, &recordingBuilder{})

	block, res, err := client.ExecutionOrder(testContext(t), withMeta)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), block.Header.Number)
	order := res.Order()
	require.Len(t, order, 3)
	assert.Equal(t, network.Hash{0xa0}, order[0].Hash)
	assert.ElementsMatch(t,
		[]network.Hash{{0xa1}, {0xa2}},
		[]network.Hash{order[1].Hash, order[2].Hash})

	_, _, err = client.ExecutionOrder(testContext(t), withoutMeta)
	require.Error(t, err)

	_, _, err = client.ExecutionOrder(testContext(t), network.Hash{0x09})
	assert.True(t, substrate.IsNotFound(err))
}

func TestDefaultClientOptions_VerboseFromEnvironment(t *testing.T) {
	t.Setenv(EnvVerbose, "")
	assert.False(t, defaultClientOptions().verbose)

	t.Setenv(EnvVerbose, "1")
	assert.True(t, defaultClientOptions().verbose)
}
