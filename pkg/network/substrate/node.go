// pkg/network/substrate/node.go
package substrate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/log"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// RuntimeVersion is the result of state_getRuntimeVersion.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        uint32 `json:"specVersion"`
	TransactionVersion uint32 `json:"transactionVersion"`
}

// Node implements network.Node on top of a websocket Client.
//
// Runtime metadata is fetched once and reused for every block; blocks produced
// under an older runtime are decoded with the latest metadata.
type Node struct {
	client *Client
	format AddressFormat
	logger log.Logger

	mu      sync.Mutex
	meta    *Metadata
	genesis *network.Hash
}

var _ network.Node = (*Node)(nil)

// NewNode wraps client.
func NewNode(client *Client, format AddressFormat, logger log.Logger) *Node {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Node{client: client, format: format, logger: logger}
}

// Client returns the underlying RPC client.
func (n *Node) Client() *Client { return n.client }

// AddressFormat returns the format used to render account ids.
func (n *Node) AddressFormat() AddressFormat { return n.format }

// Metadata returns the runtime metadata, fetching it on first use.
func (n *Node) Metadata(ctx context.Context) (*Metadata, error) {
	n.mu.Lock()
	if n.meta != nil {
		m := n.meta
		n.mu.Unlock()
		return m, nil
	}
	n.mu.Unlock()

	var hex string
	if err := n.client.CallResult(ctx, &hex, "state_getMetadata"); err != nil {
		return nil, err
	}
	raw, err := hexutil.Decode(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata encoding: %w", err)
	}
	m, err := DecodeMetadata(raw)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("runtime metadata loaded", "pallets", len(m.Pallets), "types", len(m.Types))

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.meta == nil {
		n.meta = m
	}
	return n.meta, nil
}

// RuntimeVersion returns the current runtime version.
func (n *Node) RuntimeVersion(ctx context.Context) (*RuntimeVersion, error) {
	var v RuntimeVersion
	if err := n.client.CallResult(ctx, &v, "state_getRuntimeVersion"); err != nil {
		return nil, err
	}
	return &v, nil
}

// GenesisHash returns the hash of block 0.
func (n *Node) GenesisHash(ctx context.Context) (network.Hash, error) {
	n.mu.Lock()
	if n.genesis != nil {
		h := *n.genesis
		n.mu.Unlock()
		return h, nil
	}
	n.mu.Unlock()

	h, err := n.BlockHash(ctx, 0)
	if err != nil {
		return h, err
	}
	n.mu.Lock()
	n.genesis = &h
	n.mu.Unlock()
	return h, nil
}

// SubmitAndWatch implements network.Node.
func (n *Node) SubmitAndWatch(ctx context.Context, extrinsic []byte) (network.Subscription[network.TxStatus], error) {
	raw, err := n.client.Subscribe(ctx, "author_submitAndWatchExtrinsic", "author_unwatchExtrinsic", hexutil.Encode(extrinsic))
	if err != nil {
		return nil, err
	}
	return newTypedSubscription(raw, ParseTxStatus), nil
}

// SubscribeNewHeads implements network.Node.
func (n *Node) SubscribeNewHeads(ctx context.Context) (network.Subscription[network.Header], error) {
	raw, err := n.client.Subscribe(ctx, "chain_subscribeNewHeads", "chain_unsubscribeNewHeads")
	if err != nil {
		return nil, err
	}
	return newTypedSubscription(raw, func(msg json.RawMessage) (network.Header, error) {
		h, err := ParseHeader(msg)
		if err != nil {
			return network.Header{}, err
		}
		return *h, nil
	}), nil
}

// Header implements network.Node.
func (n *Node) Header(ctx context.Context, hash network.Hash) (*network.Header, error) {
	raw, err := n.client.Call(ctx, "chain_getHeader", hash.Hex())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, &NotFoundError{Resource: fmt.Sprintf("header %s", hash)}
	}
	return ParseHeader(raw)
}

// BlockHash implements network.Node.
func (n *Node) BlockHash(ctx context.Context, number uint64) (network.Hash, error) {
	var h network.Hash
	raw, err := n.client.Call(ctx, "chain_getBlockHash", number)
	if err != nil {
		return h, err
	}
	if isNull(raw) {
		return h, &NotFoundError{Resource: fmt.Sprintf("block #%d", number)}
	}
	if err := json.Unmarshal(raw, &h); err != nil {
		return h, &RPCError{Method: "chain_getBlockHash", Message: err.Error()}
	}
	return h, nil
}

type rpcSignedBlock struct {
	Block struct {
		Header     json.RawMessage `json:"header"`
		Extrinsics []string        `json:"extrinsics"`
	} `json:"block"`
}

// Block implements network.Node.
func (n *Node) Block(ctx context.Context, hash network.Hash) (*network.Block, error) {
	raw, err := n.client.Call(ctx, "chain_getBlock", hash.Hex())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, &NotFoundError{Resource: fmt.Sprintf("block %s", hash)}
	}
	var sb rpcSignedBlock
	if err := json.Unmarshal(raw, &sb); err != nil {
		return nil, &RPCError{Method: "chain_getBlock", Message: err.Error()}
	}
	header, err := ParseHeader(sb.Block.Header)
	if err != nil {
		return nil, err
	}
	meta, err := n.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	block := &network.Block{Hash: hash, Header: *header, Extrinsics: make([]network.Extrinsic, 0, len(sb.Block.Extrinsics))}
	for i, hex := range sb.Block.Extrinsics {
		b, err := hexutil.Decode(hex)
		if err != nil {
			return nil, fmt.Errorf("block %s extrinsic %d: %w", hash.Short(), i, err)
		}
		ext, err := meta.ParseExtrinsic(b, n.format)
		if err != nil {
			return nil, fmt.Errorf("block %s extrinsic %d: %w", hash.Short(), i, err)
		}
		block.Extrinsics = append(block.Extrinsics, ext)
	}
	return block, nil
}

// Events implements network.Node.
func (n *Node) Events(ctx context.Context, hash network.Hash) ([]network.EventRecord, error) {
	raw, err := n.client.Call(ctx, "state_getStorage", hexutil.Encode(SystemEventsKey), hash.Hex())
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return nil, &RPCError{Method: "state_getStorage", Message: err.Error()}
	}
	data, err := hexutil.Decode(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid events encoding: %w", err)
	}
	meta, err := n.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return meta.DecodeEvents(data, n.format)
}

// AccountNextIndex implements network.Node.
func (n *Node) AccountNextIndex(ctx context.Context, address string) (uint64, error) {
	var next uint64
	if err := n.client.CallResult(ctx, &next, "system_accountNextIndex", address); err != nil {
		return 0, err
	}
	return next, nil
}

// MetaError implements network.Node.
func (n *Node) MetaError(ctx context.Context, palletIndex, errorIndex uint8) (*network.MetaError, error) {
	meta, err := n.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	return meta.FindError(palletIndex, errorIndex)
}

// DescribeCall implements network.Node.
func (n *Node) DescribeCall(ctx context.Context, call []byte) (string, error) {
	meta, err := n.Metadata(ctx)
	if err != nil {
		return "", err
	}
	c, err := meta.DecodeCall(call, n.format)
	if err != nil {
		return "", err
	}
	return c.Describe(), nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// typedSubscription decodes the raw notifications of a subscription.
type typedSubscription[T any] struct {
	raw   *RawSubscription
	ch    chan T
	errCh chan error
	done  chan struct{}
	once  sync.Once
}

func newTypedSubscription[T any](raw *RawSubscription, parse func(json.RawMessage) (T, error)) *typedSubscription[T] {
	s := &typedSubscription[T]{
		raw:   raw,
		ch:    make(chan T, subscriptionBuffer),
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
	}
	go s.run(parse)
	return s
}

func (s *typedSubscription[T]) run(parse func(json.RawMessage) (T, error)) {
	for {
		select {
		case msg := <-s.raw.Chan():
			v, err := parse(msg)
			if err != nil {
				s.errCh <- fmt.Errorf("%s: %w", s.raw.method, err)
				return
			}
			select {
			case s.ch <- v:
			case <-s.done:
				return
			}
		case err := <-s.raw.Err():
			s.errCh <- err
			return
		case <-s.done:
			return
		}
	}
}

func (s *typedSubscription[T]) Chan() <-chan T    { return s.ch }
func (s *typedSubscription[T]) Err() <-chan error { return s.errCh }

func (s *typedSubscription[T]) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.raw.Unsubscribe()
	})
}
