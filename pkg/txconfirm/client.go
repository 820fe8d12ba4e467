// Package txconfirm is the caller-facing entry point: it connects to a node,
// signs and submits transactions, and resolves them to the events they emitted
// in their execution block.
package txconfirm

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"cosmossdk.io/log"

	"github.com/altuslabsxyz/txconfirm/internal/controller"
	"github.com/altuslabsxyz/txconfirm/internal/execorder"
	"github.com/altuslabsxyz/txconfirm/pkg/sequence"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
	"github.com/altuslabsxyz/txconfirm/pkg/network/substrate"
)

// EnvVerbose enables rendering of the decoded call in status logs when set to any value.
const EnvVerbose = "TX_VERBOSE"

// Recorder receives confirmation metrics: one observation per SignAndConfirm
// call plus head retries and reconstruction failures.
type Recorder = controller.Recorder

// Outcomes passed to Recorder.ObserveConfirmation.
const (
	OutcomeConfirmed      = controller.OutcomeConfirmed
	OutcomeRejected       = controller.OutcomeRejected
	OutcomeExtrinsicError = controller.OutcomeExtrinsicError
	OutcomeTransportError = controller.OutcomeTransportError
	OutcomeReconstruction = controller.OutcomeReconstruction
	OutcomeTimeout        = controller.OutcomeTimeout
)

// Errors returned by SignAndConfirm.
type (
	TransportError      = controller.TransportError
	ExtrinsicError      = controller.ExtrinsicError
	ReconstructionError = controller.ReconstructionError
	TimeoutError        = controller.TimeoutError
)

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool { return controller.IsTimeout(err) }

// IsReconstruction reports whether err is or wraps a ReconstructionError.
func IsReconstruction(err error) bool { return controller.IsReconstruction(err) }

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool { return controller.IsTransport(err) }

// Client signs and confirms transactions against one node.
type Client struct {
	node       network.Node
	substrate  *substrate.Node
	controller *controller.TxController
	cache      *sequence.Cache
	closer     func() error
}

type clientOptions struct {
	logger     log.Logger
	recorder   Recorder
	maxRetries int
	verbose    bool
	format     substrate.AddressFormat
	cache      *sequence.Cache
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

// WithLogger sets the logger used for connection and confirmation logs.
func WithLogger(logger log.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(o *clientOptions) { o.recorder = r }
}

// WithMaxRetries sets how many non-advancing heads are tolerated after inclusion.
func WithMaxRetries(n int) ClientOption {
	return func(o *clientOptions) { o.maxRetries = n }
}

// WithVerbose overrides the TX_VERBOSE environment setting.
func WithVerbose(v bool) ClientOption {
	return func(o *clientOptions) { o.verbose = v }
}

// WithAddressFormat sets how account ids are rendered for the node.
func WithAddressFormat(f substrate.AddressFormat) ClientOption {
	return func(o *clientOptions) { o.format = f }
}

// WithSequenceCache shares a sequence cache between clients. Create one with
// sequence.New.
func WithSequenceCache(c *sequence.Cache) ClientOption {
	return func(o *clientOptions) { o.cache = c }
}

func defaultClientOptions() *clientOptions {
	return &clientOptions{
		logger:     log.NewNopLogger(),
		maxRetries: controller.DefaultMaxRetries,
		verbose:    os.Getenv(EnvVerbose) != "",
		format:     substrate.DefaultAddressFormat(),
	}
}

// Dial connects to a websocket endpoint and prepares a Client for it.
// The runtime metadata, genesis hash and runtime version are fetched once.
func Dial(ctx context.Context, endpoint string, opts ...ClientOption) (*Client, error) {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}

	rpc, err := substrate.Dial(ctx, endpoint, o.logger)
	if err != nil {
		return nil, err
	}
	node := substrate.NewNode(rpc, o.format, o.logger)
	builder, err := substrate.NewTxBuilderForNode(ctx, node)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("failed to prepare transaction builder: %w", err)
	}

	c := newClient(node, builder, o)
	c.substrate = node
	c.closer = rpc.Close
	return c, nil
}

// New builds a Client over an existing node and transaction builder.
func New(node network.Node, builder network.TxBuilder, opts ...ClientOption) *Client {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(o)
	}
	return newClient(node, builder, o)
}

func newClient(node network.Node, builder network.TxBuilder, o *clientOptions) *Client {
	cache := o.cache
	if cache == nil {
		cache = sequence.New()
	}
	ctrl := controller.NewTxController(node, builder, o.format, cache)
	ctrl.SetLogger(o.logger)
	ctrl.SetMaxRetries(o.maxRetries)
	ctrl.SetVerbose(o.verbose)
	if o.recorder != nil {
		ctrl.SetRecorder(o.recorder)
	}
	return &Client{
		node:       node,
		controller: ctrl,
		cache:      cache,
		closer:     func() error { return nil },
	}
}

// Node returns the underlying node.
func (c *Client) Node() network.Node { return c.node }

// Substrate returns the websocket node when the Client was created by Dial, nil otherwise.
func (c *Client) Substrate() *substrate.Node { return c.substrate }

// Close releases the node connection.
func (c *Client) Close() error { return c.closer() }

// SignOption configures one SignAndConfirm call.
type SignOption func(*controller.Request)

// WithNonce submits with an explicit sequence number. The sequence cache is
// not consulted or advanced for the submission; a failure still reconciles it
// with the node.
func WithNonce(n uint64) SignOption {
	return func(r *controller.Request) { r.Nonce = &n }
}

// WithTip adds a tip to the transaction.
func WithTip(tip uint64) SignOption {
	return func(r *controller.Request) { r.Tip = tip }
}

// WithStatusCallback is invoked on every transaction pool status update.
func WithStatusCallback(fn func(network.TxStatus)) SignOption {
	return func(r *controller.Request) { r.StatusCallback = fn }
}

// WithExtrinsicStatus is invoked with the decoded events once they are extracted.
func WithExtrinsicStatus(fn func([]network.DecodedEvent)) SignOption {
	return func(r *controller.Request) { r.ExtrinsicStatus = fn }
}

// SignAndConfirm signs call, submits it and waits until the events it emitted
// in its execution block are known. A dispatch failure is reported through the
// returned events, not as an error.
func (c *Client) SignAndConfirm(ctx context.Context, call []byte, signer network.Signer, opts ...SignOption) ([]network.DecodedEvent, error) {
	req := &controller.Request{Call: call, Signer: signer}
	for _, opt := range opts {
		opt(req)
	}
	return c.controller.SignAndConfirm(ctx, req)
}

// ExecutionOrder fetches a block and reconstructs the order in which its
// extrinsics were executed.
func (c *Client) ExecutionOrder(ctx context.Context, hash network.Hash) (*network.Block, *execorder.Result, error) {
	block, err := c.node.Block(ctx, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch block %s: %w", hash.Short(), err)
	}
	res, err := execorder.ForBlock(block)
	if err != nil {
		return block, nil, err
	}
	return block, res, nil
}

// ResolveBlock accepts a block hash or a decimal block number.
func (c *Client) ResolveBlock(ctx context.Context, ref string) (network.Hash, error) {
	if h, err := network.HashFromHex(ref); err == nil {
		return h, nil
	}
	number, err := strconv.ParseUint(ref, 10, 64)
	if err != nil {
		return network.Hash{}, fmt.Errorf("invalid block reference %q: expected hash or number", ref)
	}
	return c.node.BlockHash(ctx, number)
}

// NextIndex returns the node's next sequence number for address.
func (c *Client) NextIndex(ctx context.Context, address string) (uint64, error) {
	return c.node.AccountNextIndex(ctx, address)
}

// CachedSequence returns the next sequence number the cache would hand out for account.
func (c *Client) CachedSequence(account string) (uint64, bool) {
	return c.cache.Get(account)
}
