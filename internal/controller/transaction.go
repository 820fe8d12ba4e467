// internal/controller/transaction.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/altuslabsxyz/txconfirm/internal/execorder"
	"github.com/altuslabsxyz/txconfirm/pkg/sequence"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// DefaultMaxRetries is the number of heads at or below the inclusion block
// tolerated before a confirmation times out.
const DefaultMaxRetries = 10

const reconcileTimeout = 10 * time.Second

// AddressEncoder renders raw account ids the way the node expects them.
type AddressEncoder interface {
	Encode(accountID []byte) string
}

// Request describes one transaction to sign, submit and confirm.
type Request struct {
	Call   []byte
	Signer network.Signer
	Tip    uint64

	// Nonce overrides the cached sequence number when set. The cache is
	// neither read nor advanced for the submission, but failure
	// reconciliation still updates it.
	Nonce *uint64

	// StatusCallback is invoked on every pool status update.
	StatusCallback func(network.TxStatus)

	// ExtrinsicStatus is invoked with the decoded events before SignAndConfirm returns them.
	ExtrinsicStatus func([]network.DecodedEvent)
}

// TxController submits transactions and follows them until the events they
// emitted can be attributed in the execution block.
type TxController struct {
	node      network.Node
	builder   network.TxBuilder
	addresses AddressEncoder
	cache     *sequence.Cache
	logger    log.Logger
	recorder  Recorder

	maxRetries int
	verbose    bool
}

// NewTxController creates a new TxController.
func NewTxController(node network.Node, builder network.TxBuilder, addresses AddressEncoder, cache *sequence.Cache) *TxController {
	return &TxController{
		node:       node,
		builder:    builder,
		addresses:  addresses,
		cache:      cache,
		logger:     log.NewNopLogger(),
		recorder:   nopRecorder{},
		maxRetries: DefaultMaxRetries,
	}
}

// SetLogger sets the logger.
func (c *TxController) SetLogger(logger log.Logger) {
	c.logger = logger
}

// SetRecorder sets the metrics recorder.
func (c *TxController) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetMaxRetries sets the head retry budget.
func (c *TxController) SetMaxRetries(n int) {
	c.maxRetries = n
}

// SetVerbose enables rendering of the decoded call in status logs.
func (c *TxController) SetVerbose(v bool) {
	c.verbose = v
}

// SignAndConfirm signs req.Call, submits it and waits until its execution
// block is available. It returns the events emitted while the extrinsic was
// dispatched. A failed dispatch is not an error: it shows up as an event with
// Error set.
func (c *TxController) SignAndConfirm(ctx context.Context, req *Request) ([]network.DecodedEvent, error) {
	if req.Signer == nil {
		return nil, fmt.Errorf("signer is required")
	}

	p := &pendingTx{
		id:      uuid.NewString(),
		account: c.addresses.Encode(req.Signer.AccountID()),
		phase:   PhaseCreated,
		started: time.Now(),
	}
	p.logger = c.logger.With("tx", p.id, "account", p.account)

	events, err := c.confirm(ctx, p, req)
	c.recorder.ObserveConfirmation(outcomeOf(err), time.Since(p.started))
	return events, err
}

func (c *TxController) confirm(ctx context.Context, p *pendingTx, req *Request) ([]network.DecodedEvent, error) {
	nonce, err := c.sequenceFor(ctx, p.account, req.Nonce)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "account next index", Err: err})
	}
	p.sequence = nonce

	unsigned, err := c.builder.BuildTx(ctx, &network.TxBuildRequest{
		Call:   req.Call,
		Signer: req.Signer,
		Nonce:  nonce,
		Tip:    req.Tip,
	})
	if err != nil {
		return nil, c.setFailed(ctx, p, fmt.Errorf("failed to build tx: %w", err))
	}
	signed, err := c.builder.SignTx(ctx, unsigned, req.Signer)
	if err != nil {
		return nil, c.setFailed(ctx, p, fmt.Errorf("failed to sign tx: %w", err))
	}
	p.hash = signed.Hash
	if c.verbose {
		p.description = c.describe(ctx, p, req.Call)
	}

	status, err := c.node.SubmitAndWatch(ctx, signed.TxBytes)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "submit", Err: err})
	}
	defer status.Unsubscribe()

	c.transition(p, PhaseSubmitted)
	p.logger.Debug("transaction submitted", "txHash", p.hash, "nonce", nonce)

	for {
		select {
		case st := <-status.Chan():
			p.logger.Info(fmt.Sprintf("Tx[%s] => %s(%s)%s", p.hash.Short(), st.Type, st.Value(), p.description))
			if req.StatusCallback != nil {
				req.StatusCallback(st)
			}
			switch {
			case st.IsFinalized():
				return c.awaitExecution(ctx, p, req, st.BlockHash)
			case st.IsError():
				return nil, c.setFailed(ctx, p, &ExtrinsicError{Status: st, Hash: p.hash})
			default:
				c.transition(p, PhaseIncludedPending)
			}
		case err := <-status.Err():
			return nil, c.setFailed(ctx, p, &TransportError{Op: "watch extrinsic", Err: err})
		case <-ctx.Done():
			return nil, c.setFailed(ctx, p, &TransportError{Op: "watch extrinsic", Err: ctx.Err()})
		}
	}
}

func (c *TxController) sequenceFor(ctx context.Context, account string, override *uint64) (uint64, error) {
	if override != nil {
		return *override, nil
	}
	remote, err := c.node.AccountNextIndex(ctx, account)
	if err != nil {
		return 0, err
	}
	return c.cache.NextForSubmission(account, remote), nil
}

func (c *TxController) awaitExecution(ctx context.Context, p *pendingTx, req *Request, inclusion network.Hash) ([]network.DecodedEvent, error) {
	header, err := c.node.Header(ctx, inclusion)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "fetch inclusion header", Err: err})
	}
	p.inclusionHash = inclusion
	p.inclusionNumber = header.Number
	p.executionNumber = header.Number + 1
	c.transition(p, PhaseIncludedAtBlock)

	heads, err := c.node.SubscribeNewHeads(ctx)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "subscribe new heads", Err: err})
	}
	defer heads.Unsubscribe()
	c.transition(p, PhaseAwaitingExecutionBlock)

	for {
		select {
		case head := <-heads.Chan():
			p.logger.Info(fmt.Sprintf("Tx[%s]: waiting for block %d, current %d", p.hash.Short(), p.executionNumber, head.Number))
			if head.Number > p.inclusionNumber {
				return c.extract(ctx, p, req, heads)
			}

			p.retries++
			c.recorder.IncHeadRetries()
			if p.retries > c.maxRetries {
				heads.Unsubscribe()
				return nil, c.setFailed(ctx, p, &TimeoutError{
					Hash:           p.hash,
					InclusionBlock: p.inclusionHash,
					ParentHash:     head.ParentHash,
					Retries:        p.retries,
				})
			}
			p.logger.Info(fmt.Sprintf("Retry [%d]: Tx[%s]: parent hash %s: finalized in %s",
				p.retries, p.hash.Short(), head.ParentHash.Short(), p.inclusionHash.Short()))
		case err := <-heads.Err():
			return nil, c.setFailed(ctx, p, &TransportError{Op: "watch new heads", Err: err})
		case <-ctx.Done():
			return nil, c.setFailed(ctx, p, &TransportError{Op: "watch new heads", Err: ctx.Err()})
		}
	}
}

func (c *TxController) extract(ctx context.Context, p *pendingTx, req *Request, heads network.Subscription[network.Header]) ([]network.DecodedEvent, error) {
	hash, err := c.node.BlockHash(ctx, p.executionNumber)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "fetch execution block hash", Err: err})
	}
	header, err := c.node.Header(ctx, hash)
	if err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "fetch execution header", Err: err})
	}
	heads.Unsubscribe()
	c.transition(p, PhaseExecutionBlockFound)
	p.logger.Info(fmt.Sprintf("Tx[%s]: found matching block %s", p.hash.Short(), hash))

	var (
		block   *network.Block
		records []network.EventRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := c.node.Block(gctx, hash)
		if err != nil {
			return fmt.Errorf("block: %w", err)
		}
		block = b
		return nil
	})
	g.Go(func() error {
		r, err := c.node.Events(gctx, hash)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		records = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, c.setFailed(ctx, p, &TransportError{Op: "fetch execution block", Err: err})
	}
	block.Header = *header

	res, err := execorder.ForBlock(block)
	if err != nil {
		c.recorder.IncReconstructionFailures()
		return nil, c.setFailed(ctx, p, &ReconstructionError{Hash: p.hash, InclusionBlock: p.inclusionHash, Block: hash, Err: err})
	}
	order := res.Order()
	idx, ok := execorder.IndexOf(order, p.hash)
	if !ok {
		c.recorder.IncReconstructionFailures()
		combined, _ := execorder.Split(block.Extrinsics, *header.Execution)
		rerr := &ReconstructionError{
			Hash:           p.hash,
			InclusionBlock: p.inclusionHash,
			Block:          hash,
			Raw:            execorder.Hashes(combined),
			Reconstructed:  execorder.Hashes(order),
		}
		for _, h := range rerr.Raw {
			p.logger.Info(fmt.Sprintf("Tx[%s] origin %s", p.hash.Short(), h))
		}
		for _, h := range rerr.Reconstructed {
			p.logger.Info(fmt.Sprintf("Tx[%s] shuffled %s", p.hash.Short(), h))
		}
		return nil, c.setFailed(ctx, p, rerr)
	}

	events := c.decodeEvents(ctx, records, uint32(idx))
	c.transition(p, PhaseEventsExtracted)
	if req.ExtrinsicStatus != nil {
		req.ExtrinsicStatus(events)
	}

	p.logger.Info("transaction confirmed",
		"txHash", p.hash,
		"block", header.Number,
		"index", idx,
		"events", len(events))
	return events, nil
}

func (c *TxController) describe(ctx context.Context, p *pendingTx, call []byte) string {
	desc, err := c.node.DescribeCall(ctx, call)
	if err != nil {
		p.logger.Debug("failed to render call", "error", err)
		return ""
	}
	return " (" + desc + ")"
}

func (c *TxController) transition(p *pendingTx, next Phase) {
	if p.phase == next {
		return
	}
	p.logger.Debug("transaction phase changed", "from", p.phase, "to", next)
	p.phase = next
}

// setFailed reconciles the cached sequence number of the account with the
// node and moves p to its terminal failure phase.
func (c *TxController) setFailed(ctx context.Context, p *pendingTx, err error) error {
	c.reconcile(ctx, p)

	next := PhaseReconciledAndFailed
	if IsTimeout(err) {
		next = PhaseTimedOut
	}
	c.transition(p, next)

	p.logger.Error("transaction failed", "txHash", p.hash, "retries", p.retries, "error", err)
	return err
}

// reconcile is best-effort: the remote value may lag behind a transaction
// that was broadcast but is not yet visible to the node.
func (c *TxController) reconcile(ctx context.Context, p *pendingTx) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()

	remote, err := c.node.AccountNextIndex(rctx, p.account)
	if err != nil {
		p.logger.Warn("failed to reconcile sequence number", "error", err)
		return
	}
	c.cache.Reconcile(p.account, remote)
	p.logger.Debug("sequence number reconciled", "next", remote)
}

func outcomeOf(err error) string {
	var extrinsicErr *ExtrinsicError
	switch {
	case err == nil:
		return OutcomeConfirmed
	case IsTimeout(err):
		return OutcomeTimeout
	case IsReconstruction(err):
		return OutcomeReconstruction
	case errors.As(err, &extrinsicErr):
		return OutcomeExtrinsicError
	case IsTransport(err):
		return OutcomeTransportError
	}
	return OutcomeRejected
}
