// pkg/network/node.go
package network

import "context"

// Subscription is a cancellable stream of values pushed by a node.
//
// Values and errors are delivered on separate channels. The value channel is
// never closed; consumers select on Err to learn that the stream is gone.
// Unsubscribe is safe to call more than once and from any goroutine.
type Subscription[T any] interface {
	// Chan returns the channel of pushed values.
	Chan() <-chan T

	// Err returns a channel that receives at most one error when the
	// subscription terminates abnormally.
	Err() <-chan error

	// Unsubscribe releases the subscription.
	Unsubscribe()
}

// Node is the remote collaborator the confirmation flow talks to.
type Node interface {
	// SubmitAndWatch submits an encoded extrinsic and streams its pool status.
	SubmitAndWatch(ctx context.Context, extrinsic []byte) (Subscription[TxStatus], error)

	// SubscribeNewHeads streams new best-block headers.
	SubscribeNewHeads(ctx context.Context) (Subscription[Header], error)

	// Header returns the header of the block with the given hash.
	Header(ctx context.Context, hash Hash) (*Header, error)

	// BlockHash returns the hash of the block at the given height.
	BlockHash(ctx context.Context, number uint64) (Hash, error)

	// Block returns the block with the given hash.
	Block(ctx context.Context, hash Hash) (*Block, error)

	// Events returns the decoded System.Events of the block with the given hash.
	Events(ctx context.Context, hash Hash) ([]EventRecord, error)

	// AccountNextIndex returns the authoritative next sequence number of an account.
	AccountNextIndex(ctx context.Context, address string) (uint64, error)

	// MetaError resolves a module dispatch error to its name and docs.
	MetaError(ctx context.Context, palletIndex, errorIndex uint8) (*MetaError, error)

	// DescribeCall renders an encoded call as "pallet::call(args)".
	DescribeCall(ctx context.Context, call []byte) (string, error)
}
