// internal/controller/errors.go
package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// TransportError is returned when talking to the node fails at any stage of
// a confirmation, including cancellation of the caller's context.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtrinsicError is returned when the node reports a terminal pool status
// (Dropped, Invalid, Usurped or FinalityTimeout) for the submitted extrinsic.
type ExtrinsicError struct {
	Status network.TxStatus
	Hash   network.Hash
}

func (e *ExtrinsicError) Error() string {
	return fmt.Sprintf("tx %s transaction error: %s(%s)", e.Hash.Short(), e.Status.Type, e.Status.Value())
}

// ReconstructionError is returned when the submitted hash cannot be located
// in the reconstructed execution order of its execution block, or when the
// order cannot be computed at all.
type ReconstructionError struct {
	Hash           network.Hash
	InclusionBlock network.Hash
	Block          network.Hash

	// Raw lists the extrinsic hashes that took part in execution, in stored order.
	Raw []string

	// Reconstructed lists the same hashes in computed dispatch order.
	Reconstructed []string

	// Err is set when the order could not be computed.
	Err error
}

func (e *ReconstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to reconstruct execution order of block %s for tx %s: %v", e.Block, e.Hash, e.Err)
	}
	return fmt.Sprintf("tx %s could not be found in execution block %s (included in %s); origin=[%s] shuffled=[%s]",
		e.Hash, e.Block, e.InclusionBlock.Short(),
		strings.Join(e.Raw, ","), strings.Join(e.Reconstructed, ","))
}

func (e *ReconstructionError) Unwrap() error { return e.Err }

// TimeoutError is returned when the execution block was not observed within
// the head retry budget.
type TimeoutError struct {
	Hash           network.Hash
	InclusionBlock network.Hash
	ParentHash     network.Hash
	Retries        int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transaction was not finalized: tx %s: parent hash %s: status finalized %s (after %d heads)",
		e.Hash.Short(), e.ParentHash.Short(), e.InclusionBlock.Short(), e.Retries)
}

// IsTimeout reports whether err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsReconstruction reports whether err is or wraps a ReconstructionError.
func IsReconstruction(err error) bool {
	var e *ReconstructionError
	return errors.As(err, &e)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}
