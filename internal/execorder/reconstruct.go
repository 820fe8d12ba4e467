// Package execorder rebuilds the order in which the runtime dispatched the
// extrinsics of a block.
//
// Blocks on this chain execute one block late: the body of block N starts
// with N's own inherents (the first Count entries of the header metadata),
// followed by the signed extrinsics that were included in block N-1. Before
// dispatch those signed extrinsics are grouped by signer, taken round-robin in
// address order, and each round is shuffled with the block seed.
package execorder

import (
	"fmt"
	"sort"

	"github.com/altuslabsxyz/txconfirm/internal/shuffle"
	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// Result is a reconstructed execution order.
type Result struct {
	// Inherents are the unsigned extrinsics, in their stored order.
	Inherents []network.Extrinsic

	// Rounds are the shuffled round-robin rounds, in generation order.
	Rounds [][]network.Extrinsic
}

// Order flattens the result into dispatch order.
func (r *Result) Order() []network.Extrinsic {
	n := len(r.Inherents)
	for _, round := range r.Rounds {
		n += len(round)
	}
	out := make([]network.Extrinsic, 0, n)
	out = append(out, r.Inherents...)
	for _, round := range r.Rounds {
		out = append(out, round...)
	}
	return out
}

// Split returns the extrinsics that take part in the execution of a block:
// the unsigned ones among its first meta.Count entries, followed by the
// entries carried over from the previous block.
func Split(extrinsics []network.Extrinsic, meta network.BlockExecutionMetadata) ([]network.Extrinsic, error) {
	count := int(meta.Count)
	if count > len(extrinsics) {
		return nil, fmt.Errorf("inherent count %d exceeds %d extrinsics in block", count, len(extrinsics))
	}

	out := make([]network.Extrinsic, 0, len(extrinsics))
	for _, ext := range extrinsics[:count] {
		if !ext.Signed {
			out = append(out, ext)
		}
	}
	return append(out, extrinsics[count:]...), nil
}

// Reconstruct computes the dispatch order of extrinsics for the given seed.
// Unsigned extrinsics keep their relative order at the front. The shuffler is
// seeded once and reused across rounds.
func Reconstruct(extrinsics []network.Extrinsic, seed [network.SeedLength]byte) *Result {
	res := &Result{}
	queues := make(map[string][]network.Extrinsic)

	for _, ext := range extrinsics {
		if !ext.Signed {
			res.Inherents = append(res.Inherents, ext)
			continue
		}
		queues[ext.Signer] = append(queues[ext.Signer], ext)
	}

	fy := shuffle.NewFisherYates(seed)
	for len(queues) > 0 {
		signers := make([]string, 0, len(queues))
		for signer := range queues {
			signers = append(signers, signer)
		}
		sort.Strings(signers)

		round := make([]network.Extrinsic, 0, len(signers))
		for _, signer := range signers {
			q := queues[signer]
			round = append(round, q[0])
			if len(q) == 1 {
				delete(queues, signer)
			} else {
				queues[signer] = q[1:]
			}
		}

		shuffle.Shuffle(fy, round)
		res.Rounds = append(res.Rounds, round)
	}

	return res
}

// ForBlock reconstructs the execution order of a block from its body and the
// shuffling metadata in its header.
func ForBlock(block *network.Block) (*Result, error) {
	meta := block.Header.Execution
	if meta == nil {
		return nil, fmt.Errorf("block %s has no execution metadata in its header", block.Hash)
	}
	combined, err := Split(block.Extrinsics, *meta)
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", block.Hash, err)
	}
	return Reconstruct(combined, meta.Seed), nil
}

// IndexOf returns the position of hash in order.
func IndexOf(order []network.Extrinsic, hash network.Hash) (int, bool) {
	for i, ext := range order {
		if ext.Hash == hash {
			return i, true
		}
	}
	return -1, false
}

// Hashes returns the hashes of order, for diagnostics.
func Hashes(order []network.Extrinsic) []string {
	out := make([]string, len(order))
	for i, ext := range order {
		out[i] = ext.Hash.Hex()
	}
	return out
}
