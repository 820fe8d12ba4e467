// internal/controller/pending.go
package controller

import (
	"time"

	"cosmossdk.io/log"

	"github.com/altuslabsxyz/txconfirm/pkg/network"
)

// Phase is the confirmation stage of a submitted transaction.
type Phase string

// Confirmation phases. EventsExtracted, ReconciledAndFailed and TimedOut are
// terminal.
const (
	PhaseCreated                Phase = "Created"
	PhaseSubmitted              Phase = "Submitted"
	PhaseIncludedPending        Phase = "IncludedPending"
	PhaseIncludedAtBlock        Phase = "IncludedAtBlock"
	PhaseAwaitingExecutionBlock Phase = "AwaitingExecutionBlock"
	PhaseExecutionBlockFound    Phase = "ExecutionBlockFound"
	PhaseEventsExtracted        Phase = "EventsExtracted"
	PhaseReconciledAndFailed    Phase = "ReconciledAndFailed"
	PhaseTimedOut               Phase = "TimedOut"
)

// IsTerminal reports whether no further transition can happen.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseEventsExtracted, PhaseReconciledAndFailed, PhaseTimedOut:
		return true
	}
	return false
}

// pendingTx is the state of one SignAndConfirm call.
type pendingTx struct {
	id       string
	hash     network.Hash
	account  string
	sequence uint64
	phase    Phase
	started  time.Time
	logger   log.Logger

	inclusionHash   network.Hash
	inclusionNumber uint64
	executionNumber uint64
	retries         int

	// description is the rendered call, only set in verbose mode.
	description string
}
