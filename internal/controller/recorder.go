// internal/controller/recorder.go
package controller

import "time"

// Confirmation outcomes reported to a Recorder.
const (
	OutcomeConfirmed      = "confirmed"
	OutcomeRejected       = "rejected"
	OutcomeExtrinsicError = "extrinsic_error"
	OutcomeTransportError = "transport_error"
	OutcomeReconstruction = "reconstruction_error"
	OutcomeTimeout        = "timeout"
)

// Recorder receives confirmation metrics.
type Recorder interface {
	// ObserveConfirmation records the outcome and latency of one call.
	ObserveConfirmation(outcome string, elapsed time.Duration)

	// IncHeadRetries records a head observed before the execution block.
	IncHeadRetries()

	// IncReconstructionFailures records a failed order reconstruction.
	IncReconstructionFailures()
}

type nopRecorder struct{}

func (nopRecorder) ObserveConfirmation(string, time.Duration) {}
func (nopRecorder) IncHeadRetries()                           {}
func (nopRecorder) IncReconstructionFailures()                {}
