// Package enginerr defines the synchronization engine's error taxonomy.
// Every fatal error the engine produces carries a Kind and the Phase it was
// reached in, following the shape gocryptotrader's engine package uses for
// its own subsystem sentinel errors, wrapped with github.com/pkg/errors so a
// causal chain survives across phase boundaries.
package enginerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Phase identifies which stage of the sync pipeline was executing when an
// error or event occurred.
type Phase int

const (
	// PhaseNone is the zero value: no phase has started yet.
	PhaseNone Phase = iota
	PhaseLatencyProfile
	PhaseWholeSecond
	PhaseBinarySearch
	PhaseVerification
	PhaseComplete
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseLatencyProfile:
		return "Phase1"
	case PhaseWholeSecond:
		return "Phase2"
	case PhaseBinarySearch:
		return "Phase3"
	case PhaseVerification:
		return "Phase4"
	case PhaseComplete:
		return "Complete"
	default:
		return "Idle"
	}
}

// Kind enumerates the error taxonomy of spec.md section 7.
type Kind int

const (
	// KindTransport is a connection, TLS, or socket failure. Retryable.
	KindTransport Kind = iota
	// KindTimeout is a per-probe deadline exceeded. Retryable.
	KindTimeout
	// KindBadResponse is a non-2xx or missing/malformed required field. Retryable.
	KindBadResponse
	// KindMissingTimeSource means the Date header was absent and no
	// fallback extractor was configured (or the swap already happened once).
	KindMissingTimeSource
	// KindNoisyNetwork means Phase 1 could not produce a clean five-number
	// summary after retries. Fatal for the run.
	KindNoisyNetwork
	// KindAmbiguousBoundary means Phase 2 could not avoid the
	// second-boundary hazard after retries. Fatal.
	KindAmbiguousBoundary
	// KindUnstableBoundary means Phase 3 saw repeated inconsistent
	// elapsed-second arithmetic. Fatal.
	KindUnstableBoundary
	// KindVerificationFailed means Phase 4 predictions did not match. Not
	// fatal: a SyncResult with Verified=false is still returned.
	KindVerificationFailed
	// KindCancelled is a control-plane error: the run was cancelled.
	KindCancelled
	// KindAlreadyRunning is a control-plane error: a run is already active
	// for the target.
	KindAlreadyRunning
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "Transport"
	case KindTimeout:
		return "Timeout"
	case KindBadResponse:
		return "BadResponse"
	case KindMissingTimeSource:
		return "MissingTimeSource"
	case KindNoisyNetwork:
		return "NoisyNetwork"
	case KindAmbiguousBoundary:
		return "AmbiguousBoundary"
	case KindUnstableBoundary:
		return "UnstableBoundary"
	case KindVerificationFailed:
		return "VerificationFailed"
	case KindCancelled:
		return "Cancelled"
	case KindAlreadyRunning:
		return "AlreadyRunning"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the local phase/probe owner should retry before
// propagating this Kind to the orchestrator.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransport, KindTimeout, KindBadResponse:
		return true
	default:
		return false
	}
}

// SyncError is the error type returned by any engine operation that fails.
type SyncError struct {
	Kind  Kind
	Phase Phase
	cause error
}

// New creates a SyncError with no wrapped cause.
func New(kind Kind, phase Phase) *SyncError {
	return &SyncError{Kind: kind, Phase: phase}
}

// Wrap creates a SyncError wrapping cause with a stack trace via pkg/errors,
// so callers further up the chain can recover the original failure with
// errors.Cause or errors.As.
func Wrap(kind Kind, phase Phase, cause error) *SyncError {
	return &SyncError{Kind: kind, Phase: phase, cause: errors.WithStack(cause)}
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Phase, e.cause)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Phase)
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *SyncError) Unwrap() error { return e.cause }

// Is reports Kind equality so callers can write errors.Is(err, enginerr.New(enginerr.KindTimeout, 0))
// style comparisons keyed only on Kind.
func (e *SyncError) Is(target error) bool {
	other, ok := target.(*SyncError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
