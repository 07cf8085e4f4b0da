package core

import (
	"errors"
	"fmt"
)

// TransportKind discriminates transport failures that need different
// handling at the session level.
type TransportKind int

const (
	// KindReset is an abnormal connection teardown (peer reset, broken pipe).
	KindReset TransportKind = iota
	// KindBadUpgrade is a malformed or unsupported upgrade request.
	KindBadUpgrade
	// KindIO is any other underlying I/O failure.
	KindIO
)

func (k TransportKind) String() string {
	switch k {
	case KindReset:
		return "reset"
	case KindBadUpgrade:
		return "bad_upgrade"
	default:
		return "io"
	}
}

// TransportError is always fatal to the session; nothing in this core
// retries transport failures.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err with a transport kind.
func NewTransportError(kind TransportKind, err error) *TransportError {
	return &TransportError{Kind: kind, Err: err}
}

// Handoff errors. ErrStillHeld refines ErrReclaimTimeout: both mean the
// reclaim deadline elapsed, StillHeld additionally means the renter was
// mid-operation on the stream when it did.
var (
	ErrNotIdle         = errors.New("handoff: stream is not idle")
	ErrReclaimTimeout  = errors.New("handoff: reclaim deadline exceeded")
	ErrStillHeld       = fmt.Errorf("%w: renter still holds the stream", ErrReclaimTimeout)
	ErrAlreadyRedeemed = errors.New("handoff: lease already redeemed")
	ErrLendEnded       = errors.New("handoff: lending episode has ended")
)

// ProtocolCategory classifies failures reported by the external verifier.
// The orchestrator maps each to a session failure without interpreting
// verifier internals.
type ProtocolCategory string

const (
	RejectedByRemote ProtocolCategory = "rejected_by_remote"
	IOFailure        ProtocolCategory = "io_failure"
	InternalBug      ProtocolCategory = "internal_bug"
	InvalidConfig    ProtocolCategory = "invalid_config"
)

// ProtocolError ends the Running state but still permits the
// reclaim-then-close path, so the client receives a failure result
// instead of a silent drop.
type ProtocolError struct {
	Category ProtocolCategory
	Reason   string
	Err      error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol %s: %s: %v", e.Category, e.Reason, e.Err)
	}
	return fmt.Sprintf("protocol %s: %s", e.Category, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// NewProtocolError builds a categorized protocol failure.
func NewProtocolError(cat ProtocolCategory, reason string, err error) *ProtocolError {
	return &ProtocolError{Category: cat, Reason: reason, Err: err}
}

// SerializationError means a result payload could not be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize result: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
