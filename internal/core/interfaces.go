package core

import (
	"context"
	"encoding/json"
	"io"
)

// Outcome is the terminal result of running the verification protocol.
// The transcript material is opaque to this core; only the
// TranscriptBuilder interprets it.
type Outcome struct {
	ServerName string
	Transcript []byte
}

// Verifier is the external protocol engine run over a lent stream.
// The phases form an opaque sequential protocol; the orchestrator calls
// them in order and maps failures to ProtocolError without interpreting
// their internals. Either external driver shape (direct setup or
// session-with-driver) can sit behind this interface.
type Verifier interface {
	// Commit receives the prover's protocol commitment.
	Commit(ctx context.Context) error
	// Accept acknowledges the commitment.
	Accept(ctx context.Context) error
	// Run executes the verification protocol to completion.
	Run(ctx context.Context) error
	// Verify processes the prove request.
	Verify(ctx context.Context) error
	// Finish accepts the prove request and yields the outcome.
	Finish(ctx context.Context) (Outcome, error)
	// Close releases verifier resources. It must not touch the stream
	// after returning.
	Close() error
}

// VerifierFactory binds a verifier to the renter-facing side of a lent
// stream. Owned by the adapter wiring; the orchestrator never constructs
// verifiers directly.
type VerifierFactory interface {
	New(rw io.ReadWriter) Verifier
}

// TranscriptBuilder turns a successful outcome into the result payload
// sent back to the client.
type TranscriptBuilder interface {
	Build(o Outcome) (json.RawMessage, error)
}
