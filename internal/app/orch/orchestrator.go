// Package orch drives the notarization session state machine:
// upgrade → lend → run protocol → reclaim → send result → close.
package orch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sorens/notary/internal/adapters/wstream"
	"github.com/sorens/notary/internal/core"
	"github.com/sorens/notary/internal/domain"
	"github.com/sorens/notary/internal/handoff"
	"github.com/sorens/notary/internal/signing"
)

// DefaultSessionTimeout bounds a whole session end to end.
const DefaultSessionTimeout = 2 * time.Minute

// Orchestrator owns the per-session lifecycle. All fields are read-only
// after wiring; each session gets its own handoff manager and no state
// is shared across connections.
type Orchestrator struct {
	Verifiers core.VerifierFactory
	Builder   core.TranscriptBuilder

	// Signer enables the post-result signing exchange when non-nil.
	Signer  signing.ContextSigner
	Encoder signing.ContextEncoder

	SessionTimeout time.Duration
	ReclaimTimeout time.Duration
}

type session struct {
	info   domain.SessionInfo
	stream wstream.Stream
	state  State
	log    zerolog.Logger
}

func (s *session) to(next State) {
	s.log.Debug().Str("from", s.state.String()).Str("to", next.String()).Msg("transition")
	s.state = next
}

// fail moves the session to Failed and then Closed, force-closing the
// connection. No bytes are written: on these paths the stream may still
// be lent or corrupted.
func (s *session) fail(err error) error {
	s.log.Error().Err(err).Str("state", s.state.String()).Msg("session failed")
	s.to(StateFailed)
	_ = s.stream.Close()
	s.to(StateClosed)
	return err
}

// Notarize runs one complete session over an adapted stream. The stream
// is always closed before return, whatever path the session takes.
func (o *Orchestrator) Notarize(ctx context.Context, info domain.SessionInfo, stream wstream.Stream) error {
	sess := &session{
		info:   info,
		stream: stream,
		state:  StateUpgraded,
		log:    log.With().Str("module", "orch").Str("sid", string(info.ID)).Logger(),
	}

	timeout := o.SessionTimeout
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mgr := handoff.NewManager(o.ReclaimTimeout)
	lease, renter, err := mgr.Lend(ctx, stream)
	if err != nil {
		return sess.fail(err)
	}
	sess.to(StateLent)

	v := o.Verifiers.New(renter)
	sess.to(StateRunning)
	outcome, perr := runProtocol(ctx, v)
	sess.to(StateCompleted)

	// The renter is done with the stream either way; a typed protocol
	// failure still takes the reclaim-then-close path so the client
	// gets a well-formed failure result.
	_ = renter.Close()

	sess.to(StateReclaiming)
	// best-effort even when the session context is already dead; the
	// manager applies its own bounded deadline
	reclaimed, err := mgr.Reclaim(context.WithoutCancel(ctx), lease)
	if err != nil {
		if errors.Is(err, core.ErrAlreadyRedeemed) {
			// unreachable from external input; a defect, not a condition
			sess.log.Error().Err(err).Msg("defensive abort: lease redeemed twice")
		}
		return sess.fail(err)
	}
	sess.to(StateReclaimed)

	// bound the result write and signing exchange by the session deadline
	if dl, ok := ctx.Deadline(); ok {
		_ = reclaimed.SetReadDeadline(dl)
		_ = reclaimed.SetWriteDeadline(dl)
	}

	payload, serr := o.buildResult(outcome, perr)
	if serr != nil {
		return sess.fail(serr)
	}
	if err := writeResult(reclaimed, payload); err != nil {
		return sess.fail(err)
	}
	sess.to(StateResultSent)

	if perr == nil && o.Signer != nil {
		encoder := o.Encoder
		if encoder == nil {
			encoder = signing.JSONEncoder{}
		}
		if err := signing.RunExchange(reclaimed, payload, o.Signer, encoder); err != nil {
			sess.log.Warn().Err(err).Msg("signing exchange failed")
		}
	}

	_ = reclaimed.Close()
	sess.to(StateClosed)
	if perr != nil {
		return perr
	}
	return nil
}

// buildResult produces the single post-reclaim result payload. Protocol
// failures become {"ok":false,"error":...}; a payload that cannot be
// encoded is a SerializationError.
func (o *Orchestrator) buildResult(outcome core.Outcome, perr *core.ProtocolError) (json.RawMessage, error) {
	if perr != nil {
		b, err := json.Marshal(struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}{OK: false, Error: perr.Reason})
		if err != nil {
			return nil, &core.SerializationError{Err: err}
		}
		return b, nil
	}
	payload, err := o.Builder.Build(outcome)
	if err != nil {
		var serr *core.SerializationError
		if errors.As(err, &serr) {
			return nil, serr
		}
		return nil, &core.SerializationError{Err: err}
	}
	return payload, nil
}

// runProtocol walks the verifier through its sequential phases. Any
// failure is surfaced as a categorized ProtocolError; the phases
// themselves are opaque to this core.
func runProtocol(ctx context.Context, v core.Verifier) (core.Outcome, *core.ProtocolError) {
	defer func() { _ = v.Close() }()

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"commit", v.Commit},
		{"accept", v.Accept},
		{"run", v.Run},
		{"verify", v.Verify},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return core.Outcome{}, asProtocolError(step.name, err)
		}
	}
	outcome, err := v.Finish(ctx)
	if err != nil {
		return core.Outcome{}, asProtocolError("finish", err)
	}
	return outcome, nil
}

func asProtocolError(phase string, err error) *core.ProtocolError {
	var perr *core.ProtocolError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, core.ErrLendEnded) {
		return core.NewProtocolError(core.IOFailure, phase+" cancelled", err)
	}
	return core.NewProtocolError(core.InternalBug, phase+" failed", err)
}
