// Package verifier carries a built-in stand-in for the external MPC-TLS
// protocol engine, so the server is runnable and testable without it.
// The stand-in speaks a minimal framed handshake over the lent stream:
// the prover commits a config blob, the notary accepts, the prover
// sends the transcript material, the notary acknowledges it verified.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sorens/notary/internal/core"
	"github.com/sorens/notary/internal/signing"
)

type message struct {
	Type       string `json:"type"`
	Data       string `json:"data,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// Factory builds stand-in verifiers over a renter stream.
type Factory struct{}

func (Factory) New(rw io.ReadWriter) core.Verifier {
	return &stub{rw: rw}
}

type stub struct {
	rw         io.ReadWriter
	serverName string
	transcript []byte
}

func (v *stub) Commit(ctx context.Context) error {
	var m message
	if err := signing.ReadMessage(v.rw, &m); err != nil {
		return core.NewProtocolError(core.IOFailure, "reading commit", err)
	}
	if m.Type != "commit" {
		return core.NewProtocolError(core.InvalidConfig, fmt.Sprintf("expected commit, got %q", m.Type), nil)
	}
	return nil
}

func (v *stub) Accept(ctx context.Context) error {
	if err := signing.WriteMessage(v.rw, &message{Type: "accepted"}); err != nil {
		return core.NewProtocolError(core.IOFailure, "writing accept", err)
	}
	return nil
}

func (v *stub) Run(ctx context.Context) error {
	var m message
	if err := signing.ReadMessage(v.rw, &m); err != nil {
		return core.NewProtocolError(core.IOFailure, "reading transcript", err)
	}
	if m.Type != "transcript" {
		return core.NewProtocolError(core.InvalidConfig, fmt.Sprintf("expected transcript, got %q", m.Type), nil)
	}
	v.serverName = m.ServerName
	v.transcript = []byte(m.Data)
	return nil
}

func (v *stub) Verify(ctx context.Context) error {
	if len(v.transcript) == 0 {
		return core.NewProtocolError(core.RejectedByRemote, "empty transcript", nil)
	}
	return nil
}

func (v *stub) Finish(ctx context.Context) (core.Outcome, error) {
	if err := signing.WriteMessage(v.rw, &message{Type: "verified"}); err != nil {
		return core.Outcome{}, core.NewProtocolError(core.IOFailure, "writing verified", err)
	}
	return core.Outcome{ServerName: v.serverName, Transcript: v.transcript}, nil
}

func (v *stub) Close() error { return nil }

// Builder is the matching transcript builder: the context is the raw
// transcript plus the server name the stand-in observed.
type Builder struct{}

func (Builder) Build(o core.Outcome) (json.RawMessage, error) {
	payload := struct {
		OK         bool   `json:"ok"`
		ServerName string `json:"server_name,omitempty"`
		Data       string `json:"data"`
	}{OK: true, ServerName: o.ServerName, Data: string(o.Transcript)}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &core.SerializationError{Err: err}
	}
	return b, nil
}
