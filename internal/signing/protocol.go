package signing

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize caps a single framed message at 10 MiB.
const MaxMessageSize = 10 * 1024 * 1024

// Message types exchanged after reclamation. Notary → prover:
const (
	// TypeContext carries the canonical JSON context for review.
	TypeContext = "context"
	// TypeSigned carries the signed attestation of the context.
	TypeSigned = "signed"
)

// Prover → notary:
const (
	// TypeSignRequest asks the notary to sign the full context.
	TypeSignRequest = "sign_request"
	// TypeSignFiltered asks the notary to sign a redacted subset.
	TypeSignFiltered = "sign_filtered"
)

// NotaryMessage is a notary → prover message.
type NotaryMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`

	// set on TypeSigned only
	Format    string `json:"format,omitempty"`
	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"public_key,omitempty"`
	Algorithm string `json:"algorithm,omitempty"`
}

// ProverMessage is a prover → notary message.
type ProverMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// WriteMessage writes a length-prefixed (u32 big-endian) JSON message.
func WriteMessage(w io.Writer, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serializing message: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(append(lenBuf[:], payload...)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// ReadMessage reads a length-prefixed JSON message into out.
func ReadMessage(r io.Reader, out any) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("reading length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", n, MaxMessageSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("deserializing message: %w", err)
	}
	return nil
}
