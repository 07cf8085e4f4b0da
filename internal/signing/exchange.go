package signing

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

// RunExchange runs the two-phase signing exchange over a reclaimed
// stream.
//
//  1. Sends the canonical JSON context to the prover (always JSON for
//     review, regardless of encoder).
//  2. Waits for a sign_request (sign the full context) or sign_filtered
//     (sign a redacted subset).
//  3. Encodes the chosen value, signs the digest, sends the signed
//     attestation.
func RunExchange(rw io.ReadWriter, context json.RawMessage, signer ContextSigner, encoder ContextEncoder) error {
	if err := WriteMessage(rw, &NotaryMessage{
		Type: TypeContext,
		Data: string(context),
	}); err != nil {
		return fmt.Errorf("sending context message: %w", err)
	}

	var req ProverMessage
	if err := ReadMessage(rw, &req); err != nil {
		return fmt.Errorf("reading prover message: %w", err)
	}

	var toEncode any
	switch req.Type {
	case TypeSignRequest:
		if err := json.Unmarshal(context, &toEncode); err != nil {
			return fmt.Errorf("parsing canonical context: %w", err)
		}
	case TypeSignFiltered:
		var original, filtered any
		if err := json.Unmarshal(context, &original); err != nil {
			return fmt.Errorf("parsing original context: %w", err)
		}
		if err := json.Unmarshal([]byte(req.Data), &filtered); err != nil {
			return fmt.Errorf("parsing filtered context: %w", err)
		}
		if !IsJSONSubset(filtered, original) {
			return fmt.Errorf("filtered context is not a valid subset of the original context")
		}
		toEncode = filtered
	default:
		return fmt.Errorf("unexpected prover message type %q", req.Type)
	}

	encoded, err := encoder.Encode(toEncode)
	if err != nil {
		return fmt.Errorf("encoding context: %w", err)
	}

	sig, err := signer.SignDigest(encoded.Digest)
	if err != nil {
		return fmt.Errorf("signing context digest: %w", err)
	}

	// JSON stays readable on the wire; binary encodings travel as hex.
	data := string(encoded.Data)
	if encoder.Name() != "json" {
		data = hex.EncodeToString(encoded.Data)
	}

	if err := WriteMessage(rw, &NotaryMessage{
		Type:      TypeSigned,
		Data:      data,
		Format:    encoder.Name(),
		Signature: hex.EncodeToString(sig),
		PublicKey: hex.EncodeToString(signer.PublicKeyBytes()),
		Algorithm: signer.Algorithm(),
	}); err != nil {
		return fmt.Errorf("sending signed message: %w", err)
	}
	return nil
}
