package orch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sorens/notary/internal/signing"
)

// writeResult sends exactly one framed result message over the
// reclaimed stream. The frame codec is shared with the signing
// exchange; over the websocket adapter one write is one message.
func writeResult(w io.Writer, payload json.RawMessage) error {
	if err := signing.WriteMessage(w, payload); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
