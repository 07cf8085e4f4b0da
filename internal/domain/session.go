package domain

import (
	"fmt"
	"time"
)

type SessionID string

// ContextFormat selects how the result context is serialized for the
// client. Only JSON is implemented; binary is a recognized request that
// must be refused explicitly rather than mishandled.
type ContextFormat string

const (
	FormatJSON   ContextFormat = "json"
	FormatBinary ContextFormat = "binary"
)

// ErrFormatNotImplemented marks a recognized but unimplemented format.
type ErrFormatNotImplemented struct {
	Format ContextFormat
}

func (e *ErrFormatNotImplemented) Error() string {
	return fmt.Sprintf("context format %q is not implemented", e.Format)
}

// ParseContextFormat validates the context_format query selector.
// An empty selector defaults to JSON.
func ParseContextFormat(s string) (ContextFormat, error) {
	switch ContextFormat(s) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatBinary:
		return FormatBinary, &ErrFormatNotImplemented{Format: FormatBinary}
	default:
		return "", fmt.Errorf("unknown context format %q", s)
	}
}

// SessionInfo is the read-only view of a live notarization session.
type SessionInfo struct {
	ID        SessionID     `json:"id"`
	Remote    string        `json:"remote"`
	Format    ContextFormat `json:"format"`
	StartedAt time.Time     `json:"started_at"`
}
