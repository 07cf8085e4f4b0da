package app

import "errors"

// ErrAtCapacity refuses an upgrade when the session cap is reached.
var ErrAtCapacity = errors.New("at session capacity")

// Admission decides whether a new session may start given the number of
// currently active sessions.
type Admission interface {
	Admit(active int) error
}

// CapPolicy admits sessions up to a fixed cap; zero or negative means
// unlimited.
type CapPolicy struct {
	Max int
}

func (p CapPolicy) Admit(active int) error {
	if p.Max > 0 && active >= p.Max {
		return ErrAtCapacity
	}
	return nil
}
