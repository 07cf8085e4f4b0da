package orch

// State is the position of a notarization session in its lifecycle.
// The machine is linear; Failed is reachable from every state and
// always leads to Closed.
type State int

const (
	StateUpgraded State = iota
	StateLent
	StateRunning
	StateCompleted
	StateReclaiming
	StateReclaimed
	StateResultSent
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUpgraded:
		return "upgraded"
	case StateLent:
		return "lent"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateReclaiming:
		return "reclaiming"
	case StateReclaimed:
		return "reclaimed"
	case StateResultSent:
		return "result_sent"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
