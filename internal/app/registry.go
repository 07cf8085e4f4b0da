package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sorens/notary/internal/domain"
)

type sessionEntry struct {
	Info   domain.SessionInfo
	Cancel context.CancelFunc
}

// Registry tracks live notarization sessions so shutdown can cancel
// them and admission can count them. Sessions are otherwise fully
// independent; no state crosses connections.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionID]*sessionEntry)}
}

func (r *Registry) Bind(info domain.SessionInfo, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[info.ID] = &sessionEntry{Info: info, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(info.ID)).Str("remote", info.Remote).Msg("bound session")
}

func (r *Registry) Unbind(sid domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Snapshot() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, e := range r.sessions {
		out = append(out, e.Info)
	}
	return out
}

// Cancel signals one session to stop.
func (r *Registry) Cancel(sid domain.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll signals every live session to stop; used on shutdown.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sessions {
		if e.Cancel != nil {
			e.Cancel()
		}
	}
}
