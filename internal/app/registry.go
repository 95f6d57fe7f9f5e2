package app

import (
	"sync"

	"github.com/dkeye/audioingest/internal/core"
	"github.com/dkeye/audioingest/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Registry is the set of live sessions. A session leaves the registry
// through Take or Drain, and whoever removed it is the one who closes it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*Session
	metrics  *metrics.Metrics
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*Session),
		metrics:  m,
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		r.metrics.SessionAdded()
	}
	r.sessions[s.ID] = s
	log.Info().Str("module", "app.registry").Str("sid", string(s.ID)).Int("size", len(r.sessions)).Msg("added session")
}

func (r *Registry) Get(sid core.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// Take removes sid and returns it. Absent sids are a no-op.
func (r *Registry) Take(sid core.SessionID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	r.metrics.SessionsRemoved(1)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("size", len(r.sessions)).Msg("removed session")
	return s, true
}

func (r *Registry) Remove(sid core.SessionID) bool {
	_, ok := r.Take(sid)
	return ok
}

// Drain empties the registry and returns everything it held.
func (r *Registry) Drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	clear(r.sessions)
	r.metrics.SessionsRemoved(len(out))
	log.Info().Str("module", "app.registry").Int("drained", len(out)).Msg("drained sessions")
	return out
}

func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
