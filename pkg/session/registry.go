package session

import (
	"context"
	"sync"

	"github.com/browserdesk/browserdesk/pkg/browser"
	"github.com/browserdesk/browserdesk/pkg/logger"
)

// TabFactory provisions a browser tab for a new session.
type TabFactory func(ctx context.Context, id string) (browser.Tab, error)

// Registry maps session ids to live sessions. It is the only shared
// state across sessions; all mutation is serialized on its lock.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	tabs     TabFactory
	log      *logger.Logger
}

func NewRegistry(tabs TabFactory, log *logger.Logger) *Registry {
	return &Registry{sessions: make(map[string]*Session, 4), tabs: tabs, log: log}
}

// GetOrCreate returns the session registered under id, provisioning a
// new browser tab when there is none. The lock is held across
// provisioning, a racing caller never sees a half-built session.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	tab, err := r.tabs(ctx, id)
	if err != nil {
		return nil, err
	}
	s := &Session{id: id, tab: tab}
	r.sessions[id] = s
	r.log.Info().Str("sid", id).Msg("session created")
	return s, nil
}

// Destroy stops the session's frame loop, releases its tab and removes
// the entry. Unknown ids are a no-op.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return
	}
	// the loop must be fully stopped before the tab goes away,
	// otherwise a capture call races against a closed tab
	s.StopLoop()
	if err := s.tab.Close(); err != nil {
		r.log.Warn().Err(err).Str("sid", id).Msg("tab release")
	}
	r.log.Info().Str("sid", id).Msg("session destroyed")
}

// Close destroys every live session.
func (r *Registry) Close() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	for _, id := range ids {
		r.Destroy(id)
	}
}
