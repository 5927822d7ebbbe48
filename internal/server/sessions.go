package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/basin-cli/internal/basin"
	"github.com/sells-group/basin-cli/internal/view"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = eris.New("server: session not found")

// Session is one dashboard: a model and the widgets around it. Handlers
// hold mu for the whole request.
type Session struct {
	ID    string
	Model *basin.Model
	Views *view.Views

	mu       sync.Mutex
	lastSeen time.Time
}

// Sessions is the set of live sessions.
type Sessions struct {
	deps     basin.Deps
	defaults basin.Defaults
	ttl      time.Duration
	now      func() time.Time

	mu sync.Mutex
	m  map[string]*Session
}

// NewSessions creates an empty session set. Sessions idle for longer than
// ttl are dropped by Sweep.
func NewSessions(deps basin.Deps, defaults basin.Defaults, ttl time.Duration) *Sessions {
	return &Sessions{
		deps:     deps,
		defaults: defaults,
		ttl:      ttl,
		now:      time.Now,
		m:        make(map[string]*Session),
	}
}

// Create starts a session with labels for the accept language list.
func (s *Sessions) Create(accept string) *Session {
	model := basin.NewModel(s.deps, s.defaults)
	sess := &Session{
		ID:       uuid.New().String(),
		Model:    model,
		Views:    view.New(model, accept),
		lastSeen: s.now(),
	}
	s.mu.Lock()
	s.m[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns a live session and marks it as used.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.m[id]
	if !ok {
		return nil, eris.Wrapf(ErrSessionNotFound, "id %s", id)
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// Delete ends a session.
func (s *Sessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return eris.Wrapf(ErrSessionNotFound, "id %s", id)
	}
	delete(s.m, id)
	return nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Sweep drops idle sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		if sess.lastSeen.Before(cutoff) {
			delete(s.m, id)
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Sessions) RunSweeper(ctx context.Context, interval time.Duration) {
	log := zap.L().With(zap.String("component", "server.sessions"))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Info("expired sessions dropped", zap.Int("count", n), zap.Int("live", s.Len()))
			}
		}
	}
}
