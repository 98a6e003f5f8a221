package memory

import (
	"context"
	"sync"
	"time"

	"zonebourse-go/internal/model"
	"zonebourse-go/internal/repositories"
)

type SessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]model.Session
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]model.Session),
	}
}

func (r *SessionRepository) Get(_ context.Context, id string) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return model.Session{}, repositories.ErrNotFound
	}
	if !r.now().Before(session.ExpiresAt) {
		delete(r.sessions, id)
		return model.Session{}, repositories.ErrNotFound
	}
	return cloneSession(session), nil
}

func (r *SessionRepository) Save(_ context.Context, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.ExpiresAt = r.now().Add(r.ttl)
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *SessionRepository) Sweep(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, session := range r.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *SessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// cloneSession copies the slices so callers cannot mutate stored state.
func cloneSession(s model.Session) model.Session {
	if s.User != nil {
		user := *s.User
		s.User = &user
	}
	s.Backend = append([]model.StoredCookie(nil), s.Backend...)
	s.Flash.Messages = append(s.Flash.Messages[:0:0], s.Flash.Messages...)
	return s
}
