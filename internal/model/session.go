package model

import (
	"time"

	"zonebourse-go/internal/flash"
)

// Session is the server-side state behind the zb_session cookie.
type Session struct {
	ID        string         `json:"id"`
	User      *UserProfile   `json:"user,omitempty"`
	Backend   []StoredCookie `json:"backend,omitempty"`
	Flash     flash.Board    `json:"flash"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// StoredCookie is a backend cookie replayed on API calls for this session.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Session) LoggedIn() bool {
	return s.User != nil
}

func (s *Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// SignOut drops the cached user and backend cookies but keeps pending flashes.
func (s *Session) SignOut() {
	s.User = nil
	s.Backend = nil
}
