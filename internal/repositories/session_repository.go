package repositories

import (
	"context"
	"errors"

	"zonebourse-go/internal/model"
)

var ErrNotFound = errors.New("record not found")

// SessionRepository persists sessions. Get returns ErrNotFound for unknown
// or expired ids.
type SessionRepository interface {
	Get(ctx context.Context, id string) (model.Session, error)
	Save(ctx context.Context, session model.Session) error
	Delete(ctx context.Context, id string) error
	// Sweep removes expired sessions and reports how many were dropped.
	Sweep(ctx context.Context) (int, error)
}
