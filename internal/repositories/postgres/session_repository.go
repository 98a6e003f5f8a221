package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonebourse-go/internal/model"
	"zonebourse-go/internal/repositories"
)

const (
	getSessionSQL = `SELECT data FROM sessions WHERE id = $1 AND expires_at > now()`

	upsertSessionSQL = `
INSERT INTO sessions (id, data, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`

	deleteSessionSQL = `DELETE FROM sessions WHERE id = $1`

	sweepSessionsSQL = `DELETE FROM sessions WHERE expires_at <= now()`
)

type SessionRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewSessionRepository(pool *pgxpool.Pool, ttl time.Duration) *SessionRepository {
	return &SessionRepository{pool: pool, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (model.Session, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, getSessionSQL, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Session{}, repositories.ErrNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("select session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return model.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session model.Session) error {
	session.ExpiresAt = time.Now().Add(r.ttl)
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if _, err := r.pool.Exec(ctx, upsertSessionSQL, session.ID, raw, session.ExpiresAt); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Sweep(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, sweepSessionsSQL)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
