package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonebourse-go/internal/db"
	"zonebourse-go/internal/model"
	"zonebourse-go/internal/repositories"
)

func newRepo(t *testing.T, ttl time.Duration) *SessionRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	root, err := filepath.Abs(filepath.Join("..", "..", ".."))
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(ctx, pool, root))

	return NewSessionRepository(pool, ttl)
}

func TestPostgresSessionRoundTrip(t *testing.T) {
	repo := newRepo(t, time.Hour)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { _ = repo.Delete(ctx, id) })

	session := model.Session{ID: id, User: &model.UserProfile{Prenom: "Awa"}}
	session.Flash.Success("ok")
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Awa", got.User.Prenom)
	assert.Equal(t, 1, got.Flash.Len())

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestPostgresSweepDropsExpired(t *testing.T) {
	repo := newRepo(t, -time.Second)
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(t, repo.Save(ctx, model.Session{ID: id}))
	_, err := repo.Get(ctx, id)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	removed, err := repo.Sweep(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, 1)
}
