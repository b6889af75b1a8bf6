package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"targetboard/internal/domain"
	"targetboard/internal/repository"
)

func newTestRepo(t *testing.T) repository.UserRepository {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewUserRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func newTestUser(username string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)
	assert.Equal(t, "alice", byID.Username)
	assert.Nil(t, byID.Target)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestUser("alice")))

	err := repo.Create(ctx, newTestUser("alice"))
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestGetNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateTargetReturnsUpdatedRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, repo.Create(ctx, user))

	updated, err := repo.UpdateTarget(ctx, user.ID, "Pass the exam")
	require.NoError(t, err)
	require.NotNil(t, updated.Target)
	assert.Equal(t, "Pass the exam", *updated.Target)
	assert.Equal(t, user.ID, updated.ID)
	assert.Equal(t, "alice", updated.Username)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	// the returned row matches a subsequent read
	fetched, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Target)
	assert.Equal(t, "Pass the exam", *fetched.Target)
}

func TestUpdateTargetUnknownUser(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.UpdateTarget(context.Background(), uuid.NewString(), "anything")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateTargetIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := newTestUser("alice")
	require.NoError(t, repo.Create(ctx, user))

	first, err := repo.UpdateTarget(ctx, user.ID, "Learn systems design")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := repo.UpdateTarget(ctx, user.ID, "Learn systems design")
	require.NoError(t, err)

	assert.Equal(t, *first.Target, *second.Target)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Username, second.Username)
}
