package memory

import (
	"context"
	"testing"
	"time"

	"parley/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(id, email string) *domain.User {
	return &domain.User{
		ID:           domain.UserID(id),
		Email:        email,
		PasswordHash: "hash.salt",
		CreatedAt:    time.Now(),
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "a@test.dev")))

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@test.dev", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "a@test.dev")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), byEmail.ID)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "a@test.dev")))

	err := repo.Create(ctx, testUser("u2", "A@TEST.DEV"))
	assert.ErrorIs(t, err, domain.ErrEmailInUse)
}

func TestGetByEmailIsCaseInsensitive(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "Mixed@Test.dev")))

	found, err := repo.GetByEmail(ctx, "mixed@test.dev")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), found.ID)
}

func TestGetMissingUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "nope@test.dev")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteRemovesBothIndexes(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "a@test.dev")))
	require.NoError(t, repo.Delete(ctx, "u1"))

	_, err := repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// The email is free again after deletion.
	require.NoError(t, repo.Create(ctx, testUser("u2", "a@test.dev")))
}

func TestReturnedUsersAreCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "a@test.dev")))

	first, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	first.Email = "mutated@test.dev"

	second, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a@test.dev", second.Email)
}
