package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"parley/internal/core/domain"
	"parley/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

// storedUser is the persistence shape. domain.User hides the password hash
// from JSON, but the store has to keep it.
type storedUser struct {
	ID           domain.UserID `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"password_hash"`
	CreatedAt    time.Time     `json:"created_at"`
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		prefix: "parley:user:",
	}
}

func (r *RedisUserRepository) userKey(id domain.UserID) string {
	return r.prefix + string(id)
}

func (r *RedisUserRepository) emailKey(email string) string {
	return r.prefix + "email:" + strings.ToLower(email)
}

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(storedUser{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	// The email index is the uniqueness guard: SETNX fails when the email is
	// already claimed.
	claimed, err := r.client.SetNX(ctx, r.emailKey(user.Email), string(user.ID), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim email index: %w", err)
	}
	if !claimed {
		return domain.ErrEmailInUse
	}

	if err := r.client.Set(ctx, r.userKey(user.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var stored storedUser
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &domain.User{
		ID:           stored.ID,
		Email:        stored.Email,
		PasswordHash: stored.PasswordHash,
		CreatedAt:    stored.CreatedAt,
	}, nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, r.emailKey(email)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email index from Redis: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}

func (r *RedisUserRepository) Delete(ctx context.Context, id domain.UserID) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.emailKey(user.Email), r.userKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete user from Redis: %w", err)
	}
	return nil
}
