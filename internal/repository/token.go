package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository interface {
	Save(ctx context.Context, token string) error
	Exists(ctx context.Context, token string) (bool, error)
	DeleteByID(ctx context.Context, token string) error
}

type dbToken struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenRepository(client *redis.Client, ttl time.Duration) TokenRepository {
	return &dbToken{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbToken) Save(ctx context.Context, token string) error {
	tokenKey := "token:" + token

	err := that.client.Set(ctx, tokenKey, "1", that.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set token: %w", err)
	}

	return nil
}

func (that *dbToken) Exists(ctx context.Context, token string) (bool, error) {
	tokenKey := "token:" + token

	count, err := that.client.Exists(ctx, tokenKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}

	return count > 0, nil
}

func (that *dbToken) DeleteByID(ctx context.Context, token string) error {
	tokenKey := "token:" + token

	err := that.client.Del(ctx, tokenKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}
