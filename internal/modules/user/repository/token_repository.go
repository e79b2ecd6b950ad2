package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository remembers revoked access tokens by their jti until they would have expired.
// Without redis, revocation is a no-op and tokens stay valid until expiry.
type TokenRepository interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisTokenRepository struct {
	rdb *redis.Client
}

func NewTokenRepository(rdb *redis.Client) TokenRepository {
	return &redisTokenRepository{rdb: rdb}
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked_token:%s", jti)
}

func (r *redisTokenRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r.rdb == nil || ttl <= 0 {
		return nil
	}
	return r.rdb.SetEx(ctx, revokedKey(jti), "1", ttl).Err()
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r.rdb == nil {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
