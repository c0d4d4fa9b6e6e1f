package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"codenest/internal/domain"
)

const (
	refreshTTL    = 7 * 24 * time.Hour
	refreshPrefix = "codenest:refresh:"
)

// TokenCache хранит выданные refresh-токены. В ключе только sha256 от токена,
// сам токен в Redis не попадает.
type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

func refreshKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshPrefix + hex.EncodeToString(sum[:])
}

func (c *TokenCache) SaveRefresh(ctx context.Context, userID string, refreshToken string) error {
	return c.client.Set(ctx, refreshKey(refreshToken), userID, refreshTTL).Err()
}

// ConsumeRefresh атомарно забирает токен (GETDEL): из двух параллельных
// ротаций одного токена успешна только одна.
func (c *TokenCache) ConsumeRefresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := c.client.GetDel(ctx, refreshKey(refreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrInvalidToken
	}
	return userID, err
}

// RevokeRefresh: повторный отзыв не ошибка
func (c *TokenCache) RevokeRefresh(ctx context.Context, refreshToken string) error {
	return c.client.Del(ctx, refreshKey(refreshToken)).Err()
}
