package repositories

import (
	"context"
	"time"
)

// CacheRepositoryInterface — ключ-значение с TTL. Отсутствующий ключ
// возвращает apperrors.ErrNotFound.
type CacheRepositoryInterface interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}
