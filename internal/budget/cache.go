package budget

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"homni_backend/internal/budget/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// AccountCache stores raw budget rows. Derived status is never cached.
type AccountCache interface {
	Get(ctx context.Context, companyID uuid.UUID) (repository.Account, bool, error)
	Set(ctx context.Context, account repository.Account) error
	Delete(ctx context.Context, companyID uuid.UUID) error
}

const cacheKeyPrefix = "homni:budget:"

// RedisCache keeps accounts in Redis with a short TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(companyID uuid.UUID) string {
	return cacheKeyPrefix + companyID.String()
}

func (c *RedisCache) Get(ctx context.Context, companyID uuid.UUID) (repository.Account, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(companyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.Account{}, false, nil
	}
	if err != nil {
		return repository.Account{}, false, err
	}

	var account repository.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return repository.Account{}, false, err
	}
	return account, true, nil
}

func (c *RedisCache) Set(ctx context.Context, account repository.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(account.CompanyID), raw, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, companyID uuid.UUID) error {
	return c.client.Del(ctx, cacheKey(companyID)).Err()
}

// noopCache is used when Redis is not configured.
type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (repository.Account, bool, error) {
	return repository.Account{}, false, nil
}
func (noopCache) Set(context.Context, repository.Account) error { return nil }
func (noopCache) Delete(context.Context, uuid.UUID) error       { return nil }
