// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"taskdeck/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the generic cache client, also used for the per-user
// evaluation locks.
var CacheClient *redis.Client

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// AcquireEvalLock takes a short-lived lock so a sweep and a user-triggered
// run never evaluate the same user concurrently. Returns false when another
// evaluation holds the lock.
func AcquireEvalLock(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return GetCacheClient().SetNX(ctx, "notify:eval:"+userID, 1, ttl).Result()
}

// ReleaseEvalLock drops the evaluation lock early.
func ReleaseEvalLock(ctx context.Context, userID string) {
	GetCacheClient().Del(ctx, "notify:eval:"+userID)
}

// EvalLock is the redis-backed per-user evaluation lock injected into the
// rule engine.
type EvalLock struct{}

func (EvalLock) Acquire(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	return AcquireEvalLock(ctx, userID, ttl)
}

func (EvalLock) Release(ctx context.Context, userID string) {
	ReleaseEvalLock(ctx, userID)
}
