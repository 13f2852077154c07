package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"firdesk/internal/database"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisUnitPrefix = "firdesk:unit:"
	redisLockPrefix = "firdesk:lock:"
)

// RedisUnit stores a collection as a single Redis string key
type RedisUnit struct {
	client *redis.Client
	name   string
}

// NewRedisUnit creates a Redis-backed unit
func NewRedisUnit(client *redis.Client, name string) *RedisUnit {
	return &RedisUnit{client: client, name: name}
}

// Name returns the unit name
func (u *RedisUnit) Name() string {
	return u.name
}

func (u *RedisUnit) key() string {
	return redisUnitPrefix + u.name
}

// Exists reports whether the key is present
func (u *RedisUnit) Exists(ctx context.Context) (bool, error) {
	n, err := u.client.Exists(ctx, u.key()).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Read returns the key's value, or nil when the key is absent
func (u *RedisUnit) Read(ctx context.Context) ([]byte, error) {
	data, err := u.client.Get(ctx, u.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Write replaces the key's value
func (u *RedisUnit) Write(ctx context.Context, data []byte) error {
	return u.client.Set(ctx, u.key(), data, 0).Err()
}

// RedisLocker serializes mutations across processes with a SET NX lock
type RedisLocker struct {
	redis   *database.RedisService
	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

// NewRedisLocker creates a locker. Locks expire after ttl so a crashed holder
// cannot block writers forever.
func NewRedisLocker(redisService *database.RedisService, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		redis:   redisService,
		ttl:     ttl,
		wait:    5 * time.Second,
		backoff: 25 * time.Millisecond,
	}
}

// Lock blocks until the lock for key is acquired or the wait budget runs out
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := redisLockPrefix + key
	token := uuid.New().String()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redis.AcquireLock(ctx, lockKey, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timed out waiting for lock %s", lockKey)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.backoff):
		}
	}

	unlock := func() {
		// Release on a fresh context so an expiring request cannot leak the lock
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := l.redis.ReleaseLock(releaseCtx, lockKey, token); err != nil {
			log.Printf("⚠️  [STORE] Failed to release lock %s: %v", lockKey, err)
		}
	}
	return unlock, nil
}
