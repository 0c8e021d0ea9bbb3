package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LockKey is the Redis key guarding the cron worker.
const LockKey = "fieldops:cron:lock"

const defaultLockTTL = 10 * time.Minute

// ErrLockLost is returned by Refresh when another instance now owns the lock.
var ErrLockLost = errors.New("cron lock lost")

// Lock serialises cron cycles across worker instances.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ExtendIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
}

// RedisLock holds key with a random token for ttl. Refresh and Release only
// act while the token is still the stored value.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration

	mu    sync.Mutex
	token string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Refresh pushes the expiry out by another ttl.
func (l *RedisLock) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token == "" {
		return ErrLockLost
	}
	ok, err := l.store.ExtendIfValue(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", l.key, err)
	}
	if !ok {
		l.token = ""
		return ErrLockLost
	}
	return nil
}

// Release is a no-op when the lock expired or was never held.
func (l *RedisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if _, err := l.store.DeleteIfValue(ctx, l.key, token); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
