package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/pins-charity/orderforms-backend/pkg/errors"
)

const (
	defaultLockTTL  = 10 * time.Second
	lockPollEvery   = 50 * time.Millisecond
	lockScopeSubmit = "submit"
)

// FormLocker serialises submissions per form. Release must be called once
// the submission is persisted.
type FormLocker interface {
	Lock(ctx context.Context, formID uuid.UUID) (release func(context.Context) error, err error)
}

// redisStore defines the operations used by RedisLocker.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(scope, id string) string
}

// RedisLocker implements FormLocker using Redis SETNX + TTL.
type RedisLocker struct {
	client redisStore
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker constructs a Redis-backed form lock. wait bounds how long a
// submission queues behind another one before giving up.
func NewRedisLocker(client redisStore, ttl, wait time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = ttl
	}
	return &RedisLocker{client: client, ttl: ttl, wait: wait}, nil
}

// Lock blocks until the form lock is owned, the wait elapses or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, formID uuid.UUID) (func(context.Context) error, error) {
	key := l.client.LockKey(lockScopeSubmit, formID.String())
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "acquire submit lock")
		}
		if ok {
			return func(ctx context.Context) error { return l.release(ctx, key, owner) }, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "this order form is busy; please try again")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollEvery):
		}
	}
}

// release frees the lock only if the owner value still matches.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
