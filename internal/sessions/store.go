package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisStore defines the operations used by Store.
type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PendingOrderKey(sessionID, formID string) string
}

// Store remembers, per browser session and form, the reference of the order
// the buyer placed last so a resubmission edits it.
type Store struct {
	client redisStore
	ttl    time.Duration
}

func NewStore(client redisStore, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client required for sessions")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Store{client: client, ttl: ttl}, nil
}

// NewID returns a fresh opaque session id.
func NewID() string {
	return uuid.NewString()
}

// PendingReference returns the remembered reference or "" when none is set.
func (s *Store) PendingReference(ctx context.Context, sessionID string, formID uuid.UUID) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	ref, err := s.client.Get(ctx, s.client.PendingOrderKey(sessionID, formID.String()))
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read pending order: %w", err)
	}
	return ref, nil
}

// Remember stores reference for the session and form, refreshing the TTL.
func (s *Store) Remember(ctx context.Context, sessionID string, formID uuid.UUID, reference string) error {
	if sessionID == "" || reference == "" {
		return nil
	}
	if err := s.client.Set(ctx, s.client.PendingOrderKey(sessionID, formID.String()), reference, s.ttl); err != nil {
		return fmt.Errorf("store pending order: %w", err)
	}
	return nil
}

// Forget drops the remembered reference, e.g. once it has been paid.
func (s *Store) Forget(ctx context.Context, sessionID string, formID uuid.UUID) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.client.PendingOrderKey(sessionID, formID.String())); err != nil {
		return fmt.Errorf("clear pending order: %w", err)
	}
	return nil
}
