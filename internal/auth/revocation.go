package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// Revocations records signed-out token ids until the token would have expired.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type MemoryRevocations struct {
	mu    sync.Mutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryRevocations(now func() time.Time) *MemoryRevocations {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocations{items: make(map[string]time.Time), now: now}
}

func (r *MemoryRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, exp := range r.items {
		if !now.Before(exp) {
			delete(r.items, id)
		}
	}
	if now.Before(until) {
		r.items[tokenID] = until
	}
	return nil
}

func (r *MemoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.items[tokenID]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.items, tokenID)
		return false, nil
	}
	return true, nil
}

type RedisRevocations struct {
	client redis.Cmdable
}

func NewRedisRevocations(client redis.Cmdable) *RedisRevocations {
	return &RedisRevocations{client: client}
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return n > 0, nil
}

var (
	_ Revocations = (*MemoryRevocations)(nil)
	_ Revocations = (*RedisRevocations)(nil)
)
