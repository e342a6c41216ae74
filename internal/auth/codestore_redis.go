package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeKeyPrefix = "otp:"

// RedisCodeStore keeps each pending code in a hash that expires with the code.
type RedisCodeStore struct {
	client redis.Cmdable
}

func NewRedisCodeStore(client redis.Cmdable) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Put(ctx context.Context, mobile string, hash []byte, ttl time.Duration) error {
	key := codeKeyPrefix + mobile
	expiresAt := time.Now().Add(ttl).UTC()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"hash", string(hash),
			"expires_at", expiresAt.Format(time.RFC3339Nano),
			"attempts", 0,
		)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, mobile string) (CodeEntry, error) {
	values, err := s.client.HGetAll(ctx, codeKeyPrefix+mobile).Result()
	if err != nil {
		return CodeEntry{}, fmt.Errorf("load code: %w", err)
	}
	if len(values) == 0 || values["hash"] == "" {
		return CodeEntry{}, errNoCode
	}
	entry := CodeEntry{Hash: []byte(values["hash"])}
	if raw := values["expires_at"]; raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.ExpiresAt = t
		}
	}
	if raw := values["attempts"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			entry.Attempts = n
		}
	}
	return entry, nil
}

// incrementAttemptsScript bumps the counter only while the code exists, so a
// guess racing a delete never recreates the key without its TTL.
var incrementAttemptsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return -1
end
return redis.call("HINCRBY", KEYS[1], "attempts", 1)
`)

func (s *RedisCodeStore) IncrementAttempts(ctx context.Context, mobile string) (int, error) {
	n, err := incrementAttemptsScript.Run(ctx, s.client, []string{codeKeyPrefix + mobile}).Int()
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	if n < 0 {
		return 0, errNoCode
	}
	return n, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, mobile string) error {
	if err := s.client.Del(ctx, codeKeyPrefix+mobile).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}

var _ CodeStore = (*RedisCodeStore)(nil)
