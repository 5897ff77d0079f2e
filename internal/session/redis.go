package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"task-board/backend/internal/security"
)

const defaultKeyPrefix = "taskboard:session:"

// KEYS[1] = entry key; ARGV[1] = token hash; ARGV[2] = issued-at unix millis; ARGV[3] = ttl millis.
const setActiveScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("HSET", KEYS[1], "token", ARGV[1], "issued_at", ARGV[2])
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return existed
`

var setActiveLua = redis.NewScript(setActiveScript)

// RedisRegistry is a Registry shared by every server process pointing at the same Redis.
// Each entry is a hash whose TTL equals the token lifetime.
type RedisRegistry struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	nowF   func() time.Time
}

// NewRedisRegistry returns a registry on rdb. ttl should be the token lifetime.
func NewRedisRegistry(rdb redis.UniversalClient, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = security.DefaultTokenTTL
	}
	return &RedisRegistry{rdb: rdb, prefix: defaultKeyPrefix, ttl: ttl, nowF: time.Now}
}

func (r *RedisRegistry) key(accountID string) string {
	return r.prefix + accountID
}

func (r *RedisRegistry) SetActive(ctx context.Context, accountID, token string) (bool, error) {
	existed, err := setActiveLua.Run(ctx, r.rdb,
		[]string{r.key(accountID)},
		security.HashToken(token),
		r.nowF().UTC().UnixMilli(),
		r.ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: set active: %v", ErrRegistryUnavailable, err)
	}
	return existed == 1, nil
}

func (r *RedisRegistry) Check(ctx context.Context, accountID, token string) (State, error) {
	stored, err := r.rdb.HGet(ctx, r.key(accountID), "token").Result()
	if errors.Is(err, redis.Nil) {
		return Absent, nil
	}
	if err != nil {
		return Absent, fmt.Errorf("%w: check: %v", ErrRegistryUnavailable, err)
	}
	return stateOf(true, token, stored), nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, accountID string) error {
	if err := r.rdb.Del(ctx, r.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: revoke: %v", ErrRegistryUnavailable, err)
	}
	return nil
}

// Ping checks connectivity; used at startup and by the health check.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	return nil
}
