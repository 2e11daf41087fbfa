package repository

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/apps/otp/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:"

// retentionSlack keeps a key around a little past the window so that a late
// Consume still reports Expired instead of NotFound
const retentionSlack = time.Minute

// consumeScript returns 0 not found, 1 success, 2 expired, 3 mismatch.
// ARGV: code, now (unix ms), window (ms).
var consumeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'code', 'issued_at')
if not v[1] then
	return 0
end
if tonumber(ARGV[2]) - tonumber(v[2]) > tonumber(ARGV[3]) then
	redis.call('DEL', KEYS[1])
	return 2
end
if v[1] == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 3
`)

// redisStore keeps entries in redis hashes keyed by identifier
type redisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Store backed by redis
func NewRedisStore(client redis.UniversalClient) Store {
	return &redisStore{client: client}
}

// ConnectRedis opens a redis client and verifies it with PING
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func key(identifier string) string {
	return keyPrefix + identifier
}

// Put overwrites the identifier's hash and refreshes its expiry
func (s *redisStore) Put(ctx context.Context, entry models.Entry, ttl time.Duration) error {
	k := key(entry.Identifier)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, "code", entry.Code, "issued_at", entry.IssuedAt.UnixMilli())
		pipe.PExpire(ctx, k, ttl+retentionSlack)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Consume evaluates the check-and-delete script atomically on the server
func (s *redisStore) Consume(ctx context.Context, identifier, code string, now time.Time, window time.Duration) (models.Outcome, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{key(identifier)}, code, now.UnixMilli(), window.Milliseconds()).Int()
	if err != nil {
		return models.OutcomeNotFound, fmt.Errorf("consume otp: %w", err)
	}

	switch res {
	case 1:
		return models.OutcomeSuccess, nil
	case 2:
		return models.OutcomeExpired, nil
	case 3:
		return models.OutcomeMismatch, nil
	default:
		return models.OutcomeNotFound, nil
	}
}

// Sweep is a no-op; redis expires keys on its own
func (s *redisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
