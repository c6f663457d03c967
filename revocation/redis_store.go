package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KEYS[1] = record key, ARGV[1] = expected value
const compareAndDeleteScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var compareAndDeleteLua = redis.NewScript(compareAndDeleteScript)

// RedisStore is the production backend
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *logger.CtxZapLogger
}

func NewRedisStore(client redis.UniversalClient, keyPrefix string, log *logger.CtxZapLogger) *RedisStore {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, logger: log}
}

// Client is the underlying connection, shared with the login limiter
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

func (s *RedisStore) key(k string) string {
	return s.keyPrefix + k
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return s.fail(ctx, "set", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail(ctx, "get", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, s.fail(ctx, "exists", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return s.fail(ctx, "del", key, err)
	}
	return nil
}

func (s *RedisStore) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	n, err := compareAndDeleteLua.Run(ctx, s.client, []string{s.key(key)}, expected).Int64()
	if err != nil {
		return false, s.fail(ctx, "compare_and_delete", key, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.fail(ctx, "ping", "", err)
	}
	return nil
}

func (s *RedisStore) fail(ctx context.Context, op, key string, err error) error {
	s.logger.ErrorCtx(ctx, "revocation store operation failed",
		zap.String("op", op),
		zap.String("key", logger.TokenPrefix(key)),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
