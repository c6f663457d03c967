package credential

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore counts failed logins per email
type AttemptStore interface {
	GetAttempts(ctx context.Context, email string) (int, error)
	IncrementAttempts(ctx context.Context, email string, ttl time.Duration) error
	ResetAttempts(ctx context.Context, email string) error
}

// RedisAttemptStore keeps counters as INCR keys with an expiry
type RedisAttemptStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisAttemptStore(client redis.UniversalClient, prefix string) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, prefix: prefix}
}

func (s *RedisAttemptStore) key(email string) string {
	return s.prefix + strings.ToLower(email)
}

func (s *RedisAttemptStore) GetAttempts(ctx context.Context, email string) (int, error) {
	val, err := s.client.Get(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get login attempts: %w", err)
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse login attempts: %w", err)
	}
	return n, nil
}

func (s *RedisAttemptStore) IncrementAttempts(ctx context.Context, email string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, s.key(email))
	pipe.Expire(ctx, s.key(email), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment login attempts: %w", err)
	}
	return nil
}

func (s *RedisAttemptStore) ResetAttempts(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("reset login attempts: %w", err)
	}
	return nil
}

// MemoryAttemptStore is the single-process variant
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]attemptRecord
	now      func() time.Time
}

type attemptRecord struct {
	count     int
	expiresAt time.Time
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]attemptRecord), now: time.Now}
}

func (s *MemoryAttemptStore) GetAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.attempts[strings.ToLower(email)]
	if !ok || !s.now().Before(r.expiresAt) {
		return 0, nil
	}
	return r.count, nil
}

func (s *MemoryAttemptStore) IncrementAttempts(_ context.Context, email string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	now := s.now()
	r, ok := s.attempts[key]
	if !ok || !now.Before(r.expiresAt) {
		r = attemptRecord{}
	}
	r.count++
	r.expiresAt = now.Add(ttl)
	s.attempts[key] = r
	return nil
}

func (s *MemoryAttemptStore) ResetAttempts(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.attempts, strings.ToLower(email))
	s.mu.Unlock()
	return nil
}

// AttemptLimiter applies LoginAttemptConfig on top of an AttemptStore
type AttemptLimiter struct {
	store AttemptStore
	cfg   LoginAttemptConfig
}

func NewAttemptLimiter(store AttemptStore, cfg LoginAttemptConfig) *AttemptLimiter {
	return &AttemptLimiter{store: store, cfg: cfg}
}

// Locked reports whether email reached the failure limit
func (l *AttemptLimiter) Locked(ctx context.Context, email string) (bool, error) {
	n, err := l.store.GetAttempts(ctx, email)
	if err != nil {
		return false, err
	}
	return n >= l.cfg.MaxAttempts, nil
}

// Failed records one failure; the window restarts with each failure
func (l *AttemptLimiter) Failed(ctx context.Context, email string) error {
	return l.store.IncrementAttempts(ctx, email, l.cfg.LockoutDuration)
}

// Succeeded clears the counter
func (l *AttemptLimiter) Succeeded(ctx context.Context, email string) error {
	return l.store.ResetAttempts(ctx, email)
}
