package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

type memoryEntry struct {
	value    string
	expireAt time.Time
}

// MemoryStore is a single-process backend for development and tests.
// Expired entries are invisible immediately and purged by a gocron job.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	scheduler gocron.Scheduler
	logger    *logger.CtxZapLogger
}

// NewMemoryStore starts a cleanup job every cleanupInterval; zero disables it
func NewMemoryStore(cleanupInterval time.Duration, log *logger.CtxZapLogger) (*MemoryStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		logger:  log,
	}
	if cleanupInterval <= 0 {
		return s, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(cleanupInterval),
		gocron.NewTask(s.purgeExpired),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	scheduler.Start()
	s.scheduler = scheduler
	return s, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expireAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	return e.value, ok, nil
}

func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

func (s *MemoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok || e.value != expected {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Len counts live entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for _, e := range s.entries {
		if now.Before(e.expireAt) {
			n++
		}
	}
	return n
}

// Close stops the cleanup job
func (s *MemoryStore) Close() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// lookup must be called with mu held
func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expireAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) purgeExpired() {
	s.mu.Lock()
	now := s.now()
	purged := 0
	for k, e := range s.entries {
		if !now.Before(e.expireAt) {
			delete(s.entries, k)
			purged++
		}
	}
	s.mu.Unlock()

	if purged > 0 {
		s.logger.Debug("purged expired revocation entries", zap.Int("count", purged))
	}
}

// Shutdown is called by the container on exit
func (s *MemoryStore) Shutdown() error {
	return s.Close()
}
