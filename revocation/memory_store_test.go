package revocation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestMemoryStore(t *testing.T) (*MemoryStore, *fakeClock) {
	s, err := NewMemoryStore(0, nil)
	require.NoError(t, err)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s.now = clock.Now
	return s, clock
}

func TestMemoryStore_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore(t)

	require.NoError(t, s.Set(ctx, "refresh_u1", "tok-1", time.Minute))
	v, found, err := s.Get(ctx, "refresh_u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok-1", v)

	clock.Advance(time.Minute)
	_, found, err = s.Get(ctx, "refresh_u1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DelAndExists(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMemoryStore(t)

	require.NoError(t, s.Set(ctx, "blacklist_t", "1", time.Hour))
	ok, err := s.Exists(ctx, "blacklist_t")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Del(ctx, "blacklist_t"))
	require.NoError(t, s.Del(ctx, "blacklist_t"))
	ok, err = s.Exists(ctx, "blacklist_t")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Ping(ctx))
	assert.ErrorIs(t, s.Set(ctx, "k", "v", -time.Second), ErrInvalidTTL)
}

func TestMemoryStore_CompareAndDelete(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestMemoryStore(t)
	require.NoError(t, s.Set(ctx, "refresh_u1", "tok-1", time.Minute))

	ok, err := s.CompareAndDelete(ctx, "refresh_u1", "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.CompareAndDelete(ctx, "refresh_u1", "tok-1"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)

	require.NoError(t, s.Set(ctx, "refresh_u2", "tok-2", time.Minute))
	clock.Advance(2 * time.Minute)
	ok, err = s.CompareAndDelete(ctx, "refresh_u2", "tok-2")
	require.NoError(t, err)
	assert.False(t, ok, "expired records cannot be claimed")
}

func TestMemoryStore_CleanupJob(t *testing.T) {
	s, err := NewMemoryStore(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "blacklist_t", "1", 10*time.Millisecond))
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.entries) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, "redis", cfg.Storage)
	assert.NoError(t, cfg.Validate())

	cfg.Storage = "etcd"
	assert.Error(t, cfg.Validate())
}
