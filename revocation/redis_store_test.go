package revocation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "auth:", logger.NewNopLogger()), mr
}

func TestRedisStore_SetGetDel(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	_, found, err := s.Get(ctx, "refresh_u1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "refresh_u1", "tok-1", time.Hour))
	assert.True(t, mr.Exists("auth:refresh_u1"))
	assert.Equal(t, time.Hour, mr.TTL("auth:refresh_u1"))

	v, found, err := s.Get(ctx, "refresh_u1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok-1", v)

	ok, err := s.Exists(ctx, "refresh_u1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Del(ctx, "refresh_u1"))
	require.NoError(t, s.Del(ctx, "refresh_u1"), "deleting an absent key is harmless")
	assert.False(t, mr.Exists("auth:refresh_u1"))
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)

	require.NoError(t, s.Set(ctx, "blacklist_x", "1", 15*time.Minute))
	mr.FastForward(16 * time.Minute)

	ok, err := s.Exists(ctx, "blacklist_x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_RejectsNonPositiveTTL(t *testing.T) {
	s, _ := newTestRedisStore(t)
	assert.ErrorIs(t, s.Set(context.Background(), "k", "v", 0), ErrInvalidTTL)
}

func TestRedisStore_CompareAndDelete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	require.NoError(t, s.Set(ctx, "refresh_u1", "tok-1", time.Hour))

	deleted, err := s.CompareAndDelete(ctx, "refresh_u1", "tok-other")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, mr.Exists("auth:refresh_u1"))

	deleted, err = s.CompareAndDelete(ctx, "refresh_u1", "tok-1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists("auth:refresh_u1"))

	deleted, err = s.CompareAndDelete(ctx, "refresh_u1", "tok-1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRedisStore_CompareAndDelete_SingleWinner(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedisStore(t)
	require.NoError(t, s.Set(ctx, "refresh_u1", "tok-1", time.Hour))

	const workers = 16
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := s.CompareAndDelete(ctx, "refresh_u1", "tok-1")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestRedisStore_FailsClosed(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	mr.Close()

	_, _, err := s.Get(ctx, "refresh_u1")
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = s.Exists(ctx, "blacklist_x")
	assert.True(t, errors.Is(err, ErrUnavailable))

	assert.True(t, errors.Is(s.Set(ctx, "k", "v", time.Minute), ErrUnavailable))
	assert.True(t, errors.Is(s.Del(ctx, "k"), ErrUnavailable))
	assert.True(t, errors.Is(s.Ping(ctx), ErrUnavailable))

	_, err = s.CompareAndDelete(ctx, "k", "v")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestRedisStore_ServerError(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisStore(t)
	mr.SetError("LOADING server is loading")
	defer mr.SetError("")

	_, _, err := s.Get(ctx, "refresh_u1")
	assert.ErrorIs(t, err, ErrUnavailable)
}
