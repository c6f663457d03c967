package credential

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAttemptStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisAttemptStore(client, "login_attempt_")
	n, err := s.GetAttempts(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.IncrementAttempts(ctx, "Alice@Example.com", time.Minute))
	require.NoError(t, s.IncrementAttempts(ctx, "alice@example.com", time.Minute))
	n, err = s.GetAttempts(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Minute, mr.TTL("login_attempt_alice@example.com"))

	require.NoError(t, s.ResetAttempts(ctx, "alice@example.com"))
	n, err = s.GetAttempts(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAttemptLimiter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttemptStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }

	l := NewAttemptLimiter(store, LoginAttemptConfig{Enabled: true, MaxAttempts: 3, LockoutDuration: time.Minute})
	for i := 0; i < 3; i++ {
		locked, err := l.Locked(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.False(t, locked)
		require.NoError(t, l.Failed(ctx, "alice@example.com"))
	}

	locked, err := l.Locked(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, locked)

	now = now.Add(2 * time.Minute)
	locked, err = l.Locked(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, locked, "lock lapses with the window")

	require.NoError(t, l.Failed(ctx, "alice@example.com"))
	require.NoError(t, l.Succeeded(ctx, "alice@example.com"))
	n, _ := store.GetAttempts(ctx, "alice@example.com")
	assert.Equal(t, 0, n)
}
