package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/KOMKZ/go-yogan-auth/audit"
	"github.com/KOMKZ/go-yogan-auth/health"
	"github.com/KOMKZ/go-yogan-auth/revocation"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/KOMKZ/go-yogan-auth/token"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `
logger:
  level: error
  enable_console: false
  enable_file: false
token:
  issuer: test-issuer
  audience: test-api
  access:
    secret: access-secret-0123456789abcdef0123
    ttl: 15m
  refresh:
    secret: refresh-secret-0123456789abcdef012
    ttl: 24h
credential:
  bcrypt_cost: 4
  login_attempt:
    enabled: true
    max_attempts: 3
database:
  auto_migrate: true
  connections:
    master:
      driver: sqlite
      dsn: "file:%s?mode=memory&cache=shared"
health:
  timeout: 1s
`

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(baseConfig, uuid.NewString()) + extra
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

func redisSection(mr *miniredis.Miniredis) string {
	return fmt.Sprintf(`
redis:
  instances:
    main:
      addrs: ["%s"]
revocation:
  storage: redis
  key_prefix: "auth:"
`, mr.Addr())
}

func newInjector(t *testing.T, dir string) *do.RootScope {
	t.Helper()
	injector := do.New()
	Register(injector, ConfigOptions{ConfigPath: dir})
	t.Cleanup(func() { injector.Shutdown() })
	return injector
}

func TestRegister_RedisBackedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	injector := newInjector(t, writeConfig(t, redisSection(mr)))

	store, err := do.Invoke[revocation.Store](injector)
	require.NoError(t, err)
	assert.IsType(t, &revocation.RedisStore{}, store)

	mgr, err := do.Invoke[*session.Manager](injector)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := mgr.Register(ctx, session.RegisterInput{Email: "a@example.com", Password: "Str0ng!Pass"})
	require.NoError(t, err)

	var found bool
	for _, k := range mr.Keys() {
		if k == "auth:refresh_"+res.User.ID {
			found = true
		}
	}
	assert.True(t, found, "refresh record should be stored under the configured prefix")

	p, err := mgr.Authenticate(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
}

func TestRegister_MemoryStoreWithoutRedis(t *testing.T) {
	injector := newInjector(t, writeConfig(t, "revocation:\n  storage: memory\n"))

	store, err := do.Invoke[revocation.Store](injector)
	require.NoError(t, err)
	assert.IsType(t, &revocation.MemoryStore{}, store)

	_, err = do.Invoke[*session.Manager](injector)
	require.NoError(t, err)

	agg, err := do.Invoke[*health.Aggregator](injector)
	require.NoError(t, err)
	resp := agg.Check(context.Background())
	assert.True(t, resp.IsHealthy())
	assert.Contains(t, resp.Checks, "database")
	assert.Contains(t, resp.Checks, "revocation")
	assert.NotContains(t, resp.Checks, "redis")
}

func TestProvideHealthAggregator_RedisDownAtStartup(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := writeConfig(t, redisSection(mr))
	mr.Close()
	injector := newInjector(t, dir)

	agg, err := do.Invoke[*health.Aggregator](injector)
	require.NoError(t, err)

	resp := agg.Check(context.Background())
	assert.False(t, resp.IsHealthy())
	require.Contains(t, resp.Checks, "redis")
	require.Contains(t, resp.Checks, "revocation")
	assert.Equal(t, health.StatusUnhealthy, resp.Checks["redis"].Status)
	assert.Equal(t, health.StatusUnhealthy, resp.Checks["revocation"].Status)
	assert.Equal(t, health.StatusHealthy, resp.Checks["database"].Status)
}

func TestProvideHealthAggregator_DatabaseMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("revocation:\n  storage: memory\n"), 0o644))
	injector := newInjector(t, dir)

	agg, err := do.Invoke[*health.Aggregator](injector)
	require.NoError(t, err)

	resp := agg.Check(context.Background())
	assert.False(t, resp.IsHealthy())
	require.Contains(t, resp.Checks, "database")
	assert.Contains(t, resp.Checks["database"].Error, "database unavailable")
}

func TestRegister_RedisStorageWithoutInstance(t *testing.T) {
	injector := newInjector(t, writeConfig(t, "revocation:\n  storage: redis\n"))

	_, err := do.Invoke[revocation.Store](injector)
	assert.ErrorContains(t, err, `redis instance "main" not found`)
}

func TestProvideTokenCodec_MissingSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
token:
  issuer: x
  audience: y
  access:
    ttl: 15m
  refresh:
    ttl: 1h
`), 0o644))
	injector := newInjector(t, dir)

	_, err := do.Invoke[*token.Codec](injector)
	assert.ErrorContains(t, err, "token.access.secret is required")
}

func TestProvideDatabaseManager_MasterRequired(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("database:\n  connections: {}\n"), 0o644))
	injector := newInjector(t, dir)

	_, err := do.Invoke[*session.Manager](injector)
	assert.Error(t, err)
}

func TestProvideAuditEmitter(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		injector := newInjector(t, writeConfig(t, ""))
		e, err := do.Invoke[audit.Emitter](injector)
		require.NoError(t, err)
		assert.IsType(t, audit.NopEmitter{}, e)
	})

	t.Run("log sink", func(t *testing.T) {
		injector := newInjector(t, writeConfig(t, "audit:\n  enabled: true\n  sink: log\n"))
		e, err := do.Invoke[audit.Emitter](injector)
		require.NoError(t, err)
		assert.IsType(t, &audit.Dispatcher{}, e)
	})
}
