package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenSection struct {
	Issuer string `mapstructure:"issuer"`
	Access struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"access"`
}

type sessionSection struct {
	SingleSession bool `mapstructure:"single_session"`
}

type testConfig struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Token   tokenSection   `mapstructure:"token"`
	Session sessionSection `mapstructure:"session"`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_FilePriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
server:
  addr: ":8080"
token:
  issuer: auth-service
  access:
    ttl: 15m
`)
	writeFile(t, dir, "test.yaml", `
server:
  addr: ":9090"
`)

	l := NewLoader()
	l.AddSource(NewFileSource(filepath.Join(dir, "test.yaml"), 20))
	l.AddSource(NewFileSource(filepath.Join(dir, "config.yaml"), 10))
	l.AddSource(NewFileSource(filepath.Join(dir, "missing.yaml"), 30))
	require.NoError(t, l.Load())

	var cfg testConfig
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "auth-service", cfg.Token.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.Token.Access.TTL)
	assert.Len(t, l.GetLoadedFiles(), 2)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
token:
  access:
    secret: from-file
session:
  single_session: true
`)
	t.Setenv("AUTHTEST_TOKEN_ACCESS_SECRET", "from-env")
	t.Setenv("AUTHTEST_SESSION_SINGLE_SESSION", "false")

	env := NewEnvSource("AUTHTEST", 50)
	env.Bind("session.single_session")

	l := NewLoader()
	l.AddSource(NewFileSource(filepath.Join(dir, "config.yaml"), 10))
	l.AddSource(env)
	require.NoError(t, l.Load())

	var cfg testConfig
	require.NoError(t, l.Unmarshal(&cfg))
	assert.Equal(t, "from-env", cfg.Token.Access.Secret)
	assert.False(t, cfg.Session.SingleSession)
	assert.False(t, l.IsSet("session.single.session"), "bound keys must not also be scanned")
}

func TestFlagSource(t *testing.T) {
	type flags struct {
		Addr    string `config:"server.addr"`
		Verbose bool   `config:"logger.debug"`
		Ignored string
	}

	l := NewLoader()
	l.AddSource(NewFlagSource(&flags{Addr: ":7070", Ignored: "x"}, 100))
	require.NoError(t, l.Load())

	assert.Equal(t, ":7070", l.GetString("server.addr"))
	assert.False(t, l.IsSet("logger.debug"))
}

func TestFlagSource_RejectsNonStruct(t *testing.T) {
	_, err := NewFlagSource(42, 100).Load()
	assert.Error(t, err)
}

func TestLoaderBuilder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", "server:\n  addr: \":8080\"\n")
	writeFile(t, dir, "staging.yaml", "server:\n  addr: \":8181\"\n")
	t.Setenv("APP_ENV", "staging")

	l, err := NewLoaderBuilder().WithConfigPath(dir).Build()
	require.NoError(t, err)
	assert.Equal(t, ":8181", l.GetString("server.addr"))
}

func TestUnflatten(t *testing.T) {
	out := unflatten(map[string]interface{}{"a.b.c": 1, "a.d": "x"})
	a := out["a"].(map[string]interface{})
	assert.Equal(t, "x", a["d"])
	assert.Equal(t, 1, a["b"].(map[string]interface{})["c"])
}
