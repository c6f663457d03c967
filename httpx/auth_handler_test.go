package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-auth/credential"
	"github.com/KOMKZ/go-yogan-auth/health"
	"github.com/KOMKZ/go-yogan-auth/httpx"
	"github.com/KOMKZ/go-yogan-auth/logger"
	"github.com/KOMKZ/go-yogan-auth/middleware"
	"github.com/KOMKZ/go-yogan-auth/revocation"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/KOMKZ/go-yogan-auth/token"
	"github.com/KOMKZ/go-yogan-auth/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type server struct {
	engine *gin.Engine
	mr     *miniredis.Miniredis
	users  *user.GormDirectory
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := revocation.NewRedisStore(client, "auth:", logger.NewNopLogger())

	codec, err := token.NewCodec(token.Config{
		Issuer:   "yogan-auth",
		Audience: "yogan-clients",
		Access:   token.LifetimeConfig{Secret: "access-secret-0123456789abcdefghijkl", TTL: 15 * time.Minute},
		Refresh:  token.LifetimeConfig{Secret: "refresh-secret-0123456789abcdefghijk", TTL: 7 * 24 * time.Hour},
	})
	require.NoError(t, err)

	users := user.NewGormDirectory(db)
	sessions, err := session.NewManager(session.Config{}, users,
		credential.NewPasswordService(credential.DefaultPolicy(), bcrypt.MinCost), codec, store)
	require.NoError(t, err)

	aggregator := health.NewAggregator(time.Second)
	aggregator.Register(health.NewCheckerFunc("redis", store.Ping))

	engine := gin.New()
	engine.Use(httpx.ErrorLoggingMiddleware(httpx.ErrorLoggingConfig{}))
	httpx.NewAuthHandler(sessions, aggregator).RegisterRoutes(engine, middleware.Auth(sessions))
	engine.NoRoute(httpx.NoRouteHandler())

	return &server{engine: engine, mr: mr, users: users}
}

func (s *server) do(t *testing.T, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

var alice = map[string]string{
	"email":     "alice@example.com",
	"password":  "Wonderland#2024",
	"firstName": "Alice",
	"lastName":  "Liddell",
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", alice)
	require.Equal(t, http.StatusCreated, code, env.Msg)
	reg := decode[session.AuthResult](t, env.Data)
	assert.Equal(t, "alice@example.com", reg.User.Email)
	assert.NotContains(t, string(env.Data), "password")

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", alice)
	assert.Equal(t, http.StatusConflict, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "Wrong#Password1",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "invalid email or password", env.Msg)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": alice["password"],
	})
	require.Equal(t, http.StatusOK, code)
	login := decode[session.AuthResult](t, env.Data)

	code, env = s.do(t, http.MethodGet, "/api/v1/auth/profile", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	profile := decode[httpx.ProfileResponse](t, env.Data)
	assert.Equal(t, reg.User.ID, profile.UserID)

	code, env = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": login.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, code)
	rotated := decode[httpx.RefreshResponse](t, env.Data).Tokens

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": login.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/logout", rotated.AccessToken, map[string]string{"refreshToken": rotated.RefreshToken})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/profile", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestValidationAndPolicy(t *testing.T) {
	s := newServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "short", "firstName": "A", "lastName": "Liddell", "phone": "abc",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := decode[map[string]map[string]string](t, env.Data)["fields"]
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "phone")

	weak := map[string]string{"email": "bob@example.com", "password": "alllowercase", "firstName": "Bob", "lastName": "Builder"}
	code, env = s.do(t, http.MethodPost, "/api/v1/auth/register", "", weak)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Msg, "uppercase")

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeactivatedAccount(t *testing.T) {
	s := newServer(t)
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", alice)
	require.Equal(t, http.StatusCreated, code)
	reg := decode[session.AuthResult](t, env.Data)

	require.NoError(t, s.users.SetActive(context.Background(), reg.User.ID, false))
	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": alice["email"], "password": alice["password"],
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": reg.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestStoreOutageAndHealth(t *testing.T) {
	s := newServer(t)
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", alice)
	require.Equal(t, http.StatusCreated, code)
	reg := decode[session.AuthResult](t, env.Data)

	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/health", "", nil)
	assert.Equal(t, http.StatusOK, code)

	s.mr.Close()

	code, env = s.do(t, http.MethodGet, "/api/v1/auth/profile", reg.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.NotContains(t, env.Msg, "connection")

	code, _ = s.do(t, http.MethodGet, "/api/v1/auth/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHandleError_UnknownErrorIsGeneric(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		httpx.HandleError(c, errors.New("dial tcp 10.0.0.7:5432: password authentication failed"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.7")
	assert.Contains(t, w.Body.String(), "internal error")
}
