package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	"github.com/KOMKZ/go-yogan-auth/health"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/gin-gonic/gin"
)

// SessionService is the part of session.Manager the routes call
type SessionService interface {
	Register(ctx context.Context, in session.RegisterInput) (*session.AuthResult, error)
	Login(ctx context.Context, email, password string) (*session.AuthResult, error)
	RefreshSubject(refreshToken string) (string, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*session.TokenPair, error)
	Logout(ctx context.Context, userID, accessToken, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*session.Principal, error)
}

type RefreshResponse struct {
	Tokens *session.TokenPair `json:"tokens"`
}

type ProfileResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// AuthHandler serves /api/v1/auth
type AuthHandler struct {
	sessions  SessionService
	health    *health.Aggregator
	startedAt time.Time
}

func NewAuthHandler(sessions SessionService, aggregator *health.Aggregator) *AuthHandler {
	return &AuthHandler{sessions: sessions, health: aggregator, startedAt: time.Now()}
}

// RegisterRoutes mounts the auth group. auth guards the protected routes.
func (h *AuthHandler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	g := r.Group("/api/v1/auth")
	g.POST("/register", WrapStatus(http.StatusCreated, h.Register))
	g.POST("/login", Wrap(h.Login))
	g.POST("/refresh", Wrap(h.Refresh))
	g.POST("/logout", auth, Wrap(h.Logout))
	g.GET("/profile", auth, Wrap(h.Profile))
	g.GET("/health", h.Health)
}

func (h *AuthHandler) Register(c *gin.Context, req *RegisterRequest) (*session.AuthResult, error) {
	return h.sessions.Register(c.Request.Context(), session.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     req.Phone,
	})
}

func (h *AuthHandler) Login(c *gin.Context, req *LoginRequest) (*session.AuthResult, error) {
	return h.sessions.Login(c.Request.Context(), req.Email, req.Password)
}

func (h *AuthHandler) Refresh(c *gin.Context, req *RefreshRequest) (*RefreshResponse, error) {
	userID, err := h.sessions.RefreshSubject(req.RefreshToken)
	if err != nil {
		return nil, err
	}
	pair, err := h.sessions.Refresh(c.Request.Context(), userID, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{Tokens: pair}, nil
}

func (h *AuthHandler) Logout(c *gin.Context, req *LogoutRequest) (*EmptyRequest, error) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		return nil, errcode.ErrUnauthorized
	}
	if err := h.sessions.Logout(c.Request.Context(), p.UserID, CurrentAccessToken(c), req.RefreshToken); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *AuthHandler) Profile(c *gin.Context, _ *EmptyRequest) (*ProfileResponse, error) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		return nil, errcode.ErrUnauthorized
	}
	return &ProfileResponse{UserID: p.UserID, Email: p.Email}, nil
}

// Health reports 200 when every dependency answers, 503 otherwise
func (h *AuthHandler) Health(c *gin.Context) {
	resp := h.health.Check(c.Request.Context())
	if resp.Metadata == nil {
		resp.Metadata = map[string]interface{}{}
	}
	resp.Metadata["uptime_seconds"] = int64(time.Since(h.startedAt).Seconds())

	status := http.StatusOK
	if !resp.IsHealthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, Response{Code: 0, Msg: string(resp.Status), Data: resp})
}
