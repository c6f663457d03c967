package middleware

import (
	"context"
	"strings"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	"github.com/KOMKZ/go-yogan-auth/httpx"
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/gin-gonic/gin"
)

// Authenticator is the per-request access token check
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*session.Principal, error)
}

// Auth requires "Authorization: Bearer <access token>". A store outage is
// answered with 503, never let through.
func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			httpx.HandleError(c, errcode.ErrUnauthorized.WithMsg("access token is required"))
			return
		}

		p, err := authenticator.Authenticate(c.Request.Context(), tok)
		if err != nil {
			httpx.HandleError(c, err)
			return
		}
		httpx.SetPrincipal(c, p, tok)
		c.Next()
	}
}

// BearerToken extracts the token of a Bearer authorization header
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
