package httpx

import (
	"github.com/KOMKZ/go-yogan-auth/session"
	"github.com/gin-gonic/gin"
)

const (
	principalKey   = "auth:principal"
	accessTokenKey = "auth:access_token"
)

// SetPrincipal is called by the auth middleware once a token is accepted
func SetPrincipal(c *gin.Context, p *session.Principal, accessToken string) {
	c.Set(principalKey, p)
	c.Set(accessTokenKey, accessToken)
}

func CurrentPrincipal(c *gin.Context) (*session.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*session.Principal)
	return p, ok
}

// CurrentAccessToken is the bearer token the principal was derived from
func CurrentAccessToken(c *gin.Context) string {
	return c.GetString(accessTokenKey)
}
