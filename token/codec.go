// Package token signs and verifies access and refresh tokens
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// Reason names the first check a token failed
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonMalformed Reason = "malformed"
	ReasonSignature Reason = "signature"
	ReasonIssuer    Reason = "issuer"
	ReasonAudience  Reason = "audience"
	ReasonExpired   Reason = "expired"
	ReasonType      Reason = "type"
)

// VerifyResult is the outcome of Verify. Claims is set only when Valid.
type VerifyResult struct {
	Valid   bool
	Expired bool
	Reason  Reason
	Claims  *Claims
}

// Pair is a freshly minted access and refresh token
type Pair struct {
	AccessToken      string
	RefreshToken     string
	RefreshID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Codec issues and verifies tokens. It is stateless and safe for concurrent use.
type Codec struct {
	cfg    Config
	method jwt.SigningMethod
	now    func() time.Time
}

// Option customises a Codec
type Option func(*Codec)

// WithClock replaces time.Now for issuing and verifying
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec validates cfg and returns a codec. Any missing secret, lifetime,
// issuer or audience is an ErrConfiguration.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{cfg: cfg, method: signingMethods[cfg.Algorithm], now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now is the codec's clock
func (c *Codec) Now() time.Time {
	return c.now()
}

// Lifetime returns the configured lifetime of t
func (c *Codec) Lifetime(t Type) time.Duration {
	return c.cfg.lifetime(t).TTL
}

// Issue signs a token of type t for subject
func (c *Codec) Issue(subject, email string, t Type) (string, error) {
	signed, _, err := c.issue(subject, email, t)
	return signed, err
}

// IssuePair signs a new access and refresh token for subject
func (c *Codec) IssuePair(subject, email string) (*Pair, error) {
	access, accessClaims, err := c.issue(subject, email, TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := c.issue(subject, email, TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshID:        refreshClaims.ID,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

func (c *Codec) issue(subject, email string, t Type) (string, *Claims, error) {
	if !t.Valid() {
		return "", nil, fmt.Errorf("issue token: unknown type %q", t)
	}
	if subject == "" {
		return "", nil, errors.New("issue token: empty subject")
	}

	lc := c.cfg.lifetime(t)
	now := c.now()
	claims := &Claims{
		Email: email,
		Type:  t,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lc.TTL)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString([]byte(lc.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", t, err)
	}
	return signed, claims, nil
}

// Verify checks signature (with the expected type's secret), issuer,
// audience, expiry and finally that the embedded type equals expected.
func (c *Codec) Verify(tokenString string, expected Type) VerifyResult {
	if !expected.Valid() {
		return VerifyResult{Reason: ReasonType}
	}

	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithAudience(c.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	secret := []byte(c.cfg.lifetime(expected).Secret)
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return VerifyResult{Reason: reasonOf(err), Expired: errors.Is(err, jwt.ErrTokenExpired)}
	}

	if claims.Type != expected {
		return VerifyResult{Reason: ReasonType}
	}
	return VerifyResult{Valid: true, Claims: claims}
}

// DecodeUnsafe parses claims without checking the signature. The result
// must only be used to size blacklist entries, never to authorise.
func (c *Codec) DecodeUnsafe(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// reasonOf maps a parser error to the first failed check. Signature is
// checked before claims, so a bad signature never reports expired. Claim
// failures are joined, so Expired is read from the error separately.
func reasonOf(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ReasonSignature
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ReasonIssuer
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ReasonAudience
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonMalformed
	}
}
