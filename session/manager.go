package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-auth/audit"
	"github.com/KOMKZ/go-yogan-auth/revocation"
	"github.com/KOMKZ/go-yogan-auth/token"
	"github.com/KOMKZ/go-yogan-auth/user"
	"golang.org/x/sync/errgroup"
)

// Rejection reasons carried on audit events only
const (
	reasonUnknownEmail   = "unknown_email"
	reasonBadPassword    = "bad_password"
	reasonDeactivated    = "deactivated"
	reasonLocked         = "locked"
	reasonSubject        = "subject_mismatch"
	reasonBlacklisted    = "blacklisted"
	reasonUnknownUser    = "unknown_user"
	reasonNotCurrent     = "not_current"
	resultOK             = "ok"
	resultRejected       = "rejected"
	resultStoreFailure   = "store_error"
	blacklistMarkerValue = "1"
)

// Manager runs the session state machine. It holds no mutable state of its
// own; all session state lives in the revocation store. It never logs:
// outcomes are returned and diagnostics go to the audit emitter.
type Manager struct {
	cfg     Config
	users   UserDirectory
	creds   CredentialVerifier
	codec   *token.Codec
	store   revocation.Store
	limiter AttemptLimiter
	emitter audit.Emitter
	metrics *Metrics
}

type Option func(*Manager)

func WithAttemptLimiter(l AttemptLimiter) Option {
	return func(m *Manager) { m.limiter = l }
}

func WithEmitter(e audit.Emitter) Option {
	return func(m *Manager) { m.emitter = e }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func NewManager(cfg Config, users UserDirectory, creds CredentialVerifier, codec *token.Codec, store revocation.Store, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if users == nil || creds == nil || codec == nil || store == nil {
		return nil, ErrConfiguration.WithMsg("session: user directory, credential verifier, codec and store are required")
	}
	m := &Manager{
		cfg:     cfg,
		users:   users,
		creds:   creds,
		codec:   codec,
		store:   store,
		emitter: audit.NopEmitter{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Register creates an account and opens its first session. A taken email
// is reported before the password policy.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := user.NormalizeEmail(in.Email)
	_, err := m.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateIdentity
	case !errors.Is(err, user.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := m.creds.ValidatePassword(in.Password); err != nil {
		return nil, ErrWeakCredential.WithMsg(err.Error()).Wrap(err)
	}

	hash, err := m.creds.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := m.users.Create(ctx, user.CreateInput{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
	})
	if errors.Is(err, user.ErrDuplicate) {
		return nil, ErrDuplicateIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	m.emit(ctx, audit.TypeRegistered, u.ID, u.Email, "")
	return &AuthResult{User: u.View(), Tokens: *pair}, nil
}

// Login checks the credential before the active flag so a deactivated
// account is only revealed to someone holding its password
func (m *Manager) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = user.NormalizeEmail(email)

	if m.limiter != nil {
		locked, err := m.limiter.Locked(ctx, email)
		if err != nil {
			return nil, ErrStoreUnavailable.Wrap(err)
		}
		if locked {
			m.emit(ctx, audit.TypeLoginFailed, "", email, reasonLocked)
			return nil, ErrTooManyAttempts
		}
	}

	u, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		m.creds.CheckDummy(password)
		return nil, m.loginFailed(ctx, "", email, reasonUnknownEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !m.creds.CheckPassword(password, u.PasswordHash) {
		return nil, m.loginFailed(ctx, u.ID, email, reasonBadPassword)
	}
	if !u.IsActive {
		m.emit(ctx, audit.TypeLoginFailed, u.ID, email, reasonDeactivated)
		return nil, ErrAccountDeactivated
	}

	if m.limiter != nil {
		if err := m.limiter.Succeeded(ctx, email); err != nil {
			return nil, ErrStoreUnavailable.Wrap(err)
		}
	}

	pair, err := m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	m.emit(ctx, audit.TypeLogin, u.ID, u.Email, "")
	return &AuthResult{User: u.View(), Tokens: *pair}, nil
}

func (m *Manager) loginFailed(ctx context.Context, userID, email, reason string) error {
	m.emit(ctx, audit.TypeLoginFailed, userID, email, reason)
	if m.limiter != nil {
		if err := m.limiter.Failed(ctx, email); err != nil {
			return ErrStoreUnavailable.Wrap(err)
		}
	}
	return ErrInvalidCredential
}

// Refresh rotates a refresh token. Every check runs before the atomic
// compare-and-delete, so a rejected call mutates nothing. Of several
// concurrent calls with the same token exactly one wins.
func (m *Manager) Refresh(ctx context.Context, userID, refreshToken string) (*TokenPair, error) {
	res := m.codec.Verify(refreshToken, token.TypeRefresh)
	if !res.Valid {
		return nil, m.rejectRefresh(ctx, userID, string(res.Reason))
	}
	claims := res.Claims
	if claims.UserID() != userID {
		return nil, m.rejectRefresh(ctx, userID, reasonSubject)
	}

	blacklisted, err := m.store.Exists(ctx, m.blacklistKey(refreshToken))
	if err != nil {
		return nil, m.refreshStoreFailure(ctx, err)
	}
	if blacklisted {
		return nil, m.rejectRefresh(ctx, userID, reasonBlacklisted)
	}

	u, err := m.users.FindByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, m.rejectRefresh(ctx, userID, reasonUnknownUser)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !u.IsActive {
		return nil, m.rejectRefresh(ctx, userID, reasonDeactivated)
	}

	won, err := m.store.CompareAndDelete(ctx, m.refreshKey(userID, claims.ID), refreshToken)
	if err != nil {
		return nil, m.refreshStoreFailure(ctx, err)
	}
	if !won {
		return nil, m.rejectRefresh(ctx, userID, reasonNotCurrent)
	}

	// From here on the old session is gone; any failure leaves the user
	// logged out rather than holding a reusable token.
	if ttl := claims.Remaining(m.codec.Now()); ttl > 0 {
		if err := m.store.Set(ctx, m.blacklistKey(refreshToken), blacklistMarkerValue, ttl); err != nil {
			return nil, m.refreshStoreFailure(ctx, err)
		}
	}
	pair, err := m.openSession(ctx, u)
	if err != nil {
		return nil, err
	}

	m.metrics.recordRefresh(ctx, resultOK)
	m.emit(ctx, audit.TypeRefreshed, u.ID, u.Email, "")
	return pair, nil
}

func (m *Manager) rejectRefresh(ctx context.Context, userID, reason string) error {
	m.metrics.recordRefresh(ctx, resultRejected)
	m.emit(ctx, audit.TypeRefreshRejected, userID, "", reason)
	return ErrInvalidRefreshToken
}

func (m *Manager) refreshStoreFailure(ctx context.Context, err error) error {
	m.metrics.recordRefresh(ctx, resultStoreFailure)
	return ErrStoreUnavailable.Wrap(err)
}

// Logout blacklists both tokens and drops the refresh record. It is
// idempotent; tokens may be empty or already expired.
func (m *Manager) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, tok := range []string{accessToken, refreshToken} {
		if tok == "" {
			continue
		}
		tok := tok
		g.Go(func() error {
			return m.blacklist(gctx, tok)
		})
	}
	if err := g.Wait(); err != nil {
		return ErrStoreUnavailable.Wrap(err)
	}

	if key, ok := m.logoutRefreshKey(userID, refreshToken); ok {
		if err := m.store.Del(ctx, key); err != nil {
			return ErrStoreUnavailable.Wrap(err)
		}
	}

	m.metrics.recordLogout(ctx)
	m.emit(ctx, audit.TypeLogout, userID, "", "")
	return nil
}

// logoutRefreshKey picks the record to drop. With multiple sessions only
// the presented session's record is removed, and only when the refresh
// token verifies.
func (m *Manager) logoutRefreshKey(userID, refreshToken string) (string, bool) {
	if userID == "" {
		return "", false
	}
	if m.cfg.IsSingleSession() {
		return m.refreshKey(userID, ""), true
	}
	res := m.codec.Verify(refreshToken, token.TypeRefresh)
	if !res.Valid || res.Claims.ID == "" || res.Claims.UserID() != userID {
		return "", false
	}
	return m.refreshKey(userID, res.Claims.ID), true
}

// Authenticate is the per-request check: blacklist lookup, then local
// signature verification as an access token
func (m *Manager) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	start := time.Now()

	blacklisted, err := m.store.Exists(ctx, m.blacklistKey(accessToken))
	if err != nil {
		m.metrics.recordAuthenticate(ctx, resultStoreFailure, time.Since(start))
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if blacklisted {
		m.metrics.recordAuthenticate(ctx, resultRejected, time.Since(start))
		return nil, ErrInvalidAccessToken
	}

	res := m.codec.Verify(accessToken, token.TypeAccess)
	if !res.Valid {
		m.metrics.recordAuthenticate(ctx, resultRejected, time.Since(start))
		return nil, ErrInvalidAccessToken
	}

	m.metrics.recordAuthenticate(ctx, resultOK, time.Since(start))
	return &Principal{UserID: res.Claims.UserID(), Email: res.Claims.Email}, nil
}

// openSession mints a pair and records its refresh token, overwriting the
// previous record in single-session mode
func (m *Manager) openSession(ctx context.Context, u *user.User) (*TokenPair, error) {
	pair, err := m.codec.IssuePair(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token pair: %w", err)
	}
	ttl := m.codec.Lifetime(token.TypeRefresh)
	if err := m.store.Set(ctx, m.refreshKey(u.ID, pair.RefreshID), pair.RefreshToken, ttl); err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	m.metrics.recordIssuedPair(ctx)
	return &TokenPair{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// blacklist writes tok with its remaining lifetime. Undecodable tokens
// get the refresh lifetime; already expired ones are skipped.
func (m *Manager) blacklist(ctx context.Context, tok string) error {
	ttl := m.blacklistTTL(tok)
	if ttl <= 0 {
		return nil
	}
	return m.store.Set(ctx, m.blacklistKey(tok), blacklistMarkerValue, ttl)
}

func (m *Manager) blacklistTTL(tok string) time.Duration {
	claims, err := m.codec.DecodeUnsafe(tok)
	if err != nil {
		return m.codec.Lifetime(token.TypeRefresh)
	}
	if claims.ExpiresAt == nil {
		if claims.Type.Valid() {
			return m.codec.Lifetime(claims.Type)
		}
		return m.codec.Lifetime(token.TypeRefresh)
	}
	return claims.Remaining(m.codec.Now())
}

func (m *Manager) refreshKey(userID, tokenID string) string {
	if m.cfg.IsSingleSession() || tokenID == "" {
		return m.cfg.RefreshKeyPrefix + userID
	}
	return m.cfg.RefreshKeyPrefix + userID + ":" + tokenID
}

func (m *Manager) blacklistKey(tok string) string {
	return m.cfg.BlacklistKeyPrefix + tok
}

func (m *Manager) emit(ctx context.Context, typ, userID, email, reason string) {
	m.emitter.Emit(ctx, audit.Event{Type: typ, UserID: userID, Email: email, Reason: reason})
}

// RefreshSubject verifies tok as a refresh token and returns its subject.
// The HTTP layer uses it to route a bare refresh token to Refresh.
func (m *Manager) RefreshSubject(tok string) (string, error) {
	res := m.codec.Verify(tok, token.TypeRefresh)
	if !res.Valid {
		return "", ErrInvalidRefreshToken
	}
	return res.Claims.UserID(), nil
}
