package session

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-auth/errcode"
)

// ModuleSession is the error module code of the lifecycle manager
const ModuleSession = 20

// Messages are deliberately coarse. InvalidCredential and the token errors
// never say which check failed.
var (
	ErrDuplicateIdentity   = errcode.Register(errcode.New(ModuleSession, 1001, "session", "error.session.duplicate_identity", "email already registered", http.StatusConflict))
	ErrWeakCredential      = errcode.Register(errcode.New(ModuleSession, 1002, "session", "error.session.weak_credential", "password does not meet policy", http.StatusUnprocessableEntity))
	ErrInvalidCredential   = errcode.Register(errcode.New(ModuleSession, 1003, "session", "error.session.invalid_credential", "invalid email or password", http.StatusUnauthorized))
	ErrAccountDeactivated  = errcode.Register(errcode.New(ModuleSession, 1004, "session", "error.session.account_deactivated", "account is deactivated", http.StatusForbidden))
	ErrInvalidRefreshToken = errcode.Register(errcode.New(ModuleSession, 1005, "session", "error.session.invalid_refresh_token", "invalid refresh token", http.StatusUnauthorized))
	ErrInvalidAccessToken  = errcode.Register(errcode.New(ModuleSession, 1006, "session", "error.session.invalid_access_token", "invalid or expired token", http.StatusUnauthorized))
	ErrStoreUnavailable    = errcode.Register(errcode.New(ModuleSession, 1007, "session", "error.session.store_unavailable", "service temporarily unavailable", http.StatusServiceUnavailable))
	ErrTooManyAttempts     = errcode.Register(errcode.New(ModuleSession, 1008, "session", "error.session.too_many_attempts", "too many login attempts, try again later", http.StatusTooManyRequests))

	ErrConfiguration = errcode.ErrConfiguration
)
