package credential

import "errors"

// Policy violations. The message is safe to show to the registering user.
var (
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrPasswordTooLong        = errors.New("password is too long")
	ErrPasswordRequireUpper   = errors.New("password must contain an uppercase letter")
	ErrPasswordRequireLower   = errors.New("password must contain a lowercase letter")
	ErrPasswordRequireDigit   = errors.New("password must contain a digit")
	ErrPasswordRequireSpecial = errors.New("password must contain a special character")
	ErrPasswordInBlacklist    = errors.New("password is too common")
)
