package httpx

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Validate checks shape only; the password policy is enforced by the session manager
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required.Error("email is required"), is.EmailFormat.Error("must be a valid email address")),
		validation.Field(&r.Password, validation.Required.Error("password is required"), validation.RuneLength(8, 0).Error("must be at least 8 characters long")),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(2, 50)),
		validation.Field(&r.Phone, validation.Match(phonePattern).Error("must be a valid phone number")),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *RefreshRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required.Error("refresh token is required")),
	)
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r *LogoutRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RefreshToken, validation.Required.Error("refresh token is required")),
	)
}

// EmptyRequest is for routes without input
type EmptyRequest struct{}
