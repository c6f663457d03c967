package validator

import (
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-auth/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string
	Password string
}

func (f loginForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Email, validation.Required, is.EmailFormat),
		validation.Field(&f.Password, validation.Required),
	)
}

type brokenForm struct{ err error }

func (f brokenForm) Validate() error { return f.err }

func TestValidateRequest_OK(t *testing.T) {
	assert.NoError(t, ValidateRequest(loginForm{Email: "alice@example.com", Password: "x"}))
}

func TestValidateRequest_FieldErrors(t *testing.T) {
	err := ValidateRequest(loginForm{Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errcode.ErrValidation))

	var layered *errcode.LayeredError
	require.True(t, errors.As(err, &layered))
	assert.Equal(t, 400, layered.HTTPStatus())
	fields, ok := layered.Data()["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Password")
}

func TestValidateRequest_OtherErrorPassesThrough(t *testing.T) {
	custom := errors.New("custom")
	assert.Same(t, custom, ValidateRequest(brokenForm{err: custom}))
}
