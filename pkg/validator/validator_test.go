package validator

import (
	"errors"
	"testing"

	"anoa.com/taskmanager/pkg/apperror"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStrongPassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"Password1234.", true},
		{"Ab1$abcd", true},
		{"Ab1$abc", false},
		{"password1234.", false},
		{"PASSWORD1234.", false},
		{"Password.", false},
		{"Password1234", false},
		{"Password1234#", false},
	}

	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStrongPassword(tt.pw))
		})
	}
}

type registerRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,strongpassword"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterOn(v))
	return v
}

func TestFormatValidationErrors_FieldMap(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(registerRequest{
		Email:                "not-an-email",
		Password:             "weak",
		PasswordConfirmation: "other",
	})
	require.Error(t, err)

	formatted := FormatValidationErrors(err)
	assert.True(t, errors.Is(formatted, apperror.ErrValidation))

	var ve *apperror.ValidationError
	require.True(t, errors.As(formatted, &ve))
	assert.Contains(t, ve.Fields, "name")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "password")
	assert.Contains(t, ve.Fields, "password_confirmation")
	assert.Equal(t, "the name field is required", ve.Fields["name"])
	assert.Equal(t, "the password field confirmation does not match", ve.Fields["password_confirmation"])
}

func TestFormatValidationErrors_Valid(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(registerRequest{
		Name:                 "Dev",
		Email:                "dev@example.com",
		Password:             "Password1234.",
		PasswordConfirmation: "Password1234.",
	})
	assert.NoError(t, err)
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	formatted := FormatValidationErrors(errors.New("unexpected EOF"))
	assert.True(t, errors.Is(formatted, apperror.ErrBadRequest))
	assert.Equal(t, 400, apperror.MapErrorToStatus(formatted))
}
