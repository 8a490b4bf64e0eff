package validate

import (
	"testing"

	"go-storefront/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user staff"`
}

func TestStructOK(t *testing.T) {
	assert.NoError(t, Struct(signup{Username: "ann", Email: "ann@example.com", Password: "12345678"}))
}

func TestStructFieldMessages(t *testing.T) {
	err := Struct(signup{Email: "not-an-email", Password: "1234567", Role: "root"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "this field is required", e.Fields["username"])
	assert.Equal(t, "enter a valid email address", e.Fields["email"])
	assert.Equal(t, "ensure this field has at least 8 characters", e.Fields["password"])
	assert.Equal(t, "must be one of: user staff", e.Fields["role"])
	assert.Contains(t, e.Msg, "password: ensure this field has at least 8 characters")
}
