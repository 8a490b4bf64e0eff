package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Invalid("bad %s", "input"), Validation},
		{"field", InvalidField("password", "too short"), Validation},
		{"not found", NotFoundf("product %d", 7), NotFound},
		{"wrapped", fmt.Errorf("create order: %w", NotFoundf("missing")), NotFound},
		{"forbidden", Forbiddenf("nope"), Forbidden},
		{"plain", errors.New("boom"), Internal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
			assert.True(t, Is(tc.err, tc.want))
		})
	}
	assert.False(t, Is(nil, Internal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, "load order")

	assert.Equal(t, "load order: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, KindOf(err))
}

func TestInvalidFieldMessage(t *testing.T) {
	err := InvalidField("country", "unsupported country code")
	assert.Equal(t, "country: unsupported country code", err.Error())
	assert.Equal(t, map[string]string{"country": "unsupported country code"}, err.Fields)
}
