package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateToken(42, "alice", "staff")
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserId)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "staff", claims.Role)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(1, "bob", "user")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Hour)
	m.ttl = -time.Minute

	token, err := m.GenerateToken(1, "bob", "user")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewManager("secret", 0).ParseToken("not.a.token")
	assert.Error(t, err)
}
