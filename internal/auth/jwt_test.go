package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("test-secret", "escrow-engine", time.Hour)

	token, err := m.Generate("0x1111111111111111111111111111111111111111", []string{PermissionAdmin})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", claims.Subject)
	assert.Equal(t, "escrow-engine", claims.Issuer)
	assert.Contains(t, claims.Permissions, PermissionAdmin)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", "escrow-engine", time.Hour)
	other := NewJWTManager("secret-b", "escrow-engine", time.Hour)

	token, err := m.Generate("user", nil)
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", "escrow-engine", -time.Minute)

	token, err := m.Generate("user", nil)
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewJWTManager("test-secret", "escrow-engine", time.Hour)

	_, err := m.Validate("not.a.token")
	require.Error(t, err)
}

func TestPrincipalHas(t *testing.T) {
	p := Principal{ID: "user", Permissions: []string{PermissionAdmin}}
	assert.True(t, p.Has(PermissionAdmin))
	assert.False(t, p.Has("escrow:other"))

	empty := Principal{ID: "user"}
	assert.False(t, empty.Has(PermissionAdmin))
}
