package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shashidhar-chinthaparthi-au6/ai-voice/pkg/config"
)

func TestTokenRoundTrip(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "round-trip-key", ExpirationHours: 1})

	token, err := GenerateToken("user@example.com", 42, 7, "Acme", "manager")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, uint(7), claims.TenantID)
	require.Equal(t, "Acme", claims.TenantName)
	require.Equal(t, "manager", claims.Role)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key-one", ExpirationHours: 1})
	token, err := GenerateToken("user@example.com", 1, 1, "Acme", "user")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key-two", ExpirationHours: 1})
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "expiry-key", ExpirationHours: -1})
	token, err := GenerateToken("user@example.com", 1, 1, "Acme", "user")
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestUninitializedPackageFails(t *testing.T) {
	Initialize(nil)
	defer Initialize(&config.JWTConfig{SigningKey: "restore", ExpirationHours: 1})

	_, err := GenerateToken("user@example.com", 1, 1, "Acme", "user")
	require.Error(t, err)
	_, err = ValidateToken("whatever")
	require.Error(t, err)
}
