package auth

import (
	"testing"
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "ElectroStore API"},
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: 4},
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testConfig())

	pair, err := m.GeneratePair(7, "ana@example.com", RoleAdmin)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.Error(t, err, "refresh token must not be accepted as access token")

	refresh, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", refresh.Email)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager(testConfig())
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	pair, err := m.GeneratePair(1, "a@b.c", RoleClient)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	pair, err := NewJWTManager(testConfig()).GeneratePair(1, "a@b.c", RoleClient)
	require.NoError(t, err)

	other := testConfig()
	other.JWT.Secret = "ffffffffffffffffffffffffffffffff"
	_, err = NewJWTManager(other).ValidateAccessToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestJWTManager_PairsAreUnique(t *testing.T) {
	m := NewJWTManager(testConfig())
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	first, err := m.GeneratePair(7, "ana@example.com", RoleClient)
	require.NoError(t, err)
	second, err := m.GeneratePair(7, "ana@example.com", RoleClient)
	require.NoError(t, err)

	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, Fingerprint(first.RefreshToken), Fingerprint(second.RefreshToken))
	assert.Len(t, Fingerprint(first.RefreshToken), 64)
	assert.Equal(t, Fingerprint(first.RefreshToken), Fingerprint(first.RefreshToken))
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromHeader("Bearer "))
}

func TestPasswordManager(t *testing.T) {
	p := NewPasswordManager(testConfig())

	hash, err := p.HashPassword("Tienda2024x")
	require.NoError(t, err)
	assert.NoError(t, p.VerifyPassword("Tienda2024x", hash))
	assert.Error(t, p.VerifyPassword("tienda2024x", hash))

	for _, weak := range []string{"short1A", "alllowercase1", "NOLOWER123", "NoDigitsHere", "Aaaa11bbb", "MyPassword9"} {
		_, err := p.HashPassword(weak)
		assert.Error(t, err, weak)
	}
}
