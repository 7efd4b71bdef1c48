package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func init() {
	SetJWTSecret(testSecret)
}

// withSecret swaps the signing key for one test.
func withSecret(t *testing.T, s string) {
	t.Helper()
	SetJWTSecret(s)
	t.Cleanup(func() { SetJWTSecret(testSecret) })
}

func TestToken_RoundTrip(t *testing.T) {
	token, err := GenerateToken(42, "aigerim@example.com", "github", 24)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "aigerim@example.com", claims.Email)
	require.Equal(t, "github", claims.Provider)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "sanapath", claims.Issuer)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(1, "demo@sanapath.kz", "demo", -1)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"bad signature":  "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.e30.c2lnbmF0dXJl",
		"expired":        expired,
		"foreign issuer": foreign,
		"alg none":       unsigned,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token)
			require.Error(t, err)
		})
	}
}

func TestParseToken_SecretRotation(t *testing.T) {
	withSecret(t, "before-rotation")
	token, err := GenerateToken(7, "s@example.com", "local", 1)
	require.NoError(t, err)

	SetJWTSecret("after-rotation")
	_, err = ParseToken(token)
	require.Error(t, err)
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	withSecret(t, "")
	_, err := GenerateToken(1, "a@example.com", "local", 1)
	require.Error(t, err)
}
