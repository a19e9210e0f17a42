package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-key"

func signed(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestClientToken_RoundTrip(t *testing.T) {
	token, err := GenerateClientToken(secret, "client-123", time.Hour)
	require.NoError(t, err)

	clientID, err := ParseClientToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "client-123", clientID)

	again, err := GenerateClientToken(secret, "client-123", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, token, again, "each token carries its own jti")
}

func TestParseClientToken_Rejects(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	wrongSecret, err := GenerateClientToken("other-secret", "client-123", time.Hour)
	require.NoError(t, err)
	noSubject, err := GenerateClientToken(secret, "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong secret", wrongSecret, jwt.ErrTokenSignatureInvalid},
		{"missing subject", noSubject, ErrNoClient},
		{"malformed", "not.a.valid.token", jwt.ErrTokenMalformed},
		{"expired", signed(t, jwt.RegisteredClaims{
			Subject: "c", Issuer: issuer, Audience: jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}), jwt.ErrTokenExpired},
		{"no expiry", signed(t, jwt.RegisteredClaims{
			Subject: "c", Issuer: issuer, Audience: jwt.ClaimStrings{audience},
		}), jwt.ErrTokenRequiredClaimMissing},
		{"foreign issuer", signed(t, jwt.RegisteredClaims{
			Subject: "c", Issuer: "someone-else", Audience: jwt.ClaimStrings{audience}, ExpiresAt: future,
		}), jwt.ErrTokenInvalidIssuer},
		{"foreign audience", signed(t, jwt.RegisteredClaims{
			Subject: "c", Issuer: issuer, Audience: jwt.ClaimStrings{"admin"}, ExpiresAt: future,
		}), jwt.ErrTokenInvalidAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientID, err := ParseClientToken(secret, tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, clientID)
		})
	}
}
