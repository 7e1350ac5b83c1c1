package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateAccessToken("s1", "Ada Lovelace", RoleStudent)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.UserID)
	assert.Equal(t, "Ada Lovelace", claims.Name)
	assert.Equal(t, RoleStudent, claims.Role)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	InitJWT("test-secret", time.Hour)
	good, err := GenerateAccessToken("admin", "Front Office", RoleAdmin)
	require.NoError(t, err)

	InitJWT("other-secret", time.Hour)
	_, err = ValidateAccessToken(good)
	assert.Error(t, err, "wrong secret")

	InitJWT("test-secret", -time.Minute)
	expired, err := GenerateAccessToken("admin", "Front Office", RoleAdmin)
	require.NoError(t, err)
	_, err = ValidateAccessToken(expired)
	assert.Error(t, err, "expired")

	InitJWT("test-secret", time.Hour)
	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "x"})
	signed, err := noRole.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ValidateAccessToken(signed)
	assert.Error(t, err, "missing role")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x", Role: RoleAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateAccessToken(unsigned)
	assert.Error(t, err, "alg none")
}
