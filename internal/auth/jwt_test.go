package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/ifrit/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, 1, "admin", model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Len(t, claims.ID, 36)
}

func TestTokensHaveDistinctJTI(t *testing.T) {
	a, _ := GenerateToken("s", 1, "a", model.RoleViewer)
	b, _ := GenerateToken("s", 1, "a", model.RoleViewer)
	ca, _ := ValidateToken("s", a)
	cb, _ := ValidateToken("s", b)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", 1, "admin", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateTokenTTL("secret", 1, "a", model.RoleViewer, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenForeignIssuer(t *testing.T) {
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ValidateToken("secret", signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("test", 1, "test", model.RoleViewer)
	claims, err := ValidateToken("test", token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}
