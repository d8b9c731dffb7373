package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestParse(t *testing.T) {
	parser := NewParser("secret")
	valid := Claims{
		UserID: "u-42",
		Role:   "service_advisor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := parser.Parse(sign(t, jwt.SigningMethodHS256, []byte("secret"), valid))
		require.NoError(t, err)
		assert.Equal(t, "u-42", claims.UserID)
		assert.Equal(t, "service_advisor", claims.Role)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := parser.Parse(sign(t, jwt.SigningMethodHS256, []byte("other"), valid))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		expired := valid
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := parser.Parse(sign(t, jwt.SigningMethodHS256, []byte("secret"), expired))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user", func(t *testing.T) {
		anonymous := valid
		anonymous.UserID = ""
		_, err := parser.Parse(sign(t, jwt.SigningMethodHS256, []byte("secret"), anonymous))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := parser.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
