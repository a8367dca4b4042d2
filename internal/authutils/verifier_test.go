package authutils

import (
	"testing"
	"time"

	"storyweave-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier_Verify(t *testing.T) {
	verifier := NewJWTVerifier(testSecret)
	userID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		claims, err := verifier.Verify(tokenString)
		require.NoError(t, err)
		got, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, userID, got)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("expired token", func(t *testing.T) {
		tokenString := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})

		_, err := verifier.Verify(tokenString)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("wrong signature", func(t *testing.T) {
		tokenString := signToken(t, "another-secret", jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		_, err := verifier.Verify(tokenString)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := verifier.Verify("not-a-jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}
