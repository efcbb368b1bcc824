package auth

import (
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken(&models.User{ID: 7, Role: models.RoleAdmin, Email: "a@example.com"})
	require.NoError(t, err)

	p, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.Principal{UserID: 7, Role: models.RoleAdmin, Email: "a@example.com"}, p)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateToken(&models.User{ID: 7, Role: models.RoleCustomer})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromAnotherSecretIsRejected(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateToken(&models.User{ID: 1})
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnsignedTokenIsRejected(t *testing.T) {
	claims := jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewManager("secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
