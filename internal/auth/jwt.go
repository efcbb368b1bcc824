// Package auth issues and verifies the bearer tokens that identify callers.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired and forged tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token body. The subject holds the user id.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs tokens with an HS256 secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken creates a token for the user that expires after the
// manager's TTL.
func (m *Manager) GenerateToken(u *models.User) (string, error) {
	// 1. --- Build Claims ---
	now := m.now()
	claims := Claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	// 2. --- Sign ---
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns the caller it identifies.
func (m *Manager) ValidateToken(tokenString string) (models.Principal, error) {
	// 1. --- Parse & Check the Signing Method ---
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	// 2. --- Read the Subject ---
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return models.Principal{}, ErrInvalidToken
	}
	return models.Principal{UserID: userID, Role: claims.Role, Email: claims.Email}, nil
}
