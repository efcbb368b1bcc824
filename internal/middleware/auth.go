// Package middleware holds the gin middleware shared by every route group.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenValidator turns a bearer token into the caller it identifies.
type TokenValidator interface {
	ValidateToken(token string) (models.Principal, error)
}

// RoleSource reads a user's current role.
type RoleSource interface {
	Role(ctx context.Context, userID int64) (string, error)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// AuthMiddleware requires a valid bearer token and stores the caller in the
// gin context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, http.StatusUnauthorized, "Invalid token format (must be Bearer).")
			return
		}

		// 2. --- Validate Token ---
		p, err := tokens.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		// 3. --- Success ---
		c.Set(principalKey, p)
		c.Next()
	}
}

// OptionalAuth stores the caller when a valid bearer token is present and
// lets every request through.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if p, err := tokens.ValidateToken(token); err == nil {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware. The role is read from the
// database so a demotion takes effect before the token expires.
func AdminMiddleware(roles RoleSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		role, err := roles.Role(c.Request.Context(), p.UserID)
		if errors.Is(err, models.ErrNotFound) {
			abort(c, http.StatusUnauthorized, "Invalid user.")
			return
		}
		if err != nil {
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "Database error checking role.")
			return
		}
		if role != models.RoleAdmin {
			abort(c, http.StatusForbidden, "Access denied: admin role required.")
			return
		}

		p.Role = role
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}
