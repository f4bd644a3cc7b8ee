package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"real4d-backend/internal/models"
)

const IdentityKey = "identity"

// TokenVerifier resolves an access token through the auth service.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.Identity, error)
}

// RequireUser rejects requests whose bearer token the auth service does not
// accept. Rejections are plain text and happen before any handler runs.
func RequireUser(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.String(http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.String(http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		identity, err := verifier.VerifyToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, models.ErrInvalidToken) {
				c.String(http.StatusUnauthorized, "invalid token")
			} else {
				c.String(http.StatusUnauthorized, "unauthorized")
			}
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireUser.
func IdentityFrom(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}
