// Package session verifies Supabase access tokens on browser requests and
// guards the dashboard routes.
package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"real4d-backend/internal/models"
)

const (
	// CookieName is where the browser client persists its access token.
	CookieName = "sb-access-token"
	contextKey = "session"
	adminRole  = "admin"
)

type Session struct {
	UserID      string
	Email       string
	Role        string
	ExpiresAt   time.Time
	AccessToken string
}

// Verifier checks HS256 tokens signed with the project's JWT secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (*Session, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: no signing secret", models.ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, models.ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", models.ErrInvalidToken)
	}

	s := &Session{
		UserID:      sub,
		AccessToken: tokenString,
	}
	if email, ok := claims["email"].(string); ok {
		s.Email = strings.ToLower(email)
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		s.Role, _ = meta["role"].(string)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetSession returns the request's session, or false when there is none or the
// token does not verify. The result is memoized on the context.
func GetSession(c *gin.Context, v *Verifier) (*Session, bool) {
	if cached, ok := c.Get(contextKey); ok {
		s, ok := cached.(*Session)
		return s, ok
	}

	token := TokenFromRequest(c.Request)
	if token == "" {
		return nil, false
	}
	s, err := v.Verify(token)
	if err != nil {
		return nil, false
	}
	c.Set(contextKey, s)
	return s, true
}

// FromContext returns the session stored by RequireAuth or RequireAdmin.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	return nil
}

func IsAdmin(s *Session, adminEmail string) bool {
	if s == nil {
		return false
	}
	if s.Role == adminRole {
		return true
	}
	return adminEmail != "" && s.Email == strings.ToLower(adminEmail)
}

// RequireAuth redirects to signInPath when there is no session.
func RequireAuth(v *Verifier, signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c, v); !ok {
			c.Redirect(http.StatusFound, signInPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin redirects to the home route unless the session is an admin's.
func RequireAdmin(v *Verifier, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := GetSession(c, v)
		if !ok || !IsAdmin(s, adminEmail) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
