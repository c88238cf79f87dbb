package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/logger"
)

// PrincipalKey is the gin context key holding the resolved appauth.Principal
const PrincipalKey = "principal"

// SessionAuthenticator turns a session token into a principal
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (appauth.Principal, error)
}

// AuthMiddleware for session authentication and role gates
type AuthMiddleware struct {
	sessions   SessionAuthenticator
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionAuthenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// Authenticate resolves the session cookie once per request. A missing or
// unusable session leaves the caller anonymous; it never aborts.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := appauth.Anonymous()

		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			p, err := m.sessions.Authenticate(c.Request.Context(), token)
			if err != nil {
				logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to resolve session")
			} else {
				principal = p
			}
		}

		c.Request = c.Request.WithContext(appauth.WithPrincipal(c.Request.Context(), principal))
		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// RequireAdmin lets only superusers through
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.require(appauth.RoleAdmin)
}

// RequireLecturer lets only identities with a lecturer profile through
func (m *AuthMiddleware) RequireLecturer() gin.HandlerFunc {
	return m.require(appauth.RoleLecturer)
}

// RequireStudent lets only identities with a student profile through
func (m *AuthMiddleware) RequireStudent() gin.HandlerFunc {
	return m.require(appauth.RoleStudent)
}

func (m *AuthMiddleware) require(gate appauth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch appauth.Check(gate, CurrentPrincipal(c)) {
		case appauth.Pass:
			c.Next()
		case appauth.Redirect:
			target := appauth.LoginPath(gate) + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
		default:
			RenderError(c, http.StatusForbidden, apperrors.MsgForbidden)
			c.Abort()
		}
	}
}

// CurrentPrincipal returns the principal stored by Authenticate, or Anonymous
func CurrentPrincipal(c *gin.Context) appauth.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(appauth.Principal); ok {
			return p
		}
	}
	return appauth.FromContext(c.Request.Context())
}
