package middleware

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

const cookieName = "test_session"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSessions map[string]appauth.Principal

func (f fakeSessions) Authenticate(_ context.Context, token string) (appauth.Principal, error) {
	if token == "broken" {
		return appauth.Anonymous(), errors.New("store unavailable")
	}
	if p, ok := f[token]; ok {
		return p, nil
	}
	return appauth.Anonymous(), nil
}

func principal(role appauth.Role) appauth.Principal {
	p := appauth.Principal{Role: role, User: &models.User{ID: int64(role), Username: role.String() + "@uni.example"}}
	switch role {
	case appauth.RoleAdmin:
		p.User.IsSuperuser = true
	case appauth.RoleLecturer:
		p.Lecturer = &models.Lecturer{ID: 1, UserID: p.User.ID}
	case appauth.RoleStudent:
		p.Student = &models.Student{ID: 1, UserID: p.User.ID}
	}
	return p
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`{{.Status}}|{{.Message}}`)))

	m := NewAuthMiddleware(fakeSessions{
		"admin":    principal(appauth.RoleAdmin),
		"lecturer": principal(appauth.RoleLecturer),
		"student":  principal(appauth.RoleStudent),
	}, cookieName)

	ok := func(c *gin.Context) { c.String(http.StatusOK, CurrentPrincipal(c).Role.String()) }
	site := router.Group("", m.Authenticate())
	site.GET("/whoami", ok)
	site.GET("/admin/dashboard", m.RequireAdmin(), ok)
	site.GET("/lecturer/dashboard", m.RequireLecturer(), ok)
	site.GET("/student/dashboard", m.RequireStudent(), ok)
	return router
}

func get(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_ResolvesCookie(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		token string
		want  string
	}{
		{"", "anonymous"},
		{"admin", "admin"},
		{"student", "student"},
		{"unknown", "anonymous"},
		{"broken", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.token, func(t *testing.T) {
			w := get(router, "/whoami", tt.token)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRoleGates(t *testing.T) {
	router := newRouter(t)

	pages := map[string]string{
		"admin":    "/admin/dashboard",
		"lecturer": "/lecturer/dashboard",
		"student":  "/student/dashboard",
	}
	for gate, path := range pages {
		for _, caller := range []string{"", "admin", "lecturer", "student"} {
			t.Run(fmt.Sprintf("%s gate as %q", gate, caller), func(t *testing.T) {
				w := get(router, path+"?tab=1", caller)
				switch {
				case caller == "":
					assert.Equal(t, http.StatusFound, w.Code)
					assert.Equal(t, "/"+gate+"/login?next=%2F"+gate+"%2Fdashboard%3Ftab%3D1", w.Header().Get("Location"))
				case caller == gate:
					assert.Equal(t, http.StatusOK, w.Code)
					assert.Equal(t, gate, w.Body.String())
				default:
					assert.Equal(t, http.StatusForbidden, w.Code)
					assert.Equal(t, "403|"+apperrors.MsgForbidden, w.Body.String())
				}
			})
		}
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperrors.NewResourceNotFoundError("class not found"), http.StatusNotFound},
		{"forbidden", fmt.Errorf("wrap: %w", apperrors.ErrPermissionDenied), http.StatusForbidden},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"validation", apperrors.NewValidationError("grade", "Grade must be between 0 and 100."), http.StatusBadRequest},
		{"bad request", apperrors.NewBadRequestError("bad id"), http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`{{.Status}}|{{.Message}}`)))
			reached := false
			router.GET("/", func(c *gin.Context) { HandleError(c, tt.err) }, func(c *gin.Context) { reached = true })

			w := get(router, "/", "")
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, reached, "the chain must stop")
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "connection reset")
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New(ErrorTemplate).Parse(`{{.Status}}`)))
	router.Use(Recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := get(router, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "500", w.Body.String())
}

func TestRequestLogger_EchoesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(zerolog.Nop()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = get(router, "/", "")
	require.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
