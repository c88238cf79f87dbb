package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// SessionCookie describes the cookie carrying the session token
type SessionCookie struct {
	Name   string
	Secure bool
}

// AuthController handles the per-role login pages and logout
type AuthController struct {
	authService services.AuthService
	cookie      SessionCookie
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, cookie SessionCookie, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

var loginTitles = map[appauth.Role]string{
	appauth.RoleAdmin:    "Administrator login",
	appauth.RoleLecturer: "Lecturer login",
	appauth.RoleStudent:  "Student login",
}

// Home renders the landing page linking to the three logins
func (c *AuthController) Home(ctx *gin.Context) {
	render(ctx, http.StatusOK, "home.html", gin.H{"Title": "Welcome"})
}

func (c *AuthController) renderLogin(ctx *gin.Context, status int, role appauth.Role, in dto.LoginInput, message string) {
	render(ctx, status, "login.html", gin.H{
		"Title":        loginTitles[role],
		"Action":       appauth.LoginPath(role),
		"Next":         in.Next,
		"Username":     in.Username,
		"ErrorMessage": message,
	})
}

// LoginForm renders the login page of role
func (c *AuthController) LoginForm(role appauth.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.renderLogin(ctx, http.StatusOK, role, dto.LoginInput{Next: ctx.Query("next")}, "")
	}
}

// Login checks the credentials, verifies the identity holds role and sets the session cookie
func (c *AuthController) Login(role appauth.Role) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var in dto.LoginInput
		if err := ctx.ShouldBind(&in); err != nil {
			c.renderLogin(ctx, http.StatusBadRequest, role, in, apperrors.MsgInvalidCredentials)
			return
		}

		result, err := c.authService.Login(ctx.Request.Context(), role, in.Username, in.Password)
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			c.renderLogin(ctx, http.StatusUnauthorized, role, in, apperrors.MsgInvalidCredentials)
			return
		case errors.Is(err, apperrors.ErrPermissionDenied):
			c.renderLogin(ctx, http.StatusForbidden, role, in, apperrors.MsgNoLoginPermission)
			return
		case err != nil:
			middleware.HandleError(ctx, err)
			return
		}

		maxAge := int(time.Until(result.ExpiresAt).Seconds())
		ctx.SetSameSite(http.SameSiteLaxMode)
		ctx.SetCookie(c.cookie.Name, result.Token, maxAge, "/", "", c.cookie.Secure, true)

		redirect(ctx, helpers.SafeRedirect(in.Next, appauth.DashboardPath(role)))
	}
}

// Logout clears the session cookie
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, "", -1, "/", "", c.cookie.Secure, true)
	redirect(ctx, "/")
}
