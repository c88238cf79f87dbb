package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/auth"
	"github.com/yigit/gradebook/internal/pkg/validation"
)

// LoginResult carries the session issued for a successful login
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService handles logins, sessions and superuser management
type AuthService interface {
	// Login checks credentials and that the identity holds role.
	Login(ctx context.Context, role appauth.Role, username, password string) (*LoginResult, error)
	// Authenticate turns a session token into a principal. Bad or expired
	// tokens yield Anonymous without error.
	Authenticate(ctx context.Context, token string) (appauth.Principal, error)
	CreateSuperuser(ctx context.Context, in dto.AdminInput) (*models.User, error)
	// EnsureSuperuser creates the superuser unless the username is taken.
	EnsureSuperuser(ctx context.Context, in dto.AdminInput) (bool, error)
	SetPassword(ctx context.Context, username, password string) error
}

type authServiceImpl struct {
	users    repositories.IUserRepository
	authz    *appauth.AuthorizationService
	sessions *auth.SessionManager
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(repos *repositories.Repositories, authz *appauth.AuthorizationService, sessions *auth.SessionManager, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		users:    repos.Users,
		authz:    authz,
		sessions: sessions,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, role appauth.Role, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		s.logger.Warn().Str("username", username).Str("role", role.String()).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	// Login and the gates share one resolution path
	principal, err := s.authz.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if !principal.Holds(role) {
		return nil, apperrors.ErrPermissionDenied
	}

	token, expiresAt, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to update last login time")
	} else {
		user.LastLoginAt = &now
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", role.String()).Msg("User logged in")
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authServiceImpl) Authenticate(ctx context.Context, token string) (appauth.Principal, error) {
	if token == "" {
		return appauth.Anonymous(), nil
	}
	claims, err := s.sessions.Validate(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Ignoring invalid session")
		return appauth.Anonymous(), nil
	}
	return s.authz.Resolve(ctx, claims.UserID)
}

func (s *authServiceImpl) CreateSuperuser(ctx context.Context, in dto.AdminInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsSuperuser:  true,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUsernameTaken) {
			return nil, apperrors.NewValidationError("email", MsgEmailTaken)
		}
		return nil, err
	}
	s.logger.Info().Int64("userID", user.ID).Str("username", user.Username).Msg("Superuser created")
	return user, nil
}

func (s *authServiceImpl) EnsureSuperuser(ctx context.Context, in dto.AdminInput) (bool, error) {
	exists, err := s.users.UsernameExists(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if _, err := s.CreateSuperuser(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

func (s *authServiceImpl) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return apperrors.NewValidationError("password", MsgRequired)
	}
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}
