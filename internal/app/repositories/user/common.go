package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/db"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/dberrors"
	"github.com/yigit/gradebook/internal/pkg/logger"
)

const usernameConstraint = "users_username_key"

var userColumns = []string{
	"u.id", "u.username", "u.email", "u.password_hash", "u.first_name", "u.last_name",
	"u.is_superuser", "u.is_active", "u.created_at", "u.last_login_at",
}

// ErrUserNotFound is returned when no identity matches
var ErrUserNotFound = apperrors.NewResourceNotFoundError("user not found")

// Repository handles identity database operations
type Repository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewRepository creates a new Repository
func NewRepository(q db.Querier) *Repository {
	return &Repository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsSuperuser, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
}

// Create inserts a new identity and returns its id
func (r *Repository) Create(ctx context.Context, u *models.User) (int64, error) {
	sql, args, err := r.sb.Insert("users").
		Columns("username", "email", "password_hash", "first_name", "last_name", "is_superuser", "is_active").
		Values(u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsSuperuser, u.IsActive).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, usernameConstraint) {
			logger.Warn().Str("username", u.Username).Msg("Attempted to create user with duplicate username")
			return 0, apperrors.ErrUsernameTaken
		}
		logger.Error().Err(err).Str("username", u.Username).Msg("Error executing create user query")
		return 0, fmt.Errorf("error creating user: %w", err)
	}
	return u.ID, nil
}

func (r *Repository) getBy(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users u").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	var u models.User
	if err := scanUser(r.db.QueryRow(ctx, sql, args...), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

// GetByID retrieves an identity by id
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"u.id": id})
}

// GetByUsername retrieves an identity by its login handle
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"u.username": username})
}

// UsernameExists checks if a username already exists
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	sql, args, err := r.sb.Select("1").From("users").
		Where(squirrel.Eq{"username": username}).
		Prefix("SELECT EXISTS (").Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build username exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking username: %w", err)
	}
	return exists, nil
}

// Update writes every mutable identity column
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	sql, args, err := r.sb.Update("users").
		Set("username", u.Username).
		Set("email", u.Email).
		Set("password_hash", u.PasswordHash).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("is_superuser", u.IsSuperuser).
		Set("is_active", u.IsActive).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, usernameConstraint) {
			return apperrors.ErrUsernameTaken
		}
		logger.Error().Err(err).Int64("userID", u.ID).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	sql, args, err := r.sb.Update("users").Set("last_login_at", at).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build last login query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// Delete removes an identity. Profiles, taught classes and enrolments go with it
// through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing delete user query")
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	logger.Info().Int64("userID", id).Msg("User deleted")
	return nil
}
