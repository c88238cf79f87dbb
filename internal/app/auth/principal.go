package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

// Role is a capability an identity can hold. One identity may hold several.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAdmin
	RoleLecturer
	RoleStudent
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleLecturer:
		return "lecturer"
	case RoleStudent:
		return "student"
	default:
		return "anonymous"
	}
}

// Principal is the authenticated caller. User is nil for anonymous callers.
// Role is the primary role used for navigation; Lecturer and Student are set
// whenever the identity has the matching profile.
type Principal struct {
	Role     Role
	User     *models.User
	Lecturer *models.Lecturer
	Student  *models.Student
}

// Anonymous returns the principal used when no valid session exists.
func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

// IsAuthenticated reports whether the principal holds any role.
func (p Principal) IsAuthenticated() bool {
	return p.Role != RoleAnonymous && p.User != nil
}

// Holds reports whether the principal carries role, regardless of which
// role is primary.
func (p Principal) Holds(role Role) bool {
	if !p.IsAuthenticated() {
		return false
	}
	switch role {
	case RoleAdmin:
		return p.User.IsSuperuser
	case RoleLecturer:
		return p.Lecturer != nil
	case RoleStudent:
		return p.Student != nil
	default:
		return false
	}
}

// Decision is the outcome of a gate check.
type Decision int

const (
	Pass Decision = iota
	Redirect
	Forbid
)

// Check decides whether principal may pass the gate guarding role-only pages.
// Anonymous callers are sent to the gate's login page, other roles are refused.
func Check(gate Role, p Principal) Decision {
	if !p.IsAuthenticated() {
		return Redirect
	}
	if p.Holds(gate) {
		return Pass
	}
	return Forbid
}

// LoginPath returns the login page for a gate.
func LoginPath(gate Role) string {
	switch gate {
	case RoleLecturer:
		return "/lecturer/login"
	case RoleStudent:
		return "/student/login"
	default:
		return "/admin/login"
	}
}

// DashboardPath returns the landing page for a role.
func DashboardPath(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleLecturer:
		return "/lecturer/dashboard"
	case RoleStudent:
		return "/student/dashboard"
	default:
		return "/"
	}
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous()
}

// AuthorizationService resolves identities into principals
type AuthorizationService struct {
	users     repositories.IUserRepository
	lecturers repositories.ILecturerRepository
	students  repositories.IStudentRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(repos *repositories.Repositories) *AuthorizationService {
	return &AuthorizationService{
		users:     repos.Users,
		lecturers: repos.Lecturers,
		students:  repos.Students,
	}
}

// Resolve loads the identity with every profile it holds. The primary role is
// superuser first, then lecturer, then student. Missing, inactive or role-less
// identities resolve to Anonymous without error.
func (s *AuthorizationService) Resolve(ctx context.Context, userID int64) (Principal, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return Anonymous(), nil
		}
		return Anonymous(), fmt.Errorf("resolve principal: %w", err)
	}
	if !user.IsActive {
		return Anonymous(), nil
	}

	p := Principal{User: user}

	// Profiles are optional, so not-found is not an error here
	lecturer, err := s.lecturers.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		p.Lecturer = lecturer
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return Anonymous(), fmt.Errorf("resolve lecturer profile: %w", err)
	}

	student, err := s.students.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		p.Student = student
	case !errors.Is(err, apperrors.ErrResourceNotFound):
		return Anonymous(), fmt.Errorf("resolve student profile: %w", err)
	}

	switch {
	case user.IsSuperuser:
		p.Role = RoleAdmin
	case p.Lecturer != nil:
		p.Role = RoleLecturer
	case p.Student != nil:
		p.Role = RoleStudent
	default:
		return Anonymous(), nil
	}
	return p, nil
}
