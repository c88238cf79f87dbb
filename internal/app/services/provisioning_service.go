package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/auth"
	"github.com/yigit/gradebook/internal/pkg/helpers"
	"github.com/yigit/gradebook/internal/pkg/validation"
)

// Field messages used by provisioning
const (
	MsgRequired      = "This field is required."
	MsgEmailTaken    = "a user with this email already exists"
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	MsgInvalidDate   = "Enter a valid date (YYYY-MM-DD)."
)

// ProvisioningService keeps an identity and its student or lecturer profile in step
type ProvisioningService interface {
	CreateStudent(ctx context.Context, in dto.StudentInput) (*models.Student, error)
	UpdateStudent(ctx context.Context, id int64, in dto.StudentInput) (*models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)

	CreateLecturer(ctx context.Context, in dto.LecturerInput) (*models.Lecturer, error)
	UpdateLecturer(ctx context.Context, id int64, in dto.LecturerInput) (*models.Lecturer, error)
	DeleteLecturer(ctx context.Context, id int64) error
	GetLecturer(ctx context.Context, id int64) (*models.Lecturer, error)
	ListLecturers(ctx context.Context) ([]*models.Lecturer, error)
}

type provisioningServiceImpl struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewProvisioningService creates a new provisioning service
func NewProvisioningService(repos *repositories.Repositories, logger zerolog.Logger) ProvisioningService {
	return &provisioningServiceImpl{repos: repos, logger: logger}
}

func normalizePerson(in *dto.PersonInput) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.DOB = strings.TrimSpace(in.DOB)
}

// validatePerson runs the tag rules plus the checks tags can't express.
// excludeUserID is the identity being edited, or 0 on create.
func (s *provisioningServiceImpl) validatePerson(ctx context.Context, form any, in dto.PersonInput, creating bool, excludeUserID int64) (*apperrors.ValidationError, error) {
	ve := &apperrors.ValidationError{}
	if err := validation.Struct(form); err != nil {
		v, ok := apperrors.AsValidation(err)
		if !ok {
			return nil, err
		}
		ve = v
	}

	if creating && in.Password == "" && ve.For("password") == "" {
		ve.Add("password", MsgRequired)
	}

	if in.Email != "" && ve.For("email") == "" {
		existing, err := s.repos.Users.GetByUsername(ctx, in.Email)
		switch {
		case err == nil && existing.ID != excludeUserID:
			ve.Add("email", MsgEmailTaken)
		case err != nil && !errors.Is(err, apperrors.ErrResourceNotFound):
			return nil, fmt.Errorf("check username: %w", err)
		}
	}
	return ve, nil
}

func (s *provisioningServiceImpl) checkCourse(ctx context.Context, ve *apperrors.ValidationError, courseID int64) error {
	if courseID <= 0 || ve.For("course_id") != "" {
		return nil
	}
	_, err := s.repos.Courses.GetByID(ctx, courseID)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		ve.Add("course_id", MsgInvalidChoice)
		return nil
	}
	return err
}

// newIdentity builds the identity row for a person. Username follows the email.
func newIdentity(in dto.PersonInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{
		Username:     in.Email,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsActive:     true,
	}, nil
}

func applyPerson(u *models.User, in dto.PersonInput) error {
	u.Username = in.Email
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	return nil
}

// mapWriteError turns constraint failures raised inside the transaction into
// field errors; they only surface when a concurrent request won the race.
func mapWriteError(err error, refField string) error {
	switch {
	case errors.Is(err, apperrors.ErrUsernameTaken):
		return apperrors.NewValidationError("email", MsgEmailTaken)
	case refField != "" && errors.Is(err, apperrors.ErrReferenceNotFound):
		return apperrors.NewValidationError(refField, MsgInvalidChoice)
	default:
		return err
	}
}

func parseDOB(value string) (time.Time, error) {
	dob, err := helpers.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("dob", MsgInvalidDate)
	}
	return dob, nil
}

// CreateStudent creates the identity and the student profile in one transaction
func (s *provisioningServiceImpl) CreateStudent(ctx context.Context, in dto.StudentInput) (*models.Student, error) {
	normalizePerson(&in.PersonInput)
	ve, err := s.validatePerson(ctx, &in, in.PersonInput, true, 0)
	if err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}

	user, err := newIdentity(in.PersonInput)
	if err != nil {
		return nil, err
	}
	student := &models.Student{DOB: dob}

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if _, err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		student.UserID = user.ID
		_, err := tx.Students.Create(ctx, student)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err, "")
	}

	student.User = user
	s.logger.Info().Int64("studentID", student.ID).Str("username", user.Username).Msg("Student provisioned")
	return student, nil
}

// UpdateStudent writes identity and profile changes in one transaction.
// An empty password keeps the stored hash.
func (s *provisioningServiceImpl) UpdateStudent(ctx context.Context, id int64, in dto.StudentInput) (*models.Student, error) {
	student, err := s.repos.Students.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	normalizePerson(&in.PersonInput)
	ve, err := s.validatePerson(ctx, &in, in.PersonInput, false, student.UserID)
	if err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}

	if err := applyPerson(student.User, in.PersonInput); err != nil {
		return nil, err
	}
	student.DOB = dob

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if err := tx.Users.Update(ctx, student.User); err != nil {
			return err
		}
		return tx.Students.Update(ctx, student)
	})
	if err != nil {
		return nil, mapWriteError(err, "")
	}
	return student, nil
}

// DeleteStudent removes the student's identity; the profile and its
// enrolments cascade.
func (s *provisioningServiceImpl) DeleteStudent(ctx context.Context, id int64) error {
	return s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		student, err := tx.Students.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Users.Delete(ctx, student.UserID); err != nil {
			return err
		}
		s.logger.Info().Int64("studentID", id).Int64("userID", student.UserID).Msg("Student deleted")
		return nil
	})
}

func (s *provisioningServiceImpl) GetStudent(ctx context.Context, id int64) (*models.Student, error) {
	return s.repos.Students.GetByID(ctx, id)
}

func (s *provisioningServiceImpl) ListStudents(ctx context.Context) ([]*models.Student, error) {
	return s.repos.Students.List(ctx)
}

// CreateLecturer creates the identity and the lecturer profile in one transaction
func (s *provisioningServiceImpl) CreateLecturer(ctx context.Context, in dto.LecturerInput) (*models.Lecturer, error) {
	normalizePerson(&in.PersonInput)
	ve, err := s.validatePerson(ctx, &in, in.PersonInput, true, 0)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourse(ctx, ve, in.CourseID); err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}

	user, err := newIdentity(in.PersonInput)
	if err != nil {
		return nil, err
	}
	lecturer := &models.Lecturer{DOB: dob, CourseID: in.CourseID}

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if _, err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		lecturer.UserID = user.ID
		_, err := tx.Lecturers.Create(ctx, lecturer)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err, "course_id")
	}

	lecturer.User = user
	s.logger.Info().Int64("lecturerID", lecturer.ID).Str("username", user.Username).Msg("Lecturer provisioned")
	return lecturer, nil
}

// UpdateLecturer writes identity and profile changes in one transaction
func (s *provisioningServiceImpl) UpdateLecturer(ctx context.Context, id int64, in dto.LecturerInput) (*models.Lecturer, error) {
	lecturer, err := s.repos.Lecturers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	normalizePerson(&in.PersonInput)
	ve, err := s.validatePerson(ctx, &in, in.PersonInput, false, lecturer.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCourse(ctx, ve, in.CourseID); err != nil {
		return nil, err
	}
	if ve.HasErrors() {
		return nil, ve
	}
	dob, err := parseDOB(in.DOB)
	if err != nil {
		return nil, err
	}

	if err := applyPerson(lecturer.User, in.PersonInput); err != nil {
		return nil, err
	}
	lecturer.DOB = dob
	lecturer.CourseID = in.CourseID

	err = s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if err := tx.Users.Update(ctx, lecturer.User); err != nil {
			return err
		}
		return tx.Lecturers.Update(ctx, lecturer)
	})
	if err != nil {
		return nil, mapWriteError(err, "course_id")
	}
	return s.repos.Lecturers.GetByID(ctx, id)
}

// DeleteLecturer removes the lecturer's identity; the profile and the classes
// they teach cascade.
func (s *provisioningServiceImpl) DeleteLecturer(ctx context.Context, id int64) error {
	return s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		lecturer, err := tx.Lecturers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Users.Delete(ctx, lecturer.UserID); err != nil {
			return err
		}
		s.logger.Info().Int64("lecturerID", id).Int64("userID", lecturer.UserID).Msg("Lecturer deleted")
		return nil
	})
}

func (s *provisioningServiceImpl) GetLecturer(ctx context.Context, id int64) (*models.Lecturer, error) {
	return s.repos.Lecturers.GetByID(ctx, id)
}

func (s *provisioningServiceImpl) ListLecturers(ctx context.Context) ([]*models.Lecturer, error) {
	return s.repos.Lecturers.List(ctx)
}
