package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/metrics"
	"github.com/yigit/gradebook/internal/pkg/notify"
	"github.com/yigit/gradebook/internal/pkg/validation"
)

// GradeNotifier is told about every committed grade
type GradeNotifier interface {
	GradeUpdated(ctx context.Context, ev notify.GradeEvent) error
}

// EnrolmentService defines enrolment and grading operations
type EnrolmentService interface {
	// Create enrols any student into any class (admin form).
	Create(ctx context.Context, in dto.EnrolmentInput) (*models.Enrolment, error)
	// Enrol enrols the calling student; an unknown class is a not-found error.
	Enrol(ctx context.Context, studentID, classID int64) (*models.Enrolment, error)
	// GetForGrading returns the enrolment when lecturerUserID teaches its class.
	GetForGrading(ctx context.Context, lecturerUserID, enrolmentID int64) (*models.Enrolment, error)
	AssignGrade(ctx context.Context, lecturerUserID, enrolmentID int64, in dto.GradeInput) (*models.Enrolment, error)
	Get(ctx context.Context, id int64) (*models.Enrolment, error)
	List(ctx context.Context) ([]*models.Enrolment, error)
	ListForStudent(ctx context.Context, studentID int64) ([]*models.Enrolment, error)
	ListForClass(ctx context.Context, classID int64) ([]*models.Enrolment, error)
	Delete(ctx context.Context, id int64) error
}

type enrolmentServiceImpl struct {
	repos    *repositories.Repositories
	notifier GradeNotifier
	now      func() time.Time
	logger   zerolog.Logger
}

// NewEnrolmentService creates a new enrolment service. notifier may be nil.
func NewEnrolmentService(repos *repositories.Repositories, notifier GradeNotifier, logger zerolog.Logger) EnrolmentService {
	return &enrolmentServiceImpl{repos: repos, notifier: notifier, now: time.Now, logger: logger}
}

func (s *enrolmentServiceImpl) enrol(ctx context.Context, studentID, classID int64) (*models.Enrolment, error) {
	now := s.now().UTC()
	e := &models.Enrolment{StudentID: studentID, ClassID: classID, EnrolTime: now, GradeTime: now}
	if _, err := s.repos.Enrolments.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("enrolmentID", e.ID).Int64("studentID", studentID).Int64("classID", classID).Msg("Student enrolled")
	return s.repos.Enrolments.GetByID(ctx, e.ID)
}

func (s *enrolmentServiceImpl) Create(ctx context.Context, in dto.EnrolmentInput) (*models.Enrolment, error) {
	ve := &apperrors.ValidationError{}
	if err := validation.Struct(&in); err != nil {
		v, ok := apperrors.AsValidation(err)
		if !ok {
			return nil, err
		}
		ve = v
	}
	if in.StudentID > 0 && ve.For("student_id") == "" {
		if _, err := s.repos.Students.GetByID(ctx, in.StudentID); errors.Is(err, apperrors.ErrResourceNotFound) {
			ve.Add("student_id", MsgInvalidChoice)
		} else if err != nil {
			return nil, err
		}
	}
	if in.ClassID > 0 && ve.For("class_id") == "" {
		if _, err := s.repos.Classes.GetByID(ctx, in.ClassID); errors.Is(err, apperrors.ErrResourceNotFound) {
			ve.Add("class_id", MsgInvalidChoice)
		} else if err != nil {
			return nil, err
		}
	}
	if ve.HasErrors() {
		return nil, ve
	}

	e, err := s.enrol(ctx, in.StudentID, in.ClassID)
	if errors.Is(err, apperrors.ErrReferenceNotFound) {
		return nil, apperrors.NewValidationError("class_id", MsgInvalidChoice)
	}
	return e, err
}

func (s *enrolmentServiceImpl) Enrol(ctx context.Context, studentID, classID int64) (*models.Enrolment, error) {
	if _, err := s.repos.Classes.GetByID(ctx, classID); err != nil {
		return nil, err
	}
	e, err := s.enrol(ctx, studentID, classID)
	if errors.Is(err, apperrors.ErrReferenceNotFound) {
		return nil, apperrors.NewResourceNotFoundError("class not found")
	}
	return e, err
}

func ensureTeaches(e *models.Enrolment, lecturerUserID int64) error {
	if e.Class == nil || e.Class.LecturerID != lecturerUserID {
		return apperrors.NewForbiddenError(apperrors.MsgForbidden)
	}
	return nil
}

func (s *enrolmentServiceImpl) GetForGrading(ctx context.Context, lecturerUserID, enrolmentID int64) (*models.Enrolment, error) {
	e, err := s.repos.Enrolments.GetByID(ctx, enrolmentID)
	if err != nil {
		return nil, err
	}
	if err := ensureTeaches(e, lecturerUserID); err != nil {
		return nil, err
	}
	return e, nil
}

// AssignGrade stores the grade, moves grade_time forward and leaves
// enrol_time alone. The student is notified only after the commit, and a
// failed notification never undoes the grade.
func (s *enrolmentServiceImpl) AssignGrade(ctx context.Context, lecturerUserID, enrolmentID int64, in dto.GradeInput) (*models.Enrolment, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	grade, err := models.ParseGrade(in.Grade)
	if err != nil {
		return nil, apperrors.NewValidationError("grade", "Enter a number between 0 and 999.99 with at most 2 decimal places.")
	}

	var updated *models.Enrolment
	err = s.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		e, err := tx.Enrolments.GetByID(ctx, enrolmentID)
		if err != nil {
			return err
		}
		if err := ensureTeaches(e, lecturerUserID); err != nil {
			return err
		}

		gradeTime := s.now().UTC()
		if gradeTime.Before(e.GradeTime) {
			gradeTime = e.GradeTime
		}
		if err := tx.Enrolments.UpdateGrade(ctx, e.ID, grade, gradeTime); err != nil {
			return fmt.Errorf("update grade: %w", err)
		}

		e.Grade = &grade
		e.GradeTime = gradeTime
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.GradesAssigned.Inc()
	s.logger.Info().Int64("enrolmentID", enrolmentID).Str("grade", grade.String()).Msg("Grade assigned")
	s.notify(ctx, updated)
	return updated, nil
}

func (s *enrolmentServiceImpl) notify(ctx context.Context, e *models.Enrolment) {
	if s.notifier == nil {
		return
	}
	ev := notify.GradeEvent{
		EnrolmentID: e.ID,
		StudentID:   e.StudentID,
		Grade:       e.GradeText(),
		GradedAt:    e.GradeTime,
	}
	if e.Student != nil && e.Student.User != nil {
		ev.StudentEmail = e.Student.User.Email
		ev.StudentName = e.Student.User.FullName()
	}
	if e.Class != nil {
		ev.ClassNumber = e.Class.Number
		if e.Class.Course != nil {
			ev.CourseCode = e.Class.Course.Code
		}
	}

	// The request may be finishing; delivery gets its own lifetime.
	if err := s.notifier.GradeUpdated(context.WithoutCancel(ctx), ev); err != nil {
		metrics.NotificationFailures.Inc()
		s.logger.Error().Err(err).Int64("enrolmentID", e.ID).Msg("Failed to notify student of grade")
	}
}

func (s *enrolmentServiceImpl) Get(ctx context.Context, id int64) (*models.Enrolment, error) {
	return s.repos.Enrolments.GetByID(ctx, id)
}

func (s *enrolmentServiceImpl) List(ctx context.Context) ([]*models.Enrolment, error) {
	return s.repos.Enrolments.List(ctx)
}

func (s *enrolmentServiceImpl) ListForStudent(ctx context.Context, studentID int64) ([]*models.Enrolment, error) {
	return s.repos.Enrolments.ListByStudent(ctx, studentID)
}

func (s *enrolmentServiceImpl) ListForClass(ctx context.Context, classID int64) ([]*models.Enrolment, error) {
	return s.repos.Enrolments.ListByClass(ctx, classID)
}

func (s *enrolmentServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repos.Enrolments.Delete(ctx, id)
}
