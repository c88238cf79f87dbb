package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/validation"
)

// SemesterService defines the semester operations
type SemesterService interface {
	Create(ctx context.Context, in dto.SemesterInput) (*models.Semester, error)
	Get(ctx context.Context, id int64) (*models.Semester, error)
	List(ctx context.Context) ([]*models.Semester, error)
	Update(ctx context.Context, id int64, in dto.SemesterInput) (*models.Semester, error)
	Delete(ctx context.Context, id int64) error
}

type semesterServiceImpl struct {
	repo repositories.ISemesterRepository
}

// NewSemesterService creates a new semester service instance
func NewSemesterService(repo repositories.ISemesterRepository) SemesterService {
	return &semesterServiceImpl{repo: repo}
}

func (s *semesterServiceImpl) Create(ctx context.Context, in dto.SemesterInput) (*models.Semester, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	semester := &models.Semester{Number: in.Number, Year: in.Year}
	if _, err := s.repo.Create(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

func (s *semesterServiceImpl) Get(ctx context.Context, id int64) (*models.Semester, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *semesterServiceImpl) List(ctx context.Context) ([]*models.Semester, error) {
	return s.repo.List(ctx)
}

func (s *semesterServiceImpl) Update(ctx context.Context, id int64, in dto.SemesterInput) (*models.Semester, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	semester := &models.Semester{ID: id, Number: in.Number, Year: in.Year}
	if err := s.repo.Update(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

// Delete removes the semester and, through the cascade, its classes
func (s *semesterServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// CourseService defines the course operations
type CourseService interface {
	Create(ctx context.Context, in dto.CourseInput) (*models.Course, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, id int64, in dto.CourseInput) (*models.Course, error)
	Delete(ctx context.Context, id int64) error
}

type courseServiceImpl struct {
	repo repositories.ICourseRepository
}

// NewCourseService creates a new course service instance
func NewCourseService(repo repositories.ICourseRepository) CourseService {
	return &courseServiceImpl{repo: repo}
}

func trimCourse(in *dto.CourseInput) {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
}

func (s *courseServiceImpl) Create(ctx context.Context, in dto.CourseInput) (*models.Course, error) {
	trimCourse(&in)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	course := &models.Course{Name: in.Name, Code: in.Code}
	if _, err := s.repo.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseServiceImpl) Get(ctx context.Context, id int64) (*models.Course, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *courseServiceImpl) List(ctx context.Context) ([]*models.Course, error) {
	return s.repo.List(ctx)
}

func (s *courseServiceImpl) Update(ctx context.Context, id int64, in dto.CourseInput) (*models.Course, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	trimCourse(&in)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	course := &models.Course{ID: id, Name: in.Name, Code: in.Code}
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes the course; its classes and lecturer profiles cascade
func (s *courseServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ClassService defines the class operations
type ClassService interface {
	Create(ctx context.Context, in dto.ClassInput) (*models.Class, error)
	Get(ctx context.Context, id int64) (*models.Class, error)
	List(ctx context.Context) ([]*models.Class, error)
	Update(ctx context.Context, id int64, in dto.ClassInput) (*models.Class, error)
	Delete(ctx context.Context, id int64) error
	// AssignLecturer points the class at the identity behind a lecturer profile.
	AssignLecturer(ctx context.Context, classID int64, in dto.AssignLecturerInput) (*models.Class, error)
	ListForLecturer(ctx context.Context, lecturerUserID int64) ([]*models.Class, error)
	// GetForLecturer returns the class only when lecturerUserID teaches it.
	GetForLecturer(ctx context.Context, lecturerUserID, classID int64) (*models.Class, error)
}

type classServiceImpl struct {
	repos  *repositories.Repositories
	logger zerolog.Logger
}

// NewClassService creates a new class service instance
func NewClassService(repos *repositories.Repositories, logger zerolog.Logger) ClassService {
	return &classServiceImpl{repos: repos, logger: logger}
}

// checkRefs adds a field error for every reference that does not resolve.
// The lecturer must be an identity holding a lecturer profile.
func (s *classServiceImpl) checkRefs(ctx context.Context, in dto.ClassInput, ve *apperrors.ValidationError) error {
	checks := []struct {
		field string
		id    int64
		get   func(context.Context, int64) error
	}{
		{"semester_id", in.SemesterID, func(ctx context.Context, id int64) error {
			_, err := s.repos.Semesters.GetByID(ctx, id)
			return err
		}},
		{"course_id", in.CourseID, func(ctx context.Context, id int64) error {
			_, err := s.repos.Courses.GetByID(ctx, id)
			return err
		}},
		{"lecturer_id", in.LecturerID, func(ctx context.Context, id int64) error {
			_, err := s.repos.Lecturers.GetByUserID(ctx, id)
			return err
		}},
	}
	for _, c := range checks {
		if c.id <= 0 || ve.For(c.field) != "" {
			continue
		}
		err := c.get(ctx, c.id)
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			ve.Add(c.field, MsgInvalidChoice)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *classServiceImpl) validate(ctx context.Context, in dto.ClassInput) error {
	ve := &apperrors.ValidationError{}
	if err := validation.Struct(&in); err != nil {
		v, ok := apperrors.AsValidation(err)
		if !ok {
			return err
		}
		ve = v
	}
	if err := s.checkRefs(ctx, in, ve); err != nil {
		return err
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func classWriteError(err error) error {
	if errors.Is(err, apperrors.ErrReferenceNotFound) {
		return apperrors.NewValidationError("lecturer_id", MsgInvalidChoice)
	}
	return err
}

func (s *classServiceImpl) Create(ctx context.Context, in dto.ClassInput) (*models.Class, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	class := &models.Class{Number: in.Number, SemesterID: in.SemesterID, CourseID: in.CourseID, LecturerID: in.LecturerID}
	if _, err := s.repos.Classes.Create(ctx, class); err != nil {
		return nil, classWriteError(err)
	}
	return s.repos.Classes.GetByID(ctx, class.ID)
}

func (s *classServiceImpl) Get(ctx context.Context, id int64) (*models.Class, error) {
	return s.repos.Classes.GetByID(ctx, id)
}

func (s *classServiceImpl) List(ctx context.Context) ([]*models.Class, error) {
	return s.repos.Classes.List(ctx)
}

func (s *classServiceImpl) Update(ctx context.Context, id int64, in dto.ClassInput) (*models.Class, error) {
	if _, err := s.repos.Classes.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	class := &models.Class{ID: id, Number: in.Number, SemesterID: in.SemesterID, CourseID: in.CourseID, LecturerID: in.LecturerID}
	if err := s.repos.Classes.Update(ctx, class); err != nil {
		return nil, classWriteError(err)
	}
	return s.repos.Classes.GetByID(ctx, id)
}

// Delete removes the class and its enrolments
func (s *classServiceImpl) Delete(ctx context.Context, id int64) error {
	return s.repos.Classes.Delete(ctx, id)
}

func (s *classServiceImpl) AssignLecturer(ctx context.Context, classID int64, in dto.AssignLecturerInput) (*models.Class, error) {
	class, err := s.repos.Classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	lecturer, err := s.repos.Lecturers.GetByID(ctx, in.LecturerID)
	if errors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, apperrors.NewValidationError("lecturer_id", MsgInvalidChoice)
	}
	if err != nil {
		return nil, err
	}

	class.LecturerID = lecturer.UserID
	if err := s.repos.Classes.Update(ctx, class); err != nil {
		return nil, classWriteError(err)
	}
	s.logger.Info().Int64("classID", classID).Int64("lecturerUserID", lecturer.UserID).Msg("Lecturer assigned to class")
	return s.repos.Classes.GetByID(ctx, classID)
}

func (s *classServiceImpl) ListForLecturer(ctx context.Context, lecturerUserID int64) ([]*models.Class, error) {
	return s.repos.Classes.ListByLecturer(ctx, lecturerUserID)
}

func (s *classServiceImpl) GetForLecturer(ctx context.Context, lecturerUserID, classID int64) (*models.Class, error) {
	class, err := s.repos.Classes.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if class.LecturerID != lecturerUserID {
		return nil, apperrors.NewForbiddenError(apperrors.MsgForbidden)
	}
	return class, nil
}
