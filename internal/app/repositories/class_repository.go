package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/db"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/dberrors"
	"github.com/yigit/gradebook/internal/pkg/logger"
)

// ErrClassNotFound is returned when no class matches
var ErrClassNotFound = apperrors.NewResourceNotFoundError("class not found")

var classColumns = []string{
	"cl.id", "cl.number", "cl.semester_id", "cl.course_id", "cl.lecturer_id",
	"se.number", "se.year", "co.name", "co.code",
	"lu.username", "lu.email", "lu.first_name", "lu.last_name",
}

// ClassRepository handles database operations for classes
type ClassRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewClassRepository creates a new class repository
func NewClassRepository(q db.Querier) *ClassRepository {
	return &ClassRepository{db: q, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func (r *ClassRepository) selectClasses() squirrel.SelectBuilder {
	return r.sb.Select(classColumns...).
		From("classes cl").
		Join("semesters se ON se.id = cl.semester_id").
		Join("courses co ON co.id = cl.course_id").
		Join("users lu ON lu.id = cl.lecturer_id")
}

// scanClass reads the classColumns projection starting at the current row.
func scanClass(row pgx.Row, extra ...any) (*models.Class, error) {
	c := &models.Class{Semester: &models.Semester{}, Course: &models.Course{}, Lecturer: &models.User{}}
	dest := []any{
		&c.ID, &c.Number, &c.SemesterID, &c.CourseID, &c.LecturerID,
		&c.Semester.Number, &c.Semester.Year, &c.Course.Name, &c.Course.Code,
		&c.Lecturer.Username, &c.Lecturer.Email, &c.Lecturer.FirstName, &c.Lecturer.LastName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	c.Semester.ID = c.SemesterID
	c.Course.ID = c.CourseID
	c.Lecturer.ID = c.LecturerID
	return c, nil
}

func classFKError(err error) error {
	constraint, ok := dberrors.IsForeignKeyViolation(err)
	if !ok {
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrReferenceNotFound, constraint)
}

// Create creates a new class
func (r *ClassRepository) Create(ctx context.Context, c *models.Class) (int64, error) {
	sql, args, err := r.sb.Insert("classes").
		Columns("number", "semester_id", "course_id", "lecturer_id").
		Values(c.Number, c.SemesterID, c.CourseID, c.LecturerID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create class query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		if fkErr := classFKError(err); fkErr != nil {
			return 0, fkErr
		}
		logger.Error().Err(err).Msg("Error executing create class query")
		return 0, fmt.Errorf("error creating class: %w", err)
	}
	return c.ID, nil
}

// GetByID retrieves a class with its semester, course and lecturer
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	sql, args, err := r.selectClasses().Where(squirrel.Eq{"cl.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get class query: %w", err)
	}
	c, err := scanClass(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("error retrieving class: %w", err)
	}
	return c, nil
}

func (r *ClassRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.Class, error) {
	q := r.selectClasses().OrderBy("cl.id")
	if where != nil {
		q = q.Where(where)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list classes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing classes: %w", err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning class: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// List retrieves all classes ordered by id
func (r *ClassRepository) List(ctx context.Context) ([]*models.Class, error) {
	return r.list(ctx, nil)
}

// ListByLecturer retrieves the classes taught by a lecturer identity
func (r *ClassRepository) ListByLecturer(ctx context.Context, lecturerUserID int64) ([]*models.Class, error) {
	return r.list(ctx, squirrel.Eq{"cl.lecturer_id": lecturerUserID})
}

// Update updates a class
func (r *ClassRepository) Update(ctx context.Context, c *models.Class) error {
	sql, args, err := r.sb.Update("classes").
		Set("number", c.Number).
		Set("semester_id", c.SemesterID).
		Set("course_id", c.CourseID).
		Set("lecturer_id", c.LecturerID).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update class query: %w", err)
	}
	err = execAffectingOne(ctx, r.db, sql, args, ErrClassNotFound)
	if fkErr := classFKError(err); fkErr != nil {
		return fkErr
	}
	return err
}

// Delete deletes a class; its enrolments cascade
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("classes").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete class query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrClassNotFound)
}
