package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/db"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/dberrors"
	"github.com/yigit/gradebook/internal/pkg/logger"
)

// ErrEnrolmentNotFound is returned when no enrolment matches
var ErrEnrolmentNotFound = apperrors.NewResourceNotFoundError("enrolment not found")

// EnrolmentRepository handles database operations for student enrolments
type EnrolmentRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewEnrolmentRepository creates a new enrolment repository
func NewEnrolmentRepository(q db.Querier) *EnrolmentRepository {
	return &EnrolmentRepository{db: q, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func (r *EnrolmentRepository) selectEnrolments() squirrel.SelectBuilder {
	cols := append([]string{}, classColumns...)
	cols = append(cols,
		"e.id", "e.student_id", "e.class_id", "e.grade", "e.enrol_time", "e.grade_time",
		"s.user_id", "s.dob", "su.username", "su.email", "su.first_name", "su.last_name",
	)
	return r.sb.Select(cols...).
		From("student_enrolments e").
		Join("classes cl ON cl.id = e.class_id").
		Join("semesters se ON se.id = cl.semester_id").
		Join("courses co ON co.id = cl.course_id").
		Join("users lu ON lu.id = cl.lecturer_id").
		Join("students s ON s.id = e.student_id").
		Join("users su ON su.id = s.user_id")
}

func scanEnrolment(row pgx.Row) (*models.Enrolment, error) {
	e := &models.Enrolment{Student: &models.Student{User: &models.User{}}}
	su := e.Student.User
	var grade pgtype.Numeric

	class, err := scanClass(row,
		&e.ID, &e.StudentID, &e.ClassID, &grade, &e.EnrolTime, &e.GradeTime,
		&e.Student.UserID, &e.Student.DOB, &su.Username, &su.Email, &su.FirstName, &su.LastName,
	)
	if err != nil {
		return nil, err
	}

	e.Class = class
	e.Student.ID = e.StudentID
	su.ID = e.Student.UserID
	if e.Grade, err = models.GradeFromNumeric(grade); err != nil {
		return nil, fmt.Errorf("enrolment %d: %w", e.ID, err)
	}
	return e, nil
}

// Create inserts an ungraded enrolment. enrol_time and grade_time come from the caller.
func (r *EnrolmentRepository) Create(ctx context.Context, e *models.Enrolment) (int64, error) {
	var grade any
	if e.Grade != nil {
		grade = e.Grade.Numeric()
	}

	sql, args, err := r.sb.Insert("student_enrolments").
		Columns("student_id", "class_id", "grade", "enrol_time", "grade_time").
		Values(e.StudentID, e.ClassID, grade, e.EnrolTime, e.GradeTime).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create enrolment query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&e.ID); err != nil {
		if constraint, ok := dberrors.IsForeignKeyViolation(err); ok {
			return 0, fmt.Errorf("%w: %s", apperrors.ErrReferenceNotFound, constraint)
		}
		logger.Error().Err(err).Int64("studentID", e.StudentID).Int64("classID", e.ClassID).Msg("Error executing create enrolment query")
		return 0, fmt.Errorf("error creating enrolment: %w", err)
	}
	return e.ID, nil
}

// GetByID retrieves an enrolment with its student and class
func (r *EnrolmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrolment, error) {
	sql, args, err := r.selectEnrolments().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrolment query: %w", err)
	}

	e, err := scanEnrolment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrolmentNotFound
		}
		return nil, fmt.Errorf("error retrieving enrolment: %w", err)
	}
	return e, nil
}

func (r *EnrolmentRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.Enrolment, error) {
	q := r.selectEnrolments().OrderBy("e.id")
	if where != nil {
		q = q.Where(where)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrolments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrolments: %w", err)
	}
	defer rows.Close()

	var enrolments []*models.Enrolment
	for rows.Next() {
		e, err := scanEnrolment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrolment: %w", err)
		}
		enrolments = append(enrolments, e)
	}
	return enrolments, rows.Err()
}

// List retrieves all enrolments ordered by id
func (r *EnrolmentRepository) List(ctx context.Context) ([]*models.Enrolment, error) {
	return r.list(ctx, nil)
}

// ListByStudent retrieves the enrolments of one student
func (r *EnrolmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrolment, error) {
	return r.list(ctx, squirrel.Eq{"e.student_id": studentID})
}

// ListByClass retrieves the enrolments of one class
func (r *EnrolmentRepository) ListByClass(ctx context.Context, classID int64) ([]*models.Enrolment, error) {
	return r.list(ctx, squirrel.Eq{"e.class_id": classID})
}

// UpdateGrade stores a grade and its timestamp. enrol_time is never written here.
func (r *EnrolmentRepository) UpdateGrade(ctx context.Context, id int64, grade models.Grade, gradeTime time.Time) error {
	sql, args, err := r.sb.Update("student_enrolments").
		Set("grade", grade.Numeric()).
		Set("grade_time", gradeTime).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update grade query: %w", err)
	}
	if err := execAffectingOne(ctx, r.db, sql, args, ErrEnrolmentNotFound); err != nil {
		if errors.Is(err, ErrEnrolmentNotFound) {
			return err
		}
		return fmt.Errorf("error updating grade: %w", err)
	}
	return nil
}

// Delete deletes an enrolment
func (r *EnrolmentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("student_enrolments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete enrolment query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrEnrolmentNotFound)
}
