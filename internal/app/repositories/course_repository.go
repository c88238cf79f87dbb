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
)

// ErrCourseNotFound is returned when no course matches
var ErrCourseNotFound = apperrors.NewResourceNotFoundError("course not found")

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(q db.Querier) *CourseRepository {
	return &CourseRepository{db: q, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create creates a new course
func (r *CourseRepository) Create(ctx context.Context, c *models.Course) (int64, error) {
	sql, args, err := r.sb.Insert("courses").Columns("name", "code").
		Values(c.Name, c.Code).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create course query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID); err != nil {
		return 0, fmt.Errorf("error creating course: %w", err)
	}
	return c.ID, nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.sb.Select("id", "name", "code").From("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	var c models.Course
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Name, &c.Code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return &c, nil
}

// List retrieves all courses ordered by id
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	sql, args, err := r.sb.Select("id", "name", "code").From("courses").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, err
		}
		courses = append(courses, &c)
	}
	return courses, rows.Err()
}

// Update updates a course
func (r *CourseRepository) Update(ctx context.Context, c *models.Course) error {
	sql, args, err := r.sb.Update("courses").Set("name", c.Name).Set("code", c.Code).
		Where(squirrel.Eq{"id": c.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrCourseNotFound)
}

// Delete deletes a course; classes and lecturers of the course cascade
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrCourseNotFound)
}
