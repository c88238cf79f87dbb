package user

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

var (
	ErrLecturerNotFound      = apperrors.NewResourceNotFoundError("lecturer not found")
	ErrLecturerProfileExists = errors.New("identity already has a lecturer profile")
)

// LecturerRepository handles lecturer database operations
type LecturerRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewLecturerRepository creates a new LecturerRepository
func NewLecturerRepository(q db.Querier) *LecturerRepository {
	return &LecturerRepository{
		db: q,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *LecturerRepository) selectLecturers() squirrel.SelectBuilder {
	cols := append([]string{"l.id", "l.user_id", "l.dob", "l.course_id"}, userColumns...)
	cols = append(cols, "c.id", "c.name", "c.code")
	return r.sb.Select(cols...).
		From("lecturers l").
		Join("users u ON u.id = l.user_id").
		Join("courses c ON c.id = l.course_id")
}

func scanLecturer(row pgx.Row) (*models.Lecturer, error) {
	l := &models.Lecturer{User: &models.User{}, Course: &models.Course{}}
	u, c := l.User, l.Course
	err := row.Scan(&l.ID, &l.UserID, &l.DOB, &l.CourseID,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsSuperuser, &u.IsActive, &u.CreatedAt, &u.LastLoginAt,
		&c.ID, &c.Name, &c.Code)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create creates a new lecturer profile for an existing identity
func (r *LecturerRepository) Create(ctx context.Context, lecturer *models.Lecturer) (int64, error) {
	sql, args, err := r.sb.Insert("lecturers").
		Columns("user_id", "dob", "course_id").
		Values(lecturer.UserID, lecturer.DOB, lecturer.CourseID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create lecturer query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&lecturer.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "lecturers_user_id_key") {
			return 0, ErrLecturerProfileExists
		}
		if constraint, ok := dberrors.IsForeignKeyViolation(err); ok {
			return 0, fmt.Errorf("%w: %s", apperrors.ErrReferenceNotFound, constraint)
		}
		logger.Error().Err(err).Int64("userID", lecturer.UserID).Msg("Error executing create lecturer query")
		return 0, fmt.Errorf("error creating lecturer: %w", err)
	}

	logger.Info().Int64("userID", lecturer.UserID).Int64("lecturerID", lecturer.ID).Msg("Lecturer created successfully")
	return lecturer.ID, nil
}

func (r *LecturerRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Lecturer, error) {
	sql, args, err := r.selectLecturers().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get lecturer query: %w", err)
	}

	lecturer, err := scanLecturer(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLecturerNotFound
		}
		return nil, fmt.Errorf("error retrieving lecturer: %w", err)
	}
	return lecturer, nil
}

// GetByID retrieves a lecturer with identity and course
func (r *LecturerRepository) GetByID(ctx context.Context, id int64) (*models.Lecturer, error) {
	return r.getOne(ctx, squirrel.Eq{"l.id": id})
}

// GetByUserID retrieves a lecturer by user ID
func (r *LecturerRepository) GetByUserID(ctx context.Context, userID int64) (*models.Lecturer, error) {
	return r.getOne(ctx, squirrel.Eq{"l.user_id": userID})
}

// List returns every lecturer ordered by id
func (r *LecturerRepository) List(ctx context.Context) ([]*models.Lecturer, error) {
	sql, args, err := r.selectLecturers().OrderBy("l.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list lecturers query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing lecturers: %w", err)
	}
	defer rows.Close()

	var lecturers []*models.Lecturer
	for rows.Next() {
		l, err := scanLecturer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lecturer: %w", err)
		}
		lecturers = append(lecturers, l)
	}
	return lecturers, rows.Err()
}

// Update writes the profile columns
func (r *LecturerRepository) Update(ctx context.Context, lecturer *models.Lecturer) error {
	sql, args, err := r.sb.Update("lecturers").
		Set("dob", lecturer.DOB).
		Set("course_id", lecturer.CourseID).
		Where(squirrel.Eq{"id": lecturer.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update lecturer query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if _, ok := dberrors.IsForeignKeyViolation(err); ok {
			return fmt.Errorf("%w: course %d", apperrors.ErrReferenceNotFound, lecturer.CourseID)
		}
		return fmt.Errorf("error updating lecturer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLecturerNotFound
	}
	return nil
}

// Count returns the number of lecturers
func (r *LecturerRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, r.sb, "lecturers")
}
