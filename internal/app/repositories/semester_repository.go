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

// ErrSemesterNotFound is returned when no semester matches
var ErrSemesterNotFound = apperrors.NewResourceNotFoundError("semester not found")

// SemesterRepository handles database operations for semesters
type SemesterRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewSemesterRepository creates a new semester repository
func NewSemesterRepository(q db.Querier) *SemesterRepository {
	return &SemesterRepository{db: q, sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

// Create creates a new semester
func (r *SemesterRepository) Create(ctx context.Context, s *models.Semester) (int64, error) {
	sql, args, err := r.sb.Insert("semesters").Columns("number", "year").
		Values(s.Number, s.Year).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create semester query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID); err != nil {
		return 0, fmt.Errorf("error creating semester: %w", err)
	}
	return s.ID, nil
}

// GetByID retrieves a semester by ID
func (r *SemesterRepository) GetByID(ctx context.Context, id int64) (*models.Semester, error) {
	sql, args, err := r.sb.Select("id", "number", "year").From("semesters").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get semester query: %w", err)
	}

	var s models.Semester
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&s.ID, &s.Number, &s.Year); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSemesterNotFound
		}
		return nil, fmt.Errorf("error retrieving semester: %w", err)
	}
	return &s, nil
}

// List retrieves all semesters ordered by id
func (r *SemesterRepository) List(ctx context.Context) ([]*models.Semester, error) {
	sql, args, err := r.sb.Select("id", "number", "year").From("semesters").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list semesters query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing semesters: %w", err)
	}
	defer rows.Close()

	var semesters []*models.Semester
	for rows.Next() {
		var s models.Semester
		if err := rows.Scan(&s.ID, &s.Number, &s.Year); err != nil {
			return nil, err
		}
		semesters = append(semesters, &s)
	}
	return semesters, rows.Err()
}

// Update updates a semester
func (r *SemesterRepository) Update(ctx context.Context, s *models.Semester) error {
	sql, args, err := r.sb.Update("semesters").Set("number", s.Number).Set("year", s.Year).
		Where(squirrel.Eq{"id": s.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update semester query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrSemesterNotFound)
}

// Delete deletes a semester; its classes cascade
func (r *SemesterRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("semesters").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete semester query: %w", err)
	}
	return execAffectingOne(ctx, r.db, sql, args, ErrSemesterNotFound)
}

// execAffectingOne runs a statement and maps "no rows touched" to notFound.
func execAffectingOne(ctx context.Context, q db.Querier, sql string, args []any, notFound error) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
