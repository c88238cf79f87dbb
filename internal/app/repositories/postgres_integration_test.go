package repositories_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yigit/gradebook/internal/app/migrations"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

// setupTestDB starts PostgreSQL in a container and applies the migrations.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("gradebook_test"),
		postgres.WithUsername("gradebook"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start the PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to stop container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationURL := "pgx5://" + strings.TrimPrefix(dsn, "postgres://")
	require.NoError(t, migrations.NewMigrator(migrationURL, zerolog.Nop()).Up())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func mustGrade(t *testing.T, s string) models.Grade {
	t.Helper()
	g, err := models.ParseGrade(s)
	require.NoError(t, err)
	return g
}

func TestPostgresRepositories(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	repos := repositories.NewRepositories(pool)

	newUser := func(email string) int64 {
		id, err := repos.Users.Create(ctx, &models.User{
			Username: email, Email: email, PasswordHash: "hash", FirstName: "F", LastName: "L", IsActive: true,
		})
		require.NoError(t, err)
		return id
	}

	dob := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("identity and profiles", func(t *testing.T) {
		userID := newUser("ann@uni.example")

		_, err := repos.Users.Create(ctx, &models.User{Username: "ann@uni.example", Email: "ann@uni.example", PasswordHash: "x"})
		assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

		studentID, err := repos.Students.Create(ctx, &models.Student{UserID: userID, DOB: dob})
		require.NoError(t, err)

		s, err := repos.Students.GetByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, studentID, s.ID)
		assert.Equal(t, "ann@uni.example", s.User.Username)
		assert.True(t, dob.Equal(s.DOB))

		_, err = repos.Students.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})

	t.Run("classes enrolments and grades", func(t *testing.T) {
		semesterID, err := repos.Semesters.Create(ctx, &models.Semester{Number: 1, Year: 2025})
		require.NoError(t, err)
		courseID, err := repos.Courses.Create(ctx, &models.Course{Name: "Linear Algebra", Code: "MA101"})
		require.NoError(t, err)

		lecturerUserID := newUser("ada@uni.example")
		_, err = repos.Lecturers.Create(ctx, &models.Lecturer{UserID: lecturerUserID, DOB: dob, CourseID: courseID})
		require.NoError(t, err)

		classID, err := repos.Classes.Create(ctx, &models.Class{
			Number: 1, SemesterID: semesterID, CourseID: courseID, LecturerID: lecturerUserID,
		})
		require.NoError(t, err)

		taught, err := repos.Classes.ListByLecturer(ctx, lecturerUserID)
		require.NoError(t, err)
		require.Len(t, taught, 1)
		assert.Equal(t, "MA101", taught[0].Course.Code)

		studentUserID := newUser("alan@uni.example")
		studentID, err := repos.Students.Create(ctx, &models.Student{UserID: studentUserID, DOB: dob})
		require.NoError(t, err)

		now := time.Now().UTC().Truncate(time.Microsecond)
		enrolmentID, err := repos.Enrolments.Create(ctx, &models.Enrolment{
			StudentID: studentID, ClassID: classID, EnrolTime: now, GradeTime: now,
		})
		require.NoError(t, err)

		e, err := repos.Enrolments.GetByID(ctx, enrolmentID)
		require.NoError(t, err)
		assert.Nil(t, e.Grade)
		assert.Equal(t, lecturerUserID, e.Class.LecturerID)

		gradedAt := now.Add(time.Minute)
		require.NoError(t, repos.Enrolments.UpdateGrade(ctx, enrolmentID, mustGrade(t, "87.5"), gradedAt))

		e, err = repos.Enrolments.GetByID(ctx, enrolmentID)
		require.NoError(t, err)
		require.NotNil(t, e.Grade)
		assert.Equal(t, "87.50", e.Grade.String())
		assert.True(t, gradedAt.Equal(e.GradeTime))

		_, err = repos.Enrolments.Create(ctx, &models.Enrolment{StudentID: studentID, ClassID: 999999, EnrolTime: now, GradeTime: now})
		assert.ErrorIs(t, err, apperrors.ErrReferenceNotFound)

		// removing the identity takes the profile and its enrolments with it
		require.NoError(t, repos.Users.Delete(ctx, studentUserID))
		_, err = repos.Enrolments.GetByID(ctx, enrolmentID)
		assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
			if _, err := tx.Courses.Create(ctx, &models.Course{Name: "Rolled back", Code: "RB1"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		courses, err := repos.Courses.List(ctx)
		require.NoError(t, err)
		for _, c := range courses {
			assert.NotEqual(t, "RB1", c.Code)
		}
	})
}
