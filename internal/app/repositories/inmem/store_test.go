package inmem

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

type fixture struct {
	repos      *repositories.Repositories
	lecturerID int64
	studentID  int64
	courseID   int64
	semesterID int64
	classID    int64
	enrolID    int64
}

func seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repos := NewStore().Repositories()
	var f fixture
	f.repos = repos

	var err error
	f.semesterID, err = repos.Semesters.Create(ctx, &models.Semester{Number: 1, Year: 2024})
	require.NoError(t, err)
	f.courseID, err = repos.Courses.Create(ctx, &models.Course{Name: "Data Structures", Code: "CS201"})
	require.NoError(t, err)

	lu := &models.User{Username: "lee@uni.test", Email: "lee@uni.test", IsActive: true}
	f.lecturerID, err = repos.Users.Create(ctx, lu)
	require.NoError(t, err)
	_, err = repos.Lecturers.Create(ctx, &models.Lecturer{UserID: lu.ID, CourseID: f.courseID})
	require.NoError(t, err)

	su := &models.User{Username: "sam@uni.test", Email: "sam@uni.test", IsActive: true}
	_, err = repos.Users.Create(ctx, su)
	require.NoError(t, err)
	f.studentID, err = repos.Students.Create(ctx, &models.Student{UserID: su.ID})
	require.NoError(t, err)

	f.classID, err = repos.Classes.Create(ctx, &models.Class{Number: 1, SemesterID: f.semesterID, CourseID: f.courseID, LecturerID: f.lecturerID})
	require.NoError(t, err)
	f.enrolID, err = repos.Enrolments.Create(ctx, &models.Enrolment{StudentID: f.studentID, ClassID: f.classID})
	require.NoError(t, err)
	return f
}

func TestStore_UsernameUnique(t *testing.T) {
	f := seed(t)
	_, err := f.repos.Users.Create(context.Background(), &models.User{Username: "sam@uni.test"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
}

func TestStore_ForeignKeys(t *testing.T) {
	f := seed(t)
	_, err := f.repos.Classes.Create(context.Background(), &models.Class{Number: 2, SemesterID: 999, CourseID: f.courseID, LecturerID: f.lecturerID})
	assert.ErrorIs(t, err, apperrors.ErrReferenceNotFound)

	_, err = f.repos.Enrolments.Create(context.Background(), &models.Enrolment{StudentID: 999, ClassID: f.classID})
	assert.ErrorIs(t, err, apperrors.ErrReferenceNotFound)
}

func TestStore_JoinsPopulated(t *testing.T) {
	f := seed(t)
	e, err := f.repos.Enrolments.GetByID(context.Background(), f.enrolID)
	require.NoError(t, err)
	require.NotNil(t, e.Student)
	require.NotNil(t, e.Class)
	assert.Equal(t, "sam@uni.test", e.Student.User.Username)
	assert.Equal(t, "CS201", e.Class.Course.Code)
	assert.Equal(t, "lee@uni.test", e.Class.Lecturer.Username)
}

func TestStore_DeleteStudentIdentityCascades(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	st, err := f.repos.Students.GetByID(ctx, f.studentID)
	require.NoError(t, err)

	require.NoError(t, f.repos.Users.Delete(ctx, st.UserID))

	_, err = f.repos.Students.GetByID(ctx, f.studentID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.repos.Enrolments.GetByID(ctx, f.enrolID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	_, err = f.repos.Classes.GetByID(ctx, f.classID)
	assert.NoError(t, err)
}

func TestStore_DeleteLecturerIdentityRemovesClasses(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	require.NoError(t, f.repos.Users.Delete(ctx, f.lecturerID))

	_, err := f.repos.Classes.GetByID(ctx, f.classID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	n, err := f.repos.Lecturers.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	list, err := f.repos.Enrolments.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_DeleteCourseCascades(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	require.NoError(t, f.repos.Courses.Delete(ctx, f.courseID))

	_, err := f.repos.Classes.GetByID(ctx, f.classID)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	n, _ := f.repos.Lecturers.Count(ctx)
	assert.Zero(t, n)
	// the lecturer's identity survives
	_, err = f.repos.Users.GetByID(ctx, f.lecturerID)
	assert.NoError(t, err)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	f := seed(t)
	boom := errors.New("boom")

	err := f.repos.WithTx(ctx, func(ctx context.Context, tx *repositories.Repositories) error {
		if _, err := tx.Users.Create(ctx, &models.User{Username: "new@uni.test"}); err != nil {
			return err
		}
		if err := tx.Enrolments.UpdateGrade(ctx, f.enrolID, 9000, time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := f.repos.Users.UsernameExists(ctx, "new@uni.test")
	require.NoError(t, err)
	assert.False(t, exists)
	e, err := f.repos.Enrolments.GetByID(ctx, f.enrolID)
	require.NoError(t, err)
	assert.Nil(t, e.Grade)
}
