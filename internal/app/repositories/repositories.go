package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories/user"
	"github.com/yigit/gradebook/internal/db"
)

// IUserRepository persists identity records
type IUserRepository interface {
	Create(ctx context.Context, u *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, u *models.User) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// IStudentRepository persists student profiles
type IStudentRepository interface {
	Create(ctx context.Context, s *models.Student) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, s *models.Student) error
	Count(ctx context.Context) (int, error)
}

// ILecturerRepository persists lecturer profiles
type ILecturerRepository interface {
	Create(ctx context.Context, l *models.Lecturer) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Lecturer, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Lecturer, error)
	List(ctx context.Context) ([]*models.Lecturer, error)
	Update(ctx context.Context, l *models.Lecturer) error
	Count(ctx context.Context) (int, error)
}

// ISemesterRepository persists semesters
type ISemesterRepository interface {
	Create(ctx context.Context, s *models.Semester) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Semester, error)
	List(ctx context.Context) ([]*models.Semester, error)
	Update(ctx context.Context, s *models.Semester) error
	Delete(ctx context.Context, id int64) error
}

// ICourseRepository persists courses
type ICourseRepository interface {
	Create(ctx context.Context, c *models.Course) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// IClassRepository persists classes
type IClassRepository interface {
	Create(ctx context.Context, c *models.Class) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	List(ctx context.Context) ([]*models.Class, error)
	ListByLecturer(ctx context.Context, lecturerUserID int64) ([]*models.Class, error)
	Update(ctx context.Context, c *models.Class) error
	Delete(ctx context.Context, id int64) error
}

// IEnrolmentRepository persists student enrolments
type IEnrolmentRepository interface {
	Create(ctx context.Context, e *models.Enrolment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Enrolment, error)
	List(ctx context.Context) ([]*models.Enrolment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrolment, error)
	ListByClass(ctx context.Context, classID int64) ([]*models.Enrolment, error)
	UpdateGrade(ctx context.Context, id int64, grade models.Grade, gradeTime time.Time) error
	Delete(ctx context.Context, id int64) error
}

// TxFn runs against repositories bound to one transaction.
type TxFn func(ctx context.Context, repos *Repositories) error

// Transactor runs a TxFn atomically.
type Transactor interface {
	WithTx(ctx context.Context, fn TxFn) error
}

// Repositories holds all the repository instances
type Repositories struct {
	Users      IUserRepository
	Students   IStudentRepository
	Lecturers  ILecturerRepository
	Semesters  ISemesterRepository
	Courses    ICourseRepository
	Classes    IClassRepository
	Enrolments IEnrolmentRepository

	tx Transactor
}

// New assembles a Repositories value from its parts; tx may be nil when the
// caller never needs transactions.
func New(users IUserRepository, students IStudentRepository, lecturers ILecturerRepository,
	semesters ISemesterRepository, courses ICourseRepository, classes IClassRepository,
	enrolments IEnrolmentRepository, tx Transactor) *Repositories {
	return &Repositories{
		Users:      users,
		Students:   students,
		Lecturers:  lecturers,
		Semesters:  semesters,
		Courses:    courses,
		Classes:    classes,
		Enrolments: enrolments,
		tx:         tx,
	}
}

// WithTx runs fn inside a transaction. Nested calls reuse the outer transaction.
func (r *Repositories) WithTx(ctx context.Context, fn TxFn) error {
	if r.tx == nil {
		return fn(ctx, r)
	}
	return r.tx.WithTx(ctx, fn)
}

// NewRepositories initializes the PostgreSQL repositories on top of the pool
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	repos := newQuerierRepositories(pool)
	repos.tx = &pgTransactor{pool: pool}
	return repos
}

func newQuerierRepositories(q db.Querier) *Repositories {
	return New(
		user.NewRepository(q),
		user.NewStudentRepository(q),
		user.NewLecturerRepository(q),
		NewSemesterRepository(q),
		NewCourseRepository(q),
		NewClassRepository(q),
		NewEnrolmentRepository(q),
		nil,
	)
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

func (t *pgTransactor) WithTx(ctx context.Context, fn TxFn) error {
	return db.WithTransaction(ctx, t.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, newQuerierRepositories(tx))
	})
}
