package inmem

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/app/repositories/user"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

func sortedIDs[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

func missing(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", apperrors.ErrReferenceNotFound, what, id)
}

// UserRepository implements repositories.IUserRepository
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *models.User) (int64, error) {
	err := r.s.write(func(d *state) error {
		for _, other := range d.users {
			if other.Username == u.Username {
				return apperrors.ErrUsernameTaken
			}
		}
		u.ID = d.id("users")
		u.CreatedAt = r.s.now()
		row := *u
		d.users[u.ID] = row
		return nil
	})
	return u.ID, err
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	var u *models.User
	r.s.read(func(d *state) { u = d.userCopy(id) })
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	var u *models.User
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.users) {
			if d.users[id].Username == username {
				u = d.userCopy(id)
				return
			}
		}
	})
	if u == nil {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if errors.Is(err, user.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) Update(_ context.Context, u *models.User) error {
	return r.s.write(func(d *state) error {
		stored, ok := d.users[u.ID]
		if !ok {
			return user.ErrUserNotFound
		}
		for id, other := range d.users {
			if id != u.ID && other.Username == u.Username {
				return apperrors.ErrUsernameTaken
			}
		}
		row := *u
		row.CreatedAt = stored.CreatedAt
		row.LastLoginAt = stored.LastLoginAt
		d.users[u.ID] = row
		return nil
	})
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.s.write(func(d *state) error {
		u, ok := d.users[id]
		if !ok {
			return nil
		}
		u.LastLoginAt = &at
		d.users[id] = u
		return nil
	})
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.users[id]; !ok {
			return user.ErrUserNotFound
		}
		d.deleteUser(id)
		return nil
	})
}

// StudentRepository implements repositories.IStudentRepository
type StudentRepository struct{ s *Store }

func (r *StudentRepository) Create(_ context.Context, st *models.Student) (int64, error) {
	err := r.s.write(func(d *state) error {
		if _, ok := d.users[st.UserID]; !ok {
			return missing("user", st.UserID)
		}
		for _, other := range d.students {
			if other.UserID == st.UserID {
				return user.ErrStudentProfileExists
			}
		}
		st.ID = d.id("students")
		row := *st
		row.User = nil
		d.students[st.ID] = row
		return nil
	})
	return st.ID, err
}

func (r *StudentRepository) find(match func(models.Student) bool) (*models.Student, error) {
	var out *models.Student
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.students) {
			if st := d.students[id]; match(st) {
				out = d.studentView(st)
				return
			}
		}
	})
	if out == nil {
		return nil, user.ErrStudentNotFound
	}
	return out, nil
}

func (r *StudentRepository) GetByID(_ context.Context, id int64) (*models.Student, error) {
	return r.find(func(st models.Student) bool { return st.ID == id })
}

func (r *StudentRepository) GetByUserID(_ context.Context, userID int64) (*models.Student, error) {
	return r.find(func(st models.Student) bool { return st.UserID == userID })
}

func (r *StudentRepository) List(_ context.Context) ([]*models.Student, error) {
	var out []*models.Student
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.students) {
			out = append(out, d.studentView(d.students[id]))
		}
	})
	return out, nil
}

func (r *StudentRepository) Update(_ context.Context, st *models.Student) error {
	return r.s.write(func(d *state) error {
		stored, ok := d.students[st.ID]
		if !ok {
			return user.ErrStudentNotFound
		}
		stored.DOB = st.DOB
		d.students[st.ID] = stored
		return nil
	})
}

func (r *StudentRepository) Count(_ context.Context) (n int, _ error) {
	r.s.read(func(d *state) { n = len(d.students) })
	return n, nil
}

// LecturerRepository implements repositories.ILecturerRepository
type LecturerRepository struct{ s *Store }

func (r *LecturerRepository) Create(_ context.Context, l *models.Lecturer) (int64, error) {
	err := r.s.write(func(d *state) error {
		if _, ok := d.users[l.UserID]; !ok {
			return missing("user", l.UserID)
		}
		if _, ok := d.courses[l.CourseID]; !ok {
			return missing("course", l.CourseID)
		}
		for _, other := range d.lecturers {
			if other.UserID == l.UserID {
				return user.ErrLecturerProfileExists
			}
		}
		l.ID = d.id("lecturers")
		row := *l
		row.User, row.Course = nil, nil
		d.lecturers[l.ID] = row
		return nil
	})
	return l.ID, err
}

func (r *LecturerRepository) find(match func(models.Lecturer) bool) (*models.Lecturer, error) {
	var out *models.Lecturer
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.lecturers) {
			if l := d.lecturers[id]; match(l) {
				out = d.lecturerView(l)
				return
			}
		}
	})
	if out == nil {
		return nil, user.ErrLecturerNotFound
	}
	return out, nil
}

func (r *LecturerRepository) GetByID(_ context.Context, id int64) (*models.Lecturer, error) {
	return r.find(func(l models.Lecturer) bool { return l.ID == id })
}

func (r *LecturerRepository) GetByUserID(_ context.Context, userID int64) (*models.Lecturer, error) {
	return r.find(func(l models.Lecturer) bool { return l.UserID == userID })
}

func (r *LecturerRepository) List(_ context.Context) ([]*models.Lecturer, error) {
	var out []*models.Lecturer
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.lecturers) {
			out = append(out, d.lecturerView(d.lecturers[id]))
		}
	})
	return out, nil
}

func (r *LecturerRepository) Update(_ context.Context, l *models.Lecturer) error {
	return r.s.write(func(d *state) error {
		stored, ok := d.lecturers[l.ID]
		if !ok {
			return user.ErrLecturerNotFound
		}
		if _, ok := d.courses[l.CourseID]; !ok {
			return missing("course", l.CourseID)
		}
		stored.DOB = l.DOB
		stored.CourseID = l.CourseID
		d.lecturers[l.ID] = stored
		return nil
	})
}

func (r *LecturerRepository) Count(_ context.Context) (n int, _ error) {
	r.s.read(func(d *state) { n = len(d.lecturers) })
	return n, nil
}

// SemesterRepository implements repositories.ISemesterRepository
type SemesterRepository struct{ s *Store }

func (r *SemesterRepository) Create(_ context.Context, se *models.Semester) (int64, error) {
	_ = r.s.write(func(d *state) error {
		se.ID = d.id("semesters")
		d.semesters[se.ID] = *se
		return nil
	})
	return se.ID, nil
}

func (r *SemesterRepository) GetByID(_ context.Context, id int64) (*models.Semester, error) {
	var out *models.Semester
	r.s.read(func(d *state) {
		if se, ok := d.semesters[id]; ok {
			out = &se
		}
	})
	if out == nil {
		return nil, repositories.ErrSemesterNotFound
	}
	return out, nil
}

func (r *SemesterRepository) List(_ context.Context) ([]*models.Semester, error) {
	var out []*models.Semester
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.semesters) {
			se := d.semesters[id]
			out = append(out, &se)
		}
	})
	return out, nil
}

func (r *SemesterRepository) Update(_ context.Context, se *models.Semester) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.semesters[se.ID]; !ok {
			return repositories.ErrSemesterNotFound
		}
		d.semesters[se.ID] = *se
		return nil
	})
}

func (r *SemesterRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.semesters[id]; !ok {
			return repositories.ErrSemesterNotFound
		}
		d.deleteSemester(id)
		return nil
	})
}

// CourseRepository implements repositories.ICourseRepository
type CourseRepository struct{ s *Store }

func (r *CourseRepository) Create(_ context.Context, c *models.Course) (int64, error) {
	_ = r.s.write(func(d *state) error {
		c.ID = d.id("courses")
		d.courses[c.ID] = *c
		return nil
	})
	return c.ID, nil
}

func (r *CourseRepository) GetByID(_ context.Context, id int64) (*models.Course, error) {
	var out *models.Course
	r.s.read(func(d *state) {
		if c, ok := d.courses[id]; ok {
			out = &c
		}
	})
	if out == nil {
		return nil, repositories.ErrCourseNotFound
	}
	return out, nil
}

func (r *CourseRepository) List(_ context.Context) ([]*models.Course, error) {
	var out []*models.Course
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.courses) {
			c := d.courses[id]
			out = append(out, &c)
		}
	})
	return out, nil
}

func (r *CourseRepository) Update(_ context.Context, c *models.Course) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.courses[c.ID]; !ok {
			return repositories.ErrCourseNotFound
		}
		d.courses[c.ID] = *c
		return nil
	})
}

func (r *CourseRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.courses[id]; !ok {
			return repositories.ErrCourseNotFound
		}
		d.deleteCourse(id)
		return nil
	})
}

// ClassRepository implements repositories.IClassRepository
type ClassRepository struct{ s *Store }

func (d *state) checkClassRefs(c *models.Class) error {
	if _, ok := d.semesters[c.SemesterID]; !ok {
		return missing("semester", c.SemesterID)
	}
	if _, ok := d.courses[c.CourseID]; !ok {
		return missing("course", c.CourseID)
	}
	if _, ok := d.users[c.LecturerID]; !ok {
		return missing("user", c.LecturerID)
	}
	return nil
}

func (r *ClassRepository) Create(_ context.Context, c *models.Class) (int64, error) {
	err := r.s.write(func(d *state) error {
		if err := d.checkClassRefs(c); err != nil {
			return err
		}
		c.ID = d.id("classes")
		row := *c
		row.Semester, row.Course, row.Lecturer = nil, nil, nil
		d.classes[c.ID] = row
		return nil
	})
	return c.ID, err
}

func (r *ClassRepository) GetByID(_ context.Context, id int64) (*models.Class, error) {
	var out *models.Class
	r.s.read(func(d *state) {
		if c, ok := d.classes[id]; ok {
			out = d.classView(c)
		}
	})
	if out == nil {
		return nil, repositories.ErrClassNotFound
	}
	return out, nil
}

func (r *ClassRepository) filter(match func(models.Class) bool) []*models.Class {
	var out []*models.Class
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.classes) {
			if c := d.classes[id]; match(c) {
				out = append(out, d.classView(c))
			}
		}
	})
	return out
}

func (r *ClassRepository) List(_ context.Context) ([]*models.Class, error) {
	return r.filter(func(models.Class) bool { return true }), nil
}

func (r *ClassRepository) ListByLecturer(_ context.Context, lecturerUserID int64) ([]*models.Class, error) {
	return r.filter(func(c models.Class) bool { return c.LecturerID == lecturerUserID }), nil
}

func (r *ClassRepository) Update(_ context.Context, c *models.Class) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.classes[c.ID]; !ok {
			return repositories.ErrClassNotFound
		}
		if err := d.checkClassRefs(c); err != nil {
			return err
		}
		row := *c
		row.Semester, row.Course, row.Lecturer = nil, nil, nil
		d.classes[c.ID] = row
		return nil
	})
}

func (r *ClassRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.classes[id]; !ok {
			return repositories.ErrClassNotFound
		}
		d.deleteClass(id)
		return nil
	})
}

// EnrolmentRepository implements repositories.IEnrolmentRepository
type EnrolmentRepository struct{ s *Store }

func (r *EnrolmentRepository) Create(_ context.Context, e *models.Enrolment) (int64, error) {
	err := r.s.write(func(d *state) error {
		if _, ok := d.students[e.StudentID]; !ok {
			return missing("student", e.StudentID)
		}
		if _, ok := d.classes[e.ClassID]; !ok {
			return missing("class", e.ClassID)
		}
		e.ID = d.id("student_enrolments")
		row := *e
		row.Student, row.Class = nil, nil
		if e.Grade != nil {
			g := *e.Grade
			row.Grade = &g
		}
		d.enrolments[e.ID] = row
		return nil
	})
	return e.ID, err
}

func (r *EnrolmentRepository) GetByID(_ context.Context, id int64) (*models.Enrolment, error) {
	var out *models.Enrolment
	r.s.read(func(d *state) {
		if e, ok := d.enrolments[id]; ok {
			out = d.enrolmentView(e)
		}
	})
	if out == nil {
		return nil, repositories.ErrEnrolmentNotFound
	}
	return out, nil
}

func (r *EnrolmentRepository) filter(match func(models.Enrolment) bool) []*models.Enrolment {
	var out []*models.Enrolment
	r.s.read(func(d *state) {
		for _, id := range sortedIDs(d.enrolments) {
			if e := d.enrolments[id]; match(e) {
				out = append(out, d.enrolmentView(e))
			}
		}
	})
	return out
}

func (r *EnrolmentRepository) List(_ context.Context) ([]*models.Enrolment, error) {
	return r.filter(func(models.Enrolment) bool { return true }), nil
}

func (r *EnrolmentRepository) ListByStudent(_ context.Context, studentID int64) ([]*models.Enrolment, error) {
	return r.filter(func(e models.Enrolment) bool { return e.StudentID == studentID }), nil
}

func (r *EnrolmentRepository) ListByClass(_ context.Context, classID int64) ([]*models.Enrolment, error) {
	return r.filter(func(e models.Enrolment) bool { return e.ClassID == classID }), nil
}

func (r *EnrolmentRepository) UpdateGrade(_ context.Context, id int64, grade models.Grade, gradeTime time.Time) error {
	return r.s.write(func(d *state) error {
		e, ok := d.enrolments[id]
		if !ok {
			return repositories.ErrEnrolmentNotFound
		}
		g := grade
		e.Grade = &g
		e.GradeTime = gradeTime
		d.enrolments[id] = e
		return nil
	})
}

func (r *EnrolmentRepository) Delete(_ context.Context, id int64) error {
	return r.s.write(func(d *state) error {
		if _, ok := d.enrolments[id]; !ok {
			return repositories.ErrEnrolmentNotFound
		}
		delete(d.enrolments, id)
		return nil
	})
}

var (
	_ repositories.IUserRepository      = (*UserRepository)(nil)
	_ repositories.IStudentRepository   = (*StudentRepository)(nil)
	_ repositories.ILecturerRepository  = (*LecturerRepository)(nil)
	_ repositories.ISemesterRepository  = (*SemesterRepository)(nil)
	_ repositories.ICourseRepository    = (*CourseRepository)(nil)
	_ repositories.IClassRepository     = (*ClassRepository)(nil)
	_ repositories.IEnrolmentRepository = (*EnrolmentRepository)(nil)
	_ repositories.Transactor           = (*Store)(nil)
)
