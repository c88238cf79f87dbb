// Package inmem is a map-backed implementation of the repository interfaces.
// It mirrors the Postgres schema's uniqueness, foreign key and cascade rules so
// services and handlers can be exercised without a database.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories"
)

type state struct {
	users      map[int64]models.User
	students   map[int64]models.Student
	lecturers  map[int64]models.Lecturer
	semesters  map[int64]models.Semester
	courses    map[int64]models.Course
	classes    map[int64]models.Class
	enrolments map[int64]models.Enrolment
	nextID     map[string]int64
}

func newState() *state {
	return &state{
		users:      map[int64]models.User{},
		students:   map[int64]models.Student{},
		lecturers:  map[int64]models.Lecturer{},
		semesters:  map[int64]models.Semester{},
		courses:    map[int64]models.Course{},
		classes:    map[int64]models.Class{},
		enrolments: map[int64]models.Enrolment{},
		nextID:     map[string]int64{},
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	next := make(map[string]int64, len(s.nextID))
	for k, v := range s.nextID {
		next[k] = v
	}
	return &state{
		users:      cloneMap(s.users),
		students:   cloneMap(s.students),
		lecturers:  cloneMap(s.lecturers),
		semesters:  cloneMap(s.semesters),
		courses:    cloneMap(s.courses),
		classes:    cloneMap(s.classes),
		enrolments: cloneMap(s.enrolments),
		nextID:     next,
	}
}

func (s *state) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Store owns the tables. Transactions run one at a time and roll back by
// restoring the snapshot taken when they began.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

// Repositories returns the repository set backed by this store.
func (s *Store) Repositories() *repositories.Repositories {
	repos := s.plain()
	return repositories.New(repos.Users, repos.Students, repos.Lecturers, repos.Semesters,
		repos.Courses, repos.Classes, repos.Enrolments, s)
}

func (s *Store) plain() *repositories.Repositories {
	return repositories.New(
		&UserRepository{s: s},
		&StudentRepository{s: s},
		&LecturerRepository{s: s},
		&SemesterRepository{s: s},
		&CourseRepository{s: s},
		&ClassRepository{s: s},
		&EnrolmentRepository{s: s},
		nil,
	)
}

// WithTx implements repositories.Transactor.
func (s *Store) WithTx(ctx context.Context, fn repositories.TxFn) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, s.plain()); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(d *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Cascades follow the ON DELETE CASCADE clauses of the schema.

func (d *state) deleteUser(id int64) {
	delete(d.users, id)
	for sid, st := range d.students {
		if st.UserID == id {
			d.deleteStudent(sid)
		}
	}
	for lid, l := range d.lecturers {
		if l.UserID == id {
			delete(d.lecturers, lid)
		}
	}
	for cid, c := range d.classes {
		if c.LecturerID == id {
			d.deleteClass(cid)
		}
	}
}

func (d *state) deleteStudent(id int64) {
	delete(d.students, id)
	for eid, e := range d.enrolments {
		if e.StudentID == id {
			delete(d.enrolments, eid)
		}
	}
}

func (d *state) deleteClass(id int64) {
	delete(d.classes, id)
	for eid, e := range d.enrolments {
		if e.ClassID == id {
			delete(d.enrolments, eid)
		}
	}
}

func (d *state) deleteCourse(id int64) {
	delete(d.courses, id)
	for cid, c := range d.classes {
		if c.CourseID == id {
			d.deleteClass(cid)
		}
	}
	for lid, l := range d.lecturers {
		if l.CourseID == id {
			delete(d.lecturers, lid)
		}
	}
}

func (d *state) deleteSemester(id int64) {
	delete(d.semesters, id)
	for cid, c := range d.classes {
		if c.SemesterID == id {
			d.deleteClass(cid)
		}
	}
}

// Join helpers return fresh copies so callers can't mutate stored rows.

func (d *state) userCopy(id int64) *models.User {
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (d *state) studentView(st models.Student) *models.Student {
	st.User = d.userCopy(st.UserID)
	return &st
}

func (d *state) lecturerView(l models.Lecturer) *models.Lecturer {
	l.User = d.userCopy(l.UserID)
	if c, ok := d.courses[l.CourseID]; ok {
		l.Course = &c
	}
	return &l
}

func (d *state) classView(c models.Class) *models.Class {
	if se, ok := d.semesters[c.SemesterID]; ok {
		c.Semester = &se
	}
	if co, ok := d.courses[c.CourseID]; ok {
		c.Course = &co
	}
	c.Lecturer = d.userCopy(c.LecturerID)
	return &c
}

func (d *state) enrolmentView(e models.Enrolment) *models.Enrolment {
	if e.Grade != nil {
		g := *e.Grade
		e.Grade = &g
	}
	if st, ok := d.students[e.StudentID]; ok {
		e.Student = d.studentView(st)
	}
	if c, ok := d.classes[e.ClassID]; ok {
		e.Class = d.classView(c)
	}
	return &e
}
