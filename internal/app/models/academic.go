package models

import "fmt"

// Semester based on the 'semesters' table
type Semester struct {
	ID     int64 `json:"id" db:"id"`
	Number int   `json:"number" db:"number"`
	Year   int   `json:"year" db:"year"`
}

func (s *Semester) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("Semester %d, %d", s.Number, s.Year)
}

// Course based on the 'courses' table
type Course struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"`
}

func (c *Course) String() string {
	if c == nil {
		return ""
	}
	return c.Code + " " + c.Name
}

// Class is one run of a course in a semester, taught by a lecturer identity.
type Class struct {
	ID         int64 `json:"id" db:"id"`
	Number     int   `json:"number" db:"number"`
	SemesterID int64 `json:"semesterId" db:"semester_id"`
	CourseID   int64 `json:"courseId" db:"course_id"`
	// LecturerID references users.id, not lecturers.id.
	LecturerID int64 `json:"lecturerId" db:"lecturer_id"`

	Semester *Semester `json:"semester,omitempty"`
	Course   *Course    `json:"course,omitempty"`
	Lecturer *User      `json:"lecturer,omitempty"`
}

func (c *Class) String() string {
	if c == nil {
		return ""
	}
	if c.Course != nil {
		return fmt.Sprintf("%s class %d", c.Course.Code, c.Number)
	}
	return fmt.Sprintf("Class %d", c.Number)
}
