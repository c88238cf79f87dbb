package models

import "time"

// Enrolment joins a student to a class and carries the grade
// (table 'student_enrolments').
type Enrolment struct {
	ID        int64 `json:"id" db:"id"`
	StudentID int64 `json:"studentId" db:"student_id"`
	ClassID   int64 `json:"classId" db:"class_id"`
	// Grade is nil until a lecturer grades the enrolment.
	Grade     *Grade    `json:"grade,omitempty" db:"grade"`
	EnrolTime time.Time `json:"enrolTime" db:"enrol_time"`
	GradeTime time.Time `json:"gradeTime" db:"grade_time"`

	Student *Student `json:"student,omitempty"`
	Class   *Class   `json:"class,omitempty"`
}

// GradeText renders the grade or "-" when ungraded.
func (e *Enrolment) GradeText() string {
	if e == nil || e.Grade == nil {
		return "-"
	}
	return e.Grade.String()
}
