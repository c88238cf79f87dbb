package models

import "time"

// Student defines the student profile based on the 'students' table
type Student struct {
	ID     int64     `json:"id" db:"id"`
	UserID int64     `json:"userId" db:"user_id"`
	DOB    time.Time `json:"dob" db:"dob"`
	User   *User     `json:"user,omitempty"` // Relation, no db tag
}

// Lecturer defines the lecturer profile based on the 'lecturers' table
type Lecturer struct {
	ID       int64     `json:"id" db:"id"`
	UserID   int64     `json:"userId" db:"user_id"`
	DOB      time.Time `json:"dob" db:"dob"`
	CourseID int64     `json:"courseId" db:"course_id"`
	User     *User     `json:"user,omitempty"`   // Relation, no db tag
	Course   *Course   `json:"course,omitempty"` // Relation, no db tag
}
