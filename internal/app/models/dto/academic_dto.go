package dto

import "github.com/yigit/gradebook/internal/app/models"

// SemesterInput is the semester form
type SemesterInput struct {
	Number int `form:"number" validate:"required,gte=1"`
	Year   int `form:"year" validate:"required,gte=1900,lte=9999"`
}

// CourseInput is the course form
type CourseInput struct {
	Name string `form:"name" validate:"required,max=50"`
	Code string `form:"code" validate:"required,max=50"`
}

// ClassInput is the class form. LecturerID is the lecturer's user id.
type ClassInput struct {
	Number     int   `form:"number" validate:"required,gte=1"`
	SemesterID int64 `form:"semester_id" validate:"required,gt=0"`
	CourseID   int64 `form:"course_id" validate:"required,gt=0"`
	LecturerID int64 `form:"lecturer_id" validate:"required,gt=0"`
}

// EnrolmentInput is the admin enrolment form
type EnrolmentInput struct {
	StudentID int64 `form:"student_id" validate:"required,gt=0"`
	ClassID   int64 `form:"class_id" validate:"required,gt=0"`
}

// GradeInput is the grade assignment form
type GradeInput struct {
	Grade string `form:"grade" validate:"required"`
}

// AssignLecturerInput picks the lecturer profile for a class
type AssignLecturerInput struct {
	LecturerID int64 `form:"lecturer_id" validate:"required,gt=0"`
}

// ClassInputFrom pre-populates the class edit form
func ClassInputFrom(c *models.Class) ClassInput {
	return ClassInput{Number: c.Number, SemesterID: c.SemesterID, CourseID: c.CourseID, LecturerID: c.LecturerID}
}
