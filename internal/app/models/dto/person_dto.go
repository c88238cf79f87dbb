package dto

import (
	"time"

	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// PersonInput carries the identity fields shared by student and lecturer forms.
// The email doubles as the login username.
type PersonInput struct {
	Email     string `form:"email" validate:"required,email,max=254"`
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	// Password is required on create; on update an empty value keeps the stored hash.
	Password string `form:"password" validate:"max=128"`
	DOB      string `form:"dob" validate:"required,datetime=2006-01-02"`
}

// StudentInput is the create/update form for a student profile
type StudentInput struct {
	PersonInput
}

// LecturerInput is the create/update form for a lecturer profile
type LecturerInput struct {
	PersonInput
	CourseID int64 `form:"course_id" validate:"required,gt=0"`
}

// AdminInput creates a superuser identity from the CLI or at startup
type AdminInput struct {
	Email     string `form:"email" validate:"required,email,max=254"`
	FirstName string `form:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" validate:"max=150"`
	Password  string `form:"password" validate:"required,max=128"`
}

// StudentInputFrom pre-populates the edit form. The password is never echoed.
func StudentInputFrom(s *models.Student) StudentInput {
	return StudentInput{PersonInput: personFrom(s.User, s.DOB)}
}

// LecturerInputFrom pre-populates the edit form. The password is never echoed.
func LecturerInputFrom(l *models.Lecturer) LecturerInput {
	return LecturerInput{PersonInput: personFrom(l.User, l.DOB), CourseID: l.CourseID}
}

func personFrom(u *models.User, dob time.Time) PersonInput {
	in := PersonInput{DOB: helpers.FormatDate(dob)}
	if u != nil {
		in.Email, in.FirstName, in.LastName = u.Email, u.FirstName, u.LastName
	}
	return in
}
