package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// personFields renders the identity part shared by the student and lecturer forms.
// The password is only required when creating.
func personFields(in dto.PersonInput, creating bool) []views.Field {
	password := views.Field{Name: "password", Label: "Password", Type: "password", Required: creating}
	if !creating {
		password.Help = "Leave blank to keep the current password."
	}
	return []views.Field{
		views.Text("email", "Email", "email", in.Email),
		views.Text("first_name", "First name", "text", in.FirstName),
		views.Text("last_name", "Last name", "text", in.LastName),
		password,
		views.Text("dob", "Date of birth", "date", in.DOB),
	}
}

// StudentController handles student account pages
type StudentController struct {
	provisioningService services.ProvisioningService
}

// NewStudentController creates a new StudentController
func NewStudentController(provisioningService services.ProvisioningService) *StudentController {
	return &StudentController{provisioningService: provisioningService}
}

func studentForm(title, action string, in dto.StudentInput, creating bool) views.Form {
	return views.Form{
		Title:  title,
		Action: action,
		Submit: "Save",
		Cancel: "/students",
		Fields: personFields(in.PersonInput, creating),
	}
}

// List renders every student
func (c *StudentController) List(ctx *gin.Context) {
	students, err := c.provisioningService.ListStudents(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "student_list.html", gin.H{"Title": "Students", "Students": students})
}

// CreateForm renders an empty student form
func (c *StudentController) CreateForm(ctx *gin.Context) {
	renderForm(ctx, http.StatusOK, studentForm("Create student", "/students/create", dto.StudentInput{}, true))
}

// Create provisions an identity together with its student profile
func (c *StudentController) Create(ctx *gin.Context) {
	var in dto.StudentInput
	err := bind(ctx, &in)
	if err == nil {
		_, err = c.provisioningService.CreateStudent(ctx.Request.Context(), in)
	}
	if err != nil {
		in.Password = ""
		formFailed(ctx, studentForm("Create student", "/students/create", in, true), err)
		return
	}
	redirect(ctx, "/students")
}

// EditForm renders the form pre-filled from the identity and profile
func (c *StudentController) EditForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	student, err := c.provisioningService.GetStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderForm(ctx, http.StatusOK, studentForm("Update student", updatePath("/students", id), dto.StudentInputFrom(student), false))
}

// Update writes identity and profile changes together
func (c *StudentController) Update(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.StudentInput
	err = bind(ctx, &in)
	if err == nil {
		_, err = c.provisioningService.UpdateStudent(ctx.Request.Context(), id, in)
	}
	if err != nil {
		in.Password = ""
		formFailed(ctx, studentForm("Update student", updatePath("/students", id), in, false), err)
		return
	}
	redirect(ctx, "/students")
}

// DeleteConfirm asks before deleting a student
func (c *StudentController) DeleteConfirm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	student, err := c.provisioningService.GetStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, deleteConfirm(student.User.FullName(), deletePath("/students", id), "/students",
		"The login account and all enrolments are deleted as well."))
}

// Delete removes the student's identity, which takes the profile with it
func (c *StudentController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.provisioningService.DeleteStudent(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/students")
}

// LecturerController handles lecturer account pages
type LecturerController struct {
	provisioningService services.ProvisioningService
	courseService       services.CourseService
}

// NewLecturerController creates a new LecturerController
func NewLecturerController(provisioningService services.ProvisioningService, courseService services.CourseService) *LecturerController {
	return &LecturerController{provisioningService: provisioningService, courseService: courseService}
}

func (c *LecturerController) form(ctx context.Context, title, action string, in dto.LecturerInput, creating bool) (views.Form, error) {
	courses, err := c.courseService.List(ctx)
	if err != nil {
		return views.Form{}, err
	}
	opts := make([]views.Option, 0, len(courses))
	for _, co := range courses {
		opts = append(opts, views.IDOption(co.ID, co.String()))
	}

	return views.Form{
		Title:  title,
		Action: action,
		Submit: "Save",
		Cancel: "/lecturers",
		Fields: append(personFields(in.PersonInput, creating), views.Select("course_id", "Course", in.CourseID, opts)),
	}, nil
}

func (c *LecturerController) renderForm(ctx *gin.Context, title, action string, in dto.LecturerInput, creating bool, cause error) {
	form, err := c.form(ctx.Request.Context(), title, action, in, creating)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if cause != nil {
		formFailed(ctx, form, cause)
		return
	}
	renderForm(ctx, http.StatusOK, form)
}

// List renders every lecturer
func (c *LecturerController) List(ctx *gin.Context) {
	lecturers, err := c.provisioningService.ListLecturers(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "lecturer_list.html", gin.H{"Title": "Lecturers", "Lecturers": lecturers})
}

// CreateForm renders an empty lecturer form
func (c *LecturerController) CreateForm(ctx *gin.Context) {
	c.renderForm(ctx, "Create lecturer", "/lecturers/create", dto.LecturerInput{}, true, nil)
}

// Create provisions an identity together with its lecturer profile
func (c *LecturerController) Create(ctx *gin.Context) {
	var in dto.LecturerInput
	err := bind(ctx, &in)
	if err == nil {
		_, err = c.provisioningService.CreateLecturer(ctx.Request.Context(), in)
	}
	if err != nil {
		in.Password = ""
		c.renderForm(ctx, "Create lecturer", "/lecturers/create", in, true, err)
		return
	}
	redirect(ctx, "/lecturers")
}

// EditForm renders the form pre-filled from the identity and profile
func (c *LecturerController) EditForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	lecturer, err := c.provisioningService.GetLecturer(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	c.renderForm(ctx, "Update lecturer", updatePath("/lecturers", id), dto.LecturerInputFrom(lecturer), false, nil)
}

// Update writes identity and profile changes together
func (c *LecturerController) Update(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.LecturerInput
	err = bind(ctx, &in)
	if err == nil {
		_, err = c.provisioningService.UpdateLecturer(ctx.Request.Context(), id, in)
	}
	if err != nil {
		in.Password = ""
		c.renderForm(ctx, "Update lecturer", updatePath("/lecturers", id), in, false, err)
		return
	}
	redirect(ctx, "/lecturers")
}

// DeleteConfirm asks before deleting a lecturer
func (c *LecturerController) DeleteConfirm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	lecturer, err := c.provisioningService.GetLecturer(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, deleteConfirm(lecturer.User.FullName(), deletePath("/lecturers", id), "/lecturers",
		"The login account and every class taught by this lecturer are deleted as well."))
}

// Delete removes the lecturer's identity, which takes the profile and taught classes with it
func (c *LecturerController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.provisioningService.DeleteLecturer(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/lecturers")
}
