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

// EnrolmentController handles enrolment and grading pages
type EnrolmentController struct {
	enrolmentService    services.EnrolmentService
	classService        services.ClassService
	provisioningService services.ProvisioningService
}

// NewEnrolmentController creates a new EnrolmentController
func NewEnrolmentController(enrolmentService services.EnrolmentService, classService services.ClassService,
	provisioningService services.ProvisioningService) *EnrolmentController {
	return &EnrolmentController{
		enrolmentService:    enrolmentService,
		classService:        classService,
		provisioningService: provisioningService,
	}
}

// EnrolConfirm asks the current student to confirm enrolling in a class
func (c *EnrolmentController) EnrolConfirm(ctx *gin.Context) {
	classID, err := helpers.ParseIDParam(ctx, "class_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	class, err := c.classService.Get(ctx.Request.Context(), classID)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, views.Confirm{
		Title:   "Enrol in " + class.String(),
		Message: "Enrol in " + class.String() + " (" + class.Semester.String() + ")?",
		Action:  "/enrol/" + views.Int(classID),
		Submit:  "Enrol",
		Cancel:  "/student/dashboard",
	})
}

// Enrol enrols the current student
func (c *EnrolmentController) Enrol(ctx *gin.Context) {
	classID, err := helpers.ParseIDParam(ctx, "class_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	student := middleware.CurrentPrincipal(ctx).Student
	if _, err := c.enrolmentService.Enrol(ctx.Request.Context(), student.ID, classID); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/student/dashboard")
}

// List renders every enrolment
func (c *EnrolmentController) List(ctx *gin.Context) {
	enrolments, err := c.enrolmentService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "enrolment_list.html", gin.H{"Title": "Enrolments", "Enrolments": enrolments})
}

func (c *EnrolmentController) form(ctx context.Context, in dto.EnrolmentInput) (views.Form, error) {
	students, err := c.provisioningService.ListStudents(ctx)
	if err != nil {
		return views.Form{}, err
	}
	classes, err := c.classService.List(ctx)
	if err != nil {
		return views.Form{}, err
	}

	studentOpts := make([]views.Option, 0, len(students))
	for _, s := range students {
		studentOpts = append(studentOpts, views.IDOption(s.ID, s.User.FullName()+" <"+s.User.Email+">"))
	}
	classOpts := make([]views.Option, 0, len(classes))
	for _, cl := range classes {
		classOpts = append(classOpts, views.IDOption(cl.ID, cl.String()+", "+cl.Semester.String()))
	}

	return views.Form{
		Title:  "Enrol a student",
		Action: "/enrolments/create",
		Submit: "Enrol",
		Cancel: "/enrolments",
		Fields: []views.Field{
			views.Select("student_id", "Student", in.StudentID, studentOpts),
			views.Select("class_id", "Class", in.ClassID, classOpts),
		},
	}, nil
}

// CreateForm renders the admin enrolment form
func (c *EnrolmentController) CreateForm(ctx *gin.Context) {
	form, err := c.form(ctx.Request.Context(), dto.EnrolmentInput{})
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderForm(ctx, http.StatusOK, form)
}

// Create enrols any student into any class
func (c *EnrolmentController) Create(ctx *gin.Context) {
	var in dto.EnrolmentInput
	err := bind(ctx, &in)
	if err == nil {
		_, err = c.enrolmentService.Create(ctx.Request.Context(), in)
	}
	if err == nil {
		redirect(ctx, "/enrolments")
		return
	}

	form, formErr := c.form(ctx.Request.Context(), in)
	if formErr != nil {
		middleware.HandleError(ctx, formErr)
		return
	}
	formFailed(ctx, form, err)
}

// Delete removes an enrolment
func (c *EnrolmentController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.enrolmentService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/enrolments")
}

func gradeForm(enrolmentID int64, student, class, grade string) views.Form {
	return views.Form{
		Title:  "Grade " + student + " in " + class,
		Action: "/assign-grade/" + views.Int(enrolmentID),
		Submit: "Save grade",
		Cancel: "/lecturer/dashboard",
		Fields: []views.Field{{
			Name:     "grade",
			Label:    "Grade",
			Type:     "text",
			Value:    grade,
			Required: true,
			Help:     "A number between 0 and 999.99 with at most two decimals.",
		}},
	}
}

// GradeForm renders the grade form for an enrolment in one of the lecturer's classes
func (c *EnrolmentController) GradeForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "enrolment_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	lecturer := middleware.CurrentPrincipal(ctx).User
	e, err := c.enrolmentService.GetForGrading(ctx.Request.Context(), lecturer.ID, id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	grade := ""
	if e.Grade != nil {
		grade = e.Grade.String()
	}
	renderForm(ctx, http.StatusOK, gradeForm(id, e.Student.User.FullName(), e.Class.String(), grade))
}

// AssignGrade stores the grade and notifies the student
func (c *EnrolmentController) AssignGrade(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "enrolment_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	lecturer := middleware.CurrentPrincipal(ctx).User

	// Ownership is checked before the form is read so that a foreign
	// enrolment is refused regardless of the posted value.
	e, err := c.enrolmentService.GetForGrading(ctx.Request.Context(), lecturer.ID, id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}

	var in dto.GradeInput
	err = bind(ctx, &in)
	if err == nil {
		_, err = c.enrolmentService.AssignGrade(ctx.Request.Context(), lecturer.ID, id, in)
	}
	if err != nil {
		formFailed(ctx, gradeForm(id, e.Student.User.FullName(), e.Class.String(), in.Grade), err)
		return
	}
	redirect(ctx, "/lecturer/classes/"+views.Int(e.ClassID))
}
