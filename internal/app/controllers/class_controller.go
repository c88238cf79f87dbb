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

// ClassController handles class CRUD pages and lecturer assignment
type ClassController struct {
	classService        services.ClassService
	semesterService     services.SemesterService
	courseService       services.CourseService
	provisioningService services.ProvisioningService
}

// NewClassController creates a new ClassController
func NewClassController(classService services.ClassService, semesterService services.SemesterService,
	courseService services.CourseService, provisioningService services.ProvisioningService) *ClassController {
	return &ClassController{
		classService:        classService,
		semesterService:     semesterService,
		courseService:       courseService,
		provisioningService: provisioningService,
	}
}

type classChoices struct {
	semesters []views.Option
	courses   []views.Option
	// lecturers are keyed by user id, the value a class stores.
	lecturers []views.Option
}

func (c *ClassController) choices(ctx context.Context) (*classChoices, error) {
	semesters, err := c.semesterService.List(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := c.courseService.List(ctx)
	if err != nil {
		return nil, err
	}
	lecturers, err := c.provisioningService.ListLecturers(ctx)
	if err != nil {
		return nil, err
	}

	out := &classChoices{}
	for _, s := range semesters {
		out.semesters = append(out.semesters, views.IDOption(s.ID, s.String()))
	}
	for _, co := range courses {
		out.courses = append(out.courses, views.IDOption(co.ID, co.String()))
	}
	for _, l := range lecturers {
		out.lecturers = append(out.lecturers, views.IDOption(l.UserID, l.User.FullName()))
	}
	return out, nil
}

func classForm(title, action string, in dto.ClassInput, ch *classChoices) views.Form {
	return views.Form{
		Title:  title,
		Action: action,
		Submit: "Save",
		Cancel: "/classes",
		Fields: []views.Field{
			views.Text("number", "Number", "number", views.Int(int64(in.Number))),
			views.Select("semester_id", "Semester", in.SemesterID, ch.semesters),
			views.Select("course_id", "Course", in.CourseID, ch.courses),
			views.Select("lecturer_id", "Lecturer", in.LecturerID, ch.lecturers),
		},
	}
}

// List renders every class
func (c *ClassController) List(ctx *gin.Context) {
	classes, err := c.classService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "class_list.html", gin.H{"Title": "Classes", "Classes": classes})
}

// CreateForm renders an empty class form
func (c *ClassController) CreateForm(ctx *gin.Context) {
	ch, err := c.choices(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderForm(ctx, http.StatusOK, classForm("Create class", "/classes/create", dto.ClassInput{}, ch))
}

// Create adds a class
func (c *ClassController) Create(ctx *gin.Context) {
	ch, err := c.choices(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.ClassInput
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, classForm("Create class", "/classes/create", in, ch), err)
		return
	}
	if _, err := c.classService.Create(ctx.Request.Context(), in); err != nil {
		formFailed(ctx, classForm("Create class", "/classes/create", in, ch), err)
		return
	}
	redirect(ctx, "/classes")
}

// EditForm renders the form pre-filled with the stored class
func (c *ClassController) EditForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	class, err := c.classService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	ch, err := c.choices(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderForm(ctx, http.StatusOK, classForm("Update class", updatePath("/classes", id), dto.ClassInputFrom(class), ch))
}

// Update writes the posted class
func (c *ClassController) Update(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	ch, err := c.choices(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.ClassInput
	action := updatePath("/classes", id)
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, classForm("Update class", action, in, ch), err)
		return
	}
	if _, err := c.classService.Update(ctx.Request.Context(), id, in); err != nil {
		formFailed(ctx, classForm("Update class", action, in, ch), err)
		return
	}
	redirect(ctx, "/classes")
}

// DeleteConfirm asks before deleting a class
func (c *ClassController) DeleteConfirm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	class, err := c.classService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, deleteConfirm(class.String(), deletePath("/classes", id), "/classes",
		"Its enrolments and grades are deleted as well."))
}

// Delete removes a class
func (c *ClassController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.classService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/classes")
}

// assignForm builds the lecturer picker. selected is a lecturer profile id;
// zero preselects the lecturer currently teaching the class.
func (c *ClassController) assignForm(ctx context.Context, classID, selected int64) (views.Form, error) {
	class, err := c.classService.Get(ctx, classID)
	if err != nil {
		return views.Form{}, err
	}
	lecturers, err := c.provisioningService.ListLecturers(ctx)
	if err != nil {
		return views.Form{}, err
	}

	opts := make([]views.Option, 0, len(lecturers))
	for _, l := range lecturers {
		opts = append(opts, views.IDOption(l.ID, l.User.FullName()+" ("+l.Course.String()+")"))
		if selected == 0 && l.UserID == class.LecturerID {
			selected = l.ID
		}
	}

	return views.Form{
		Title:  "Assign lecturer to " + class.String(),
		Action: "/assign-lecturer/" + views.Int(classID),
		Submit: "Assign",
		Cancel: "/classes",
		Fields: []views.Field{views.Select("lecturer_id", "Lecturer", selected, opts)},
	}, nil
}

// AssignLecturerForm renders the lecturer picker of a class
func (c *ClassController) AssignLecturerForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "class_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	form, err := c.assignForm(ctx.Request.Context(), id, 0)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderForm(ctx, http.StatusOK, form)
}

// AssignLecturer sets the lecturer of a class
func (c *ClassController) AssignLecturer(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "class_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.AssignLecturerInput
	err = bind(ctx, &in)
	if err == nil {
		_, err = c.classService.AssignLecturer(ctx.Request.Context(), id, in)
	}
	if err == nil {
		redirect(ctx, "/classes")
		return
	}

	form, formErr := c.assignForm(ctx.Request.Context(), id, in.LecturerID)
	if formErr != nil {
		middleware.HandleError(ctx, formErr)
		return
	}
	formFailed(ctx, form, err)
}
