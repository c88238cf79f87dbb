package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// CourseController handles course CRUD pages
type CourseController struct {
	courseService services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService services.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

func courseForm(title, action string, in dto.CourseInput) views.Form {
	return views.Form{
		Title:  title,
		Action: action,
		Submit: "Save",
		Cancel: "/courses",
		Fields: []views.Field{
			views.Text("name", "Name", "text", in.Name),
			views.Text("code", "Code", "text", in.Code),
		},
	}
}

// List renders every course
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.courseService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "course_list.html", gin.H{"Title": "Courses", "Courses": courses})
}

// CreateForm renders an empty course form
func (c *CourseController) CreateForm(ctx *gin.Context) {
	renderForm(ctx, http.StatusOK, courseForm("Create course", "/courses/create", dto.CourseInput{}))
}

// Create adds a course
func (c *CourseController) Create(ctx *gin.Context) {
	var in dto.CourseInput
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, courseForm("Create course", "/courses/create", in), err)
		return
	}
	if _, err := c.courseService.Create(ctx.Request.Context(), in); err != nil {
		formFailed(ctx, courseForm("Create course", "/courses/create", in), err)
		return
	}
	redirect(ctx, "/courses")
}

// EditForm renders the form pre-filled with the stored course
func (c *CourseController) EditForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	course, err := c.courseService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	in := dto.CourseInput{Name: course.Name, Code: course.Code}
	renderForm(ctx, http.StatusOK, courseForm("Update course", updatePath("/courses", id), in))
}

// Update writes the posted course
func (c *CourseController) Update(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.CourseInput
	action := updatePath("/courses", id)
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, courseForm("Update course", action, in), err)
		return
	}
	if _, err := c.courseService.Update(ctx.Request.Context(), id, in); err != nil {
		formFailed(ctx, courseForm("Update course", action, in), err)
		return
	}
	redirect(ctx, "/courses")
}

// DeleteConfirm asks before deleting a course
func (c *CourseController) DeleteConfirm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	course, err := c.courseService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, deleteConfirm(course.String(), deletePath("/courses", id), "/courses",
		"Its classes and the lecturer profiles assigned to it are deleted as well."))
}

// Delete removes a course
func (c *CourseController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.courseService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/courses")
}
