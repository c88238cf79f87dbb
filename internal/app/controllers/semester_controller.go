package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// SemesterController handles semester CRUD pages
type SemesterController struct {
	semesterService services.SemesterService
}

// NewSemesterController creates a new SemesterController
func NewSemesterController(semesterService services.SemesterService) *SemesterController {
	return &SemesterController{semesterService: semesterService}
}

func semesterForm(title, action string, in dto.SemesterInput) views.Form {
	return views.Form{
		Title:  title,
		Action: action,
		Submit: "Save",
		Cancel: "/semesters",
		Fields: []views.Field{
			views.Text("number", "Number", "number", views.Int(int64(in.Number))),
			views.Text("year", "Year", "number", views.Int(int64(in.Year))),
		},
	}
}

// List renders every semester
func (c *SemesterController) List(ctx *gin.Context) {
	semesters, err := c.semesterService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "semester_list.html", gin.H{"Title": "Semesters", "Semesters": semesters})
}

// CreateForm renders an empty semester form
func (c *SemesterController) CreateForm(ctx *gin.Context) {
	renderForm(ctx, http.StatusOK, semesterForm("Create semester", "/semesters/create", dto.SemesterInput{}))
}

// Create adds a semester
func (c *SemesterController) Create(ctx *gin.Context) {
	var in dto.SemesterInput
	form := func() views.Form { return semesterForm("Create semester", "/semesters/create", in) }
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, form(), err)
		return
	}
	if _, err := c.semesterService.Create(ctx.Request.Context(), in); err != nil {
		formFailed(ctx, form(), err)
		return
	}
	redirect(ctx, "/semesters")
}

// EditForm renders the form pre-filled with the stored semester
func (c *SemesterController) EditForm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	semester, err := c.semesterService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	in := dto.SemesterInput{Number: semester.Number, Year: semester.Year}
	renderForm(ctx, http.StatusOK, semesterForm("Update semester", updatePath("/semesters", id), in))
}

// Update writes the posted semester
func (c *SemesterController) Update(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	var in dto.SemesterInput
	form := func() views.Form { return semesterForm("Update semester", updatePath("/semesters", id), in) }
	if err := bind(ctx, &in); err != nil {
		formFailed(ctx, form(), err)
		return
	}
	if _, err := c.semesterService.Update(ctx.Request.Context(), id, in); err != nil {
		formFailed(ctx, form(), err)
		return
	}
	redirect(ctx, "/semesters")
}

// DeleteConfirm asks before deleting a semester
func (c *SemesterController) DeleteConfirm(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	semester, err := c.semesterService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	renderConfirm(ctx, deleteConfirm(semester.String(), deletePath("/semesters", id), "/semesters",
		"Its classes and their enrolments are deleted as well."))
}

// Delete removes a semester with its classes
func (c *SemesterController) Delete(ctx *gin.Context) {
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	if err := c.semesterService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	redirect(ctx, "/semesters")
}

func updatePath(base string, id int64) string {
	return base + "/update/" + strconv.FormatInt(id, 10)
}

func deletePath(base string, id int64) string {
	return base + "/delete/" + strconv.FormatInt(id, 10)
}

func deleteConfirm(object, action, cancel, consequence string) views.Confirm {
	msg := "Are you sure you want to delete " + object + "?"
	if consequence != "" {
		msg += " " + consequence
	}
	return views.Confirm{
		Title:   "Delete " + object,
		Message: msg,
		Action:  action,
		Submit:  "Yes, delete",
		Cancel:  cancel,
		Danger:  true,
	}
}
