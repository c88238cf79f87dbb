package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// DashboardController renders the per-role landing pages
type DashboardController struct {
	dashboardService services.DashboardService
	classService     services.ClassService
	enrolmentService services.EnrolmentService
}

// NewDashboardController creates a new DashboardController
func NewDashboardController(dashboardService services.DashboardService, classService services.ClassService,
	enrolmentService services.EnrolmentService) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
		classService:     classService,
		enrolmentService: enrolmentService,
	}
}

// Admin shows entity counts
func (c *DashboardController) Admin(ctx *gin.Context) {
	counts, err := c.dashboardService.AdminCounts(ctx.Request.Context())
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "admin_dashboard.html", gin.H{"Title": "Administration", "Counts": counts})
}

// Lecturer lists the classes taught by the current lecturer
func (c *DashboardController) Lecturer(ctx *gin.Context) {
	user := middleware.CurrentPrincipal(ctx).User
	classes, err := c.classService.ListForLecturer(ctx.Request.Context(), user.ID)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "lecturer_dashboard.html", gin.H{"Title": "My classes", "Classes": classes})
}

// LecturerClass lists the enrolments of one of the current lecturer's classes
func (c *DashboardController) LecturerClass(ctx *gin.Context) {
	classID, err := helpers.ParseIDParam(ctx, "class_id")
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	user := middleware.CurrentPrincipal(ctx).User
	class, err := c.classService.GetForLecturer(ctx.Request.Context(), user.ID, classID)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	enrolments, err := c.enrolmentService.ListForClass(ctx.Request.Context(), classID)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "class_detail.html", gin.H{
		"Title":      class.String(),
		"Class":      class,
		"Enrolments": enrolments,
	})
}

// Student shows the current student's grades and the classes open for enrolment
func (c *DashboardController) Student(ctx *gin.Context) {
	student := middleware.CurrentPrincipal(ctx).Student
	board, err := c.dashboardService.Student(ctx.Request.Context(), student.ID)
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "student_dashboard.html", gin.H{"Title": "My grades", "Board": board})
}
