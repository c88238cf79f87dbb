package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/controllers"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/websocket"
)

// Controllers groups the page controllers mounted by SetupRouter
type Controllers struct {
	Auth       *controllers.AuthController
	Semesters  *controllers.SemesterController
	Courses    *controllers.CourseController
	Classes    *controllers.ClassController
	Students   *controllers.StudentController
	Lecturers  *controllers.LecturerController
	Enrolments *controllers.EnrolmentController
	Dashboards *controllers.DashboardController
	Import     *controllers.ImportController
	Health     *controllers.HealthController
	LiveGrades *websocket.Handler
}

// crud is the controller shape shared by the admin catalog pages
type crud interface {
	List(ctx *gin.Context)
	CreateForm(ctx *gin.Context)
	Create(ctx *gin.Context)
	EditForm(ctx *gin.Context)
	Update(ctx *gin.Context)
	DeleteConfirm(ctx *gin.Context)
	Delete(ctx *gin.Context)
}

func mountCRUD(group *gin.RouterGroup, c crud) {
	group.GET("", c.List)
	group.GET("/create", c.CreateForm)
	group.POST("/create", c.Create)
	group.GET("/update/:id", c.EditForm)
	group.POST("/update/:id", c.Update)
	group.GET("/delete/:id", c.DeleteConfirm)
	group.POST("/delete/:id", c.Delete)
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// --- Operational endpoints, no session needed ---
	router.GET("/health", c.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	site := router.Group("")
	site.Use(authMiddleware.Authenticate())

	// --- Public pages ---
	site.GET("/", c.Auth.Home)
	for _, role := range []appauth.Role{appauth.RoleAdmin, appauth.RoleLecturer, appauth.RoleStudent} {
		site.GET(appauth.LoginPath(role), c.Auth.LoginForm(role))
		site.POST(appauth.LoginPath(role), c.Auth.Login(role))
	}
	site.GET("/logout", c.Auth.Logout)
	site.POST("/logout", c.Auth.Logout)

	// --- Admin pages ---
	admin := site.Group("")
	admin.Use(authMiddleware.RequireAdmin())
	{
		admin.GET("/admin/dashboard", c.Dashboards.Admin)

		// Registered before the student CRUD group so /students/import is not read as an id.
		admin.GET("/students/import", c.Import.Form)
		admin.POST("/students/import", c.Import.Import)

		mountCRUD(admin.Group("/semesters"), c.Semesters)
		mountCRUD(admin.Group("/courses"), c.Courses)
		mountCRUD(admin.Group("/classes"), c.Classes)
		mountCRUD(admin.Group("/students"), c.Students)
		mountCRUD(admin.Group("/lecturers"), c.Lecturers)

		admin.GET("/assign-lecturer/:class_id", c.Classes.AssignLecturerForm)
		admin.POST("/assign-lecturer/:class_id", c.Classes.AssignLecturer)

		admin.GET("/enrolments", c.Enrolments.List)
		admin.GET("/enrolments/create", c.Enrolments.CreateForm)
		admin.POST("/enrolments/create", c.Enrolments.Create)
		admin.POST("/enrolments/delete/:id", c.Enrolments.Delete)
	}

	// --- Lecturer pages ---
	lecturer := site.Group("")
	lecturer.Use(authMiddleware.RequireLecturer())
	{
		lecturer.GET("/lecturer/dashboard", c.Dashboards.Lecturer)
		lecturer.GET("/lecturer/classes/:class_id", c.Dashboards.LecturerClass)
		lecturer.GET("/assign-grade/:enrolment_id", c.Enrolments.GradeForm)
		lecturer.POST("/assign-grade/:enrolment_id", c.Enrolments.AssignGrade)
	}

	// --- Student pages ---
	student := site.Group("")
	student.Use(authMiddleware.RequireStudent())
	{
		student.GET("/student/dashboard", c.Dashboards.Student)
		student.GET("/enrol/:class_id", c.Enrolments.EnrolConfirm)
		student.POST("/enrol/:class_id", c.Enrolments.Enrol)
		student.GET("/student/notifications/ws", c.LiveGrades.HandleConnection)
	}

	router.NoRoute(authMiddleware.Authenticate(), middleware.NotFound())
}
