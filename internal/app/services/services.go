package services

import (
	"github.com/rs/zerolog"
	appauth "github.com/yigit/gradebook/internal/app/auth"
	"github.com/yigit/gradebook/internal/app/repositories"
	"github.com/yigit/gradebook/internal/pkg/auth"
)

// Services groups every service the HTTP layer and the CLI use:
// - Auth: logins, sessions, superusers
// - Provisioning: student and lecturer accounts
// - Semesters, Courses, Classes: catalog CRUD
// - Enrolments: enrolment and grading
// - Import: roster spreadsheets
// - Dashboard: landing page data
type Services struct {
	Auth         AuthService
	Provisioning ProvisioningService
	Semesters    SemesterService
	Courses      CourseService
	Classes      ClassService
	Enrolments   EnrolmentService
	Import       ImportService
	Dashboard    DashboardService
}

// Deps are the collaborators the services are built from
type Deps struct {
	Repos          *repositories.Repositories
	Sessions       *auth.SessionManager
	Notifier       GradeNotifier
	ImportPassword string
	Logger         zerolog.Logger
}

// New wires the services together
func New(d Deps) *Services {
	authz := appauth.NewAuthorizationService(d.Repos)
	provisioning := NewProvisioningService(d.Repos, d.Logger.With().Str("service", "provisioning").Logger())

	return &Services{
		Auth:         NewAuthService(d.Repos, authz, d.Sessions, d.Logger.With().Str("service", "auth").Logger()),
		Provisioning: provisioning,
		Semesters:    NewSemesterService(d.Repos.Semesters),
		Courses:      NewCourseService(d.Repos.Courses),
		Classes:      NewClassService(d.Repos, d.Logger.With().Str("service", "class").Logger()),
		Enrolments:   NewEnrolmentService(d.Repos, d.Notifier, d.Logger.With().Str("service", "enrolment").Logger()),
		Import:       NewImportService(provisioning, d.ImportPassword, d.Logger.With().Str("service", "import").Logger()),
		Dashboard:    NewDashboardService(d.Repos),
	}
}
