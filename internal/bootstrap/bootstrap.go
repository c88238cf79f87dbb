package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/gradebook/internal/app/controllers"
	appMigrations "github.com/yigit/gradebook/internal/app/migrations"
	appRepos "github.com/yigit/gradebook/internal/app/repositories"
	appRoutes "github.com/yigit/gradebook/internal/app/routes"
	appServices "github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/config"
	"github.com/yigit/gradebook/internal/db"
	appMiddleware "github.com/yigit/gradebook/internal/middleware"
	pkgAuth "github.com/yigit/gradebook/internal/pkg/auth"
	"github.com/yigit/gradebook/internal/pkg/email"
	"github.com/yigit/gradebook/internal/pkg/filestorage"
	"github.com/yigit/gradebook/internal/pkg/logger"
	"github.com/yigit/gradebook/internal/pkg/notify"
	"github.com/yigit/gradebook/internal/pkg/websocket"
	"github.com/yigit/gradebook/internal/seed"
)

// DefaultConfigPath is used when no --config flag is given
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	// Hub fans grade events out to connected student dashboards.
	Hub *websocket.Hub
	// Redis is nil when the redis section is disabled.
	Redis  *redis.Client
	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the connection pool without touching the schema.
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(cfg *config.Config, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(cfg.GetMigrationURL(), lgr).Up(); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	return nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	dbPool, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}
	if err := Migrate(cfg, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}
	return dbPool, nil
}

// SetupRedis connects to redis when it is enabled. A nil client means live
// grade events stay inside this process.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		lgr.Info().Msg("Redis disabled, grade events are delivered in-process")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to ping redis")
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connection established")
	return client, nil
}

// NewMailer builds the mail backend named in the email section.
func NewMailer(cfg *config.Config, lgr zerolog.Logger) (email.Mailer, error) {
	return email.New(email.Config{
		Backend:   cfg.Email.Backend,
		FromName:  cfg.Email.FromName,
		FromEmail: cfg.Email.FromEmail,
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			UseTLS:   cfg.Email.SMTPUseTLS,
		},
		SendgridAPIKey: cfg.Email.SendgridAPIKey,
	}, logger.Component("email"))
}

// BuildServices wires the service layer on top of repos. notifier may be nil.
func BuildServices(cfg *config.Config, repos *appRepos.Repositories, notifier appServices.GradeNotifier, lgr zerolog.Logger) *appServices.Services {
	sessions := pkgAuth.NewSessionManager(pkgAuth.SessionConfig{
		SecretKey: cfg.Session.Secret,
		TTL:       cfg.SessionTTL(),
		Issuer:    cfg.Session.Issuer,
	})

	return appServices.New(appServices.Deps{
		Repos:          repos,
		Sessions:       sessions,
		Notifier:       notifier,
		ImportPassword: cfg.Import.DefaultPassword,
		Logger:         lgr,
	})
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Redis: redisClient}

	mailer, err := NewMailer(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize mailer")
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	deps.Hub = websocket.NewHub(logger.Component("live_grades"))

	emailTimeout, _ := time.ParseDuration(cfg.Email.Timeout)
	dispatcher := notify.NewDispatcher(mailer, redisClient, emailTimeout, logger.Component("notify"))
	if redisClient == nil {
		dispatcher = dispatcher.WithLiveFeed(deps.Hub)
	}

	deps.Services = BuildServices(cfg, appRepos.NewRepositories(dbPool), dispatcher, lgr)
	s := deps.Services

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(s.Auth, cfg.Session.CookieName)

	importController := appControllers.NewImportController(s.Import, cfg.MaxUploadBytes(), lgr)
	if cfg.Import.ArchiveDir != "" {
		archive, err := filestorage.NewLocalStorage(cfg.Import.ArchiveDir, logger.Component("import_archive"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize import archive: %w", err)
		}
		importController.WithArchive(archive)
	}

	deps.Controllers = appRoutes.Controllers{
		Auth: appControllers.NewAuthController(s.Auth, appControllers.SessionCookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.SecureCookie,
		}, lgr),
		Semesters:  appControllers.NewSemesterController(s.Semesters),
		Courses:    appControllers.NewCourseController(s.Courses),
		Classes:    appControllers.NewClassController(s.Classes, s.Semesters, s.Courses, s.Provisioning),
		Students:   appControllers.NewStudentController(s.Provisioning),
		Lecturers:  appControllers.NewLecturerController(s.Provisioning, s.Courses),
		Enrolments: appControllers.NewEnrolmentController(s.Enrolments, s.Classes, s.Provisioning),
		Dashboards: appControllers.NewDashboardController(s.Dashboard, s.Classes, s.Enrolments),
		Import:     importController,
		Health:     appControllers.NewHealthController(dbPool),
		LiveGrades: websocket.NewHandler(deps.Hub, lgr),
	}

	return deps, nil
}

// SeedDefaults creates the configured superuser.
func SeedDefaults(ctx context.Context, cfg *config.Config, deps *Dependencies) error {
	return seed.EnsureDefaultAdmin(ctx, deps.Services.Auth, cfg, deps.Logger)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(appMiddleware.Recovery(), appMiddleware.RequestLogger(lgr), appMiddleware.Metrics())
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router, nil
}
