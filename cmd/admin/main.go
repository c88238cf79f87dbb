package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	appMigrations "github.com/yigit/gradebook/internal/app/migrations"
	"github.com/yigit/gradebook/internal/app/models/dto"
	appRepos "github.com/yigit/gradebook/internal/app/repositories"
	appServices "github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/bootstrap"
	"github.com/yigit/gradebook/internal/config"
	"github.com/yigit/gradebook/internal/pkg/logger"
	"github.com/yigit/gradebook/internal/seed"
)

func main() {
	app := &cli.App{
		Name:  "gradebook-admin",
		Usage: "maintenance commands for the gradebook database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   bootstrap.DefaultConfigPath,
				EnvVars: []string{"CONFIG_PATH"},
				Usage:   "path to the YAML config file",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			createAdminCommand(),
			resetPasswordCommand(),
			importStudentsCommand(),
			seedDemoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// withServices runs fn against services backed by the configured database.
// Grade notifications are not sent from the CLI.
func withServices(c *cli.Context, fn func(ctx context.Context, s *appServices.Services, lgr zerolog.Logger) error) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	dbPool, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	s := bootstrap.BuildServices(cfg, appRepos.NewRepositories(dbPool), nil, lgr)
	return fn(c.Context, s, lgr)
}

func loadConfig(c *cli.Context) (*config.Config, zerolog.Logger, error) {
	return bootstrap.LoadConfigAndSetupLogger(c.String("config"))
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the embedded schema migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "down", Usage: "roll back every migration instead"},
		},
		Action: func(c *cli.Context) error {
			cfg, lgr, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("down") {
				return appMigrations.NewMigrator(cfg.GetMigrationURL(), lgr).Down()
			}
			return bootstrap.Migrate(cfg, lgr)
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "create a superuser identity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "first-name"},
			&cli.StringFlag{Name: "last-name"},
		},
		Action: func(c *cli.Context) error {
			return withServices(c, func(ctx context.Context, s *appServices.Services, lgr zerolog.Logger) error {
				u, err := s.Auth.CreateSuperuser(ctx, dto.AdminInput{
					Email:     c.String("email"),
					Password:  c.String("password"),
					FirstName: c.String("first-name"),
					LastName:  c.String("last-name"),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "created superuser %s (id %d)\n", u.Username, u.ID)
				return nil
			})
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "set a new password for any identity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Usage: "the login username"},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			return withServices(c, func(ctx context.Context, s *appServices.Services, lgr zerolog.Logger) error {
				if err := s.Auth.SetPassword(ctx, c.String("email"), c.String("password")); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "password updated for %s\n", c.String("email"))
				return nil
			})
		},
	}
}

func importStudentsCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-students",
		Usage:     "create students from a .csv or .xlsx file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "continue-on-error", Usage: "keep going after a failing row"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("a spreadsheet path is required", 2)
			}
			return withServices(c, func(ctx context.Context, s *appServices.Services, lgr zerolog.Logger) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				report, err := s.Import.Import(ctx, filepath.Base(path), f, c.Bool("continue-on-error"))
				if err != nil {
					return err
				}
				printReport(c, report)
				if report.Failed > 0 {
					return cli.Exit(fmt.Sprintf("%d row(s) failed", report.Failed), 1)
				}
				return nil
			})
		},
	}
}

func printReport(c *cli.Context, report *dto.ImportReport) {
	w := c.App.Writer
	for _, row := range report.Rows {
		if row.Error != "" {
			fmt.Fprintf(w, "line %d\t%s\tFAILED: %s\n", row.Line, row.Email, row.Error)
			continue
		}
		fmt.Fprintf(w, "line %d\t%s\tstudent %d\n", row.Line, row.Email, row.StudentID)
	}
	fmt.Fprintf(w, "created %d, failed %d", report.Created, report.Failed)
	if report.Aborted {
		fmt.Fprintf(w, ", aborted with %d row(s) not processed", report.Skipped)
	}
	fmt.Fprintln(w)
}

func seedDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-demo",
		Usage: "fill an empty catalog with a demo semester, course, lecturer, student and class",
		Action: func(c *cli.Context) error {
			return withServices(c, func(ctx context.Context, s *appServices.Services, lgr zerolog.Logger) error {
				if err := seed.CreateDemoData(ctx, s, lgr); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "demo users share the password %q\n", seed.DemoPassword)
				return nil
			})
		},
	}
}
