// Package seed creates the data a fresh installation needs.
package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/config"
)

// EnsureDefaultAdmin creates the superuser from the admin config section
// unless an identity with that email already exists.
func EnsureDefaultAdmin(ctx context.Context, authService services.AuthService, cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		lgr.Info().Msg("No default admin configured, skipping")
		return nil
	}

	created, err := authService.EnsureSuperuser(ctx, dto.AdminInput{
		Email:     cfg.Admin.Email,
		FirstName: cfg.Admin.FirstName,
		LastName:  cfg.Admin.LastName,
		Password:  cfg.Admin.Password,
	})
	if err != nil {
		return err
	}
	if created {
		lgr.Info().Str("email", cfg.Admin.Email).Msg("Default admin user created")
	}
	return nil
}

// DemoPassword is the password of the demo lecturer and student
const DemoPassword = "demo-password"

// CreateDemoData fills an empty catalog with one semester, course, lecturer,
// student and class so the three dashboards have something to show.
// It does nothing when any course exists.
func CreateDemoData(ctx context.Context, s *services.Services, lgr zerolog.Logger) error {
	courses, err := s.Courses.List(ctx)
	if err != nil {
		return err
	}
	if len(courses) > 0 {
		lgr.Info().Msg("Catalog is not empty, skipping demo data")
		return nil
	}

	var finalErr error // collect errors without stopping the process

	semester, err := s.Semesters.Create(ctx, dto.SemesterInput{Number: 1, Year: 2025})
	if err != nil {
		return err
	}
	course, err := s.Courses.Create(ctx, dto.CourseInput{Name: "Linear Algebra", Code: "MA101"})
	if err != nil {
		return err
	}

	lecturer, err := s.Provisioning.CreateLecturer(ctx, dto.LecturerInput{
		PersonInput: dto.PersonInput{
			Email: "ada.lovelace@uni.example", FirstName: "Ada", LastName: "Lovelace",
			Password: DemoPassword, DOB: "1980-12-10",
		},
		CourseID: course.ID,
	})
	if err != nil {
		return err
	}

	if _, err := s.Classes.Create(ctx, dto.ClassInput{
		Number: 1, SemesterID: semester.ID, CourseID: course.ID, LecturerID: lecturer.UserID,
	}); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo class")
		finalErr = errors.Join(finalErr, err)
	}

	if _, err := s.Provisioning.CreateStudent(ctx, dto.StudentInput{
		PersonInput: dto.PersonInput{
			Email: "alan.turing@uni.example", FirstName: "Alan", LastName: "Turing",
			Password: DemoPassword, DOB: "2004-06-23",
		},
	}); err != nil {
		lgr.Error().Err(err).Msg("Error creating demo student")
		finalErr = errors.Join(finalErr, err)
	}

	if finalErr == nil {
		lgr.Info().Msg("Demo data created")
	}
	return finalErr
}
