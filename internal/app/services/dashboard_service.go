package services

import (
	"context"
	"fmt"

	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories"
)

// StudentDashboard is what a student sees after login
type StudentDashboard struct {
	Enrolments []*models.Enrolment
	// Classes lists every class the student can enrol in.
	Classes []*models.Class
}

// DashboardService assembles the landing pages
type DashboardService interface {
	AdminCounts(ctx context.Context) (*dto.DashboardCounts, error)
	Student(ctx context.Context, studentID int64) (*StudentDashboard, error)
}

type dashboardServiceImpl struct {
	repos *repositories.Repositories
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repos *repositories.Repositories) DashboardService {
	return &dashboardServiceImpl{repos: repos}
}

func (s *dashboardServiceImpl) AdminCounts(ctx context.Context) (*dto.DashboardCounts, error) {
	var counts dto.DashboardCounts
	var err error

	if counts.Students, err = s.repos.Students.Count(ctx); err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	if counts.Lecturers, err = s.repos.Lecturers.Count(ctx); err != nil {
		return nil, fmt.Errorf("count lecturers: %w", err)
	}

	semesters, err := s.repos.Semesters.List(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.repos.Courses.List(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.repos.Classes.List(ctx)
	if err != nil {
		return nil, err
	}
	enrolments, err := s.repos.Enrolments.List(ctx)
	if err != nil {
		return nil, err
	}
	counts.Semesters = len(semesters)
	counts.Courses = len(courses)
	counts.Classes = len(classes)
	counts.Enrolments = len(enrolments)
	return &counts, nil
}

func (s *dashboardServiceImpl) Student(ctx context.Context, studentID int64) (*StudentDashboard, error) {
	enrolments, err := s.repos.Enrolments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	classes, err := s.repos.Classes.List(ctx)
	if err != nil {
		return nil, err
	}
	return &StudentDashboard{Enrolments: enrolments, Classes: classes}, nil
}
