// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes
const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

var (
	// GradesAssigned counts committed grade assignments.
	GradesAssigned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradebook_grades_assigned_total",
		Help: "Number of grades assigned by lecturers",
	})

	// StudentsImported counts bulk import rows by outcome.
	StudentsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_students_imported_total",
			Help: "Number of spreadsheet rows processed by the student import",
		},
		[]string{"outcome"},
	)

	// NotificationFailures counts grade notifications that could not be delivered.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gradebook_notification_failures_total",
		Help: "Number of grade notifications that failed to deliver",
	})
)
