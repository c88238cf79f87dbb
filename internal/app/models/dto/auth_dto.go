package dto

// LoginInput is the login form shared by all three role login pages
type LoginInput struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Next     string `form:"next"`
}

// ImportRowResult is the outcome of one spreadsheet row
type ImportRowResult struct {
	Line      int
	Email     string
	StudentID int64
	Error     string
}

// ImportReport summarises a bulk student import
type ImportReport struct {
	Rows    []ImportRowResult
	Created int
	Failed  int
	// Aborted is set when the import stopped at the first failing row.
	Aborted bool
	Skipped int
}

// Counts shown on the admin dashboard
type DashboardCounts struct {
	Semesters  int
	Courses    int
	Classes    int
	Students   int
	Lecturers  int
	Enrolments int
}
