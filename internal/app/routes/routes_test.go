package routes

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/app/controllers"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/repositories/inmem"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/app/views"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/auth"
	"github.com/yigit/gradebook/internal/pkg/websocket"
	"golang.org/x/crypto/bcrypt"
)

const (
	cookieName = "gradebook_session"
	password   = "correct-horse"
)

func init() {
	gin.SetMode(gin.TestMode)
	auth.BcryptCost = bcrypt.MinCost
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type memoryArchive struct {
	mu    sync.Mutex
	files map[string]string
}

func (a *memoryArchive) Save(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files[filename] = string(data)
	return filename, nil
}

func (a *memoryArchive) Delete(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, path)
	return nil
}

type testApp struct {
	router  *gin.Engine
	svc     *services.Services
	archive *memoryArchive
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	lgr := zerolog.Nop()
	svc := services.New(services.Deps{
		Repos:          inmem.NewStore().Repositories(),
		Sessions:       auth.NewSessionManager(auth.SessionConfig{SecretKey: "test", TTL: time.Hour, Issuer: "test"}),
		ImportPassword: "imported-pass",
		Logger:         lgr,
	})
	archive := &memoryArchive{files: map[string]string{}}

	tmpl, err := views.Load()
	require.NoError(t, err)
	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	SetupRouter(router, Controllers{
		Auth:       controllers.NewAuthController(svc.Auth, controllers.SessionCookie{Name: cookieName}, lgr),
		Semesters:  controllers.NewSemesterController(svc.Semesters),
		Courses:    controllers.NewCourseController(svc.Courses),
		Classes:    controllers.NewClassController(svc.Classes, svc.Semesters, svc.Courses, svc.Provisioning),
		Students:   controllers.NewStudentController(svc.Provisioning),
		Lecturers:  controllers.NewLecturerController(svc.Provisioning, svc.Courses),
		Enrolments: controllers.NewEnrolmentController(svc.Enrolments, svc.Classes, svc.Provisioning),
		Dashboards: controllers.NewDashboardController(svc.Dashboard, svc.Classes, svc.Enrolments),
		Import:     controllers.NewImportController(svc.Import, 1<<20, lgr).WithArchive(archive),
		Health:     controllers.NewHealthController(okPinger{}),
		LiveGrades: websocket.NewHandler(websocket.NewHub(lgr), lgr),
	}, middleware.NewAuthMiddleware(svc.Auth, cookieName))

	return &testApp{router: router, svc: svc, archive: archive}
}

func (a *testApp) do(req *http.Request, session string) *httptest.ResponseRecorder {
	if session != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: session})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path, session string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil), session)
}

func (a *testApp) post(path, session string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, session)
}

// login posts the credentials to the login page of role and returns the session token
func (a *testApp) login(t *testing.T, role, username string) string {
	t.Helper()
	w := a.post("/"+role+"/login", "", url.Values{"username": {username}, "password": {password}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			require.True(t, c.HttpOnly)
			return c.Value
		}
	}
	t.Fatalf("no session cookie set for %s", username)
	return ""
}

func requireRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.Equal(t, location, w.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUnknownRouteRendersNotFound(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/nowhere", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.MsgNotFound)
}

func TestGradebookFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	_, err := app.svc.Auth.CreateSuperuser(ctx, dto.AdminInput{Email: "root@uni.example", Password: password})
	require.NoError(t, err)

	// anonymous callers are sent to the matching login page
	requireRedirect(t, app.get("/admin/dashboard", ""), "/admin/login?next=%2Fadmin%2Fdashboard")

	w := app.post("/admin/login", "", url.Values{"username": {"root@uni.example"}, "password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = app.post("/admin/login", "", url.Values{
		"username": {"root@uni.example"}, "password": {password}, "next": {"/semesters"},
	})
	requireRedirect(t, w, "/semesters")
	admin := app.login(t, "admin", "root@uni.example")

	requireRedirect(t, app.post("/semesters/create", admin, url.Values{"number": {"1"}, "year": {"2025"}}), "/semesters")
	requireRedirect(t, app.post("/courses/create", admin, url.Values{"name": {"Linear Algebra"}, "code": {"MA101"}}), "/courses")

	w = app.post("/courses/create", admin, url.Values{"name": {""}, "code": {"MA102"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	courses, err := app.svc.Courses.List(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	courseID := courses[0].ID

	person := func(email, first string) url.Values {
		return url.Values{
			"email": {email}, "first_name": {first}, "last_name": {"Tester"},
			"password": {password}, "dob": {"1990-01-02"},
		}
	}
	lecturerForm := person("ada@uni.example", "Ada")
	lecturerForm.Set("course_id", views.Int(courseID))
	requireRedirect(t, app.post("/lecturers/create", admin, lecturerForm), "/lecturers")
	otherForm := person("grace@uni.example", "Grace")
	otherForm.Set("course_id", views.Int(courseID))
	requireRedirect(t, app.post("/lecturers/create", admin, otherForm), "/lecturers")
	requireRedirect(t, app.post("/students/create", admin, person("alan@uni.example", "Alan")), "/students")

	lecturers, err := app.svc.Provisioning.ListLecturers(ctx)
	require.NoError(t, err)
	require.Len(t, lecturers, 2)
	semesters, err := app.svc.Semesters.List(ctx)
	require.NoError(t, err)

	requireRedirect(t, app.post("/classes/create", admin, url.Values{
		"number":      {"1"},
		"semester_id": {views.Int(semesters[0].ID)},
		"course_id":   {views.Int(courseID)},
		"lecturer_id": {views.Int(lecturers[0].UserID)},
	}), "/classes")
	classes, err := app.svc.Classes.List(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	classID := classes[0].ID

	w = app.get("/admin/dashboard", admin)
	assert.Equal(t, http.StatusOK, w.Code)

	// student enrols
	student := app.login(t, "student", "alan@uni.example")
	assert.Equal(t, http.StatusForbidden, app.get("/admin/dashboard", student).Code)
	assert.Equal(t, http.StatusOK, app.get("/enrol/"+views.Int(classID), student).Code)
	requireRedirect(t, app.post("/enrol/"+views.Int(classID), student, nil), "/student/dashboard")

	enrolments, err := app.svc.Enrolments.ListForClass(ctx, classID)
	require.NoError(t, err)
	require.Len(t, enrolments, 1)
	enrolmentPath := "/assign-grade/" + views.Int(enrolments[0].ID)

	// a lecturer cannot log in on the student page
	w = app.post("/student/login", "", url.Values{"username": {"ada@uni.example"}, "password": {password}})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.MsgNoLoginPermission)

	lecturer := app.login(t, "lecturer", "ada@uni.example")
	w = app.get("/lecturer/classes/"+views.Int(classID), lecturer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alan Tester")

	w = app.post(enrolmentPath, lecturer, url.Values{"grade": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	requireRedirect(t, app.post(enrolmentPath, lecturer, url.Values{"grade": {"87.5"}}), "/lecturer/classes/"+views.Int(classID))

	// the other lecturer does not teach the class
	other := app.login(t, "lecturer", "grace@uni.example")
	assert.Equal(t, http.StatusForbidden, app.post(enrolmentPath, other, url.Values{"grade": {"10"}}).Code)
	assert.Equal(t, http.StatusForbidden, app.get("/lecturer/classes/"+views.Int(classID), other).Code)

	w = app.get("/student/dashboard", student)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "87.50")

	// logout clears the cookie
	w = app.post("/logout", student, nil)
	requireRedirect(t, w, "/")
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func upload(t *testing.T, filename, content string, continueOnError bool) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	if continueOnError {
		require.NoError(t, mw.WriteField("continue_on_error", "on"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestStudentImportUpload(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	_, err := app.svc.Auth.CreateSuperuser(ctx, dto.AdminInput{Email: "root@uni.example", Password: password})
	require.NoError(t, err)
	admin := app.login(t, "admin", "root@uni.example")

	roster := "email,first_name,last_name,dob\n" +
		"ann@uni.example,Ann,Smith,2004-05-06\n" +
		"bad-email,Bob,Jones,2004-05-06\n" +
		"cy@uni.example,Cy,Young,2003-01-01\n"

	w := app.do(upload(t, "roster.csv", roster, true), admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "2 created, 1 failed")
	assert.Equal(t, roster, app.archive.files["roster.csv"])

	students, err := app.svc.Provisioning.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	// imported students log in with the import password
	w = app.post("/student/login", "", url.Values{"username": {"ann@uni.example"}, "password": {"imported-pass"}})
	assert.Equal(t, http.StatusFound, w.Code)

	w = app.do(upload(t, "roster.txt", "whatever", false), admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, app.archive.files, "roster.txt")
}
