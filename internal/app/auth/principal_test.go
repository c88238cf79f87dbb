package auth

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/app/models"
	"github.com/yigit/gradebook/internal/app/repositories/inmem"
)

func TestCheck_TruthTable(t *testing.T) {
	principals := map[string]Principal{
		"anonymous": Anonymous(),
		"admin":     {Role: RoleAdmin, User: &models.User{ID: 1, IsSuperuser: true}},
		"lecturer":  {Role: RoleLecturer, User: &models.User{ID: 2}, Lecturer: &models.Lecturer{ID: 1, UserID: 2}},
		"student":   {Role: RoleStudent, User: &models.User{ID: 3}, Student: &models.Student{ID: 1, UserID: 3}},
		"admin+student": {
			Role:    RoleAdmin,
			User:    &models.User{ID: 4, IsSuperuser: true},
			Student: &models.Student{ID: 2, UserID: 4},
		},
	}
	want := map[Role]map[string]Decision{
		RoleAdmin:    {"anonymous": Redirect, "admin": Pass, "lecturer": Forbid, "student": Forbid, "admin+student": Pass},
		RoleLecturer: {"anonymous": Redirect, "admin": Forbid, "lecturer": Pass, "student": Forbid, "admin+student": Forbid},
		RoleStudent:  {"anonymous": Redirect, "admin": Forbid, "lecturer": Forbid, "student": Pass, "admin+student": Pass},
	}

	for gate, row := range want {
		for name, decision := range row {
			t.Run(gate.String()+"/"+name, func(t *testing.T) {
				assert.Equal(t, decision, Check(gate, principals[name]))
			})
		}
	}
}

func TestCheck_RoleWithoutUserIsAnonymous(t *testing.T) {
	assert.Equal(t, Redirect, Check(RoleAdmin, Principal{Role: RoleAdmin}))
	assert.False(t, Principal{Role: RoleStudent, Student: &models.Student{ID: 1}}.Holds(RoleStudent))
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, RoleAnonymous, FromContext(context.Background()).Role)

	p := Principal{Role: RoleStudent, User: &models.User{ID: 3}}
	got := FromContext(WithPrincipal(context.Background(), p))
	assert.Equal(t, RoleStudent, got.Role)
	assert.Equal(t, int64(3), got.User.ID)
}

func TestLoginPath(t *testing.T) {
	assert.Equal(t, "/admin/login", LoginPath(RoleAdmin))
	assert.Equal(t, "/lecturer/login", LoginPath(RoleLecturer))
	assert.Equal(t, "/student/login", LoginPath(RoleStudent))
}

func TestAuthorizationService_Resolve(t *testing.T) {
	ctx := context.Background()
	repos := inmem.NewStore().Repositories()
	svc := NewAuthorizationService(repos)

	courseID, err := repos.Courses.Create(ctx, &models.Course{Name: "Algebra", Code: "MA101"})
	require.NoError(t, err)

	mk := func(name string, superuser, active bool) *models.User {
		u := &models.User{Username: name, Email: name, IsSuperuser: superuser, IsActive: active}
		_, err := repos.Users.Create(ctx, u)
		require.NoError(t, err)
		return u
	}

	admin := mk("admin@x.test", true, true)
	lecturer := mk("lee@x.test", false, true)
	_, err = repos.Lecturers.Create(ctx, &models.Lecturer{UserID: lecturer.ID, CourseID: courseID})
	require.NoError(t, err)
	student := mk("sam@x.test", false, true)
	_, err = repos.Students.Create(ctx, &models.Student{UserID: student.ID})
	require.NoError(t, err)
	both := mk("both@x.test", false, true)
	_, err = repos.Lecturers.Create(ctx, &models.Lecturer{UserID: both.ID, CourseID: courseID})
	require.NoError(t, err)
	_, err = repos.Students.Create(ctx, &models.Student{UserID: both.ID})
	require.NoError(t, err)
	nobody := mk("nobody@x.test", false, true)
	inactive := mk("gone@x.test", true, false)

	tests := []struct {
		name  string
		id    int64
		want  Role
		holds []Role
	}{
		{"superuser", admin.ID, RoleAdmin, []Role{RoleAdmin}},
		{"lecturer", lecturer.ID, RoleLecturer, []Role{RoleLecturer}},
		{"student", student.ID, RoleStudent, []Role{RoleStudent}},
		{"lecturer is primary over student", both.ID, RoleLecturer, []Role{RoleLecturer, RoleStudent}},
		{"no role", nobody.ID, RoleAnonymous, nil},
		{"inactive", inactive.ID, RoleAnonymous, nil},
		{"unknown id", 999, RoleAnonymous, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Resolve(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Role)
			for _, role := range []Role{RoleAdmin, RoleLecturer, RoleStudent} {
				assert.Equal(t, slices.Contains(tt.holds, role), p.Holds(role), role.String())
			}
		})
	}
}
