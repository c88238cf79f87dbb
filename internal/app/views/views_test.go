package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesEveryPage(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)

	for _, name := range []string{
		"home.html", "login.html", "error.html", "form.html", "confirm.html", "import.html",
		"admin_dashboard.html", "lecturer_dashboard.html", "student_dashboard.html", "class_detail.html",
		"semester_list.html", "course_list.html", "class_list.html", "student_list.html",
		"lecturer_list.html", "enrolment_list.html",
	} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestForm_RendersErrorsAndSelection(t *testing.T) {
	tmpl, err := Load()
	require.NoError(t, err)

	form := Form{
		Title:  "Create class",
		Action: "/classes/create",
		Submit: "Save",
		Fields: []Field{
			Text("number", "Number", "number", "3"),
			Select("course_id", "Course", 2, []Option{IDOption(1, "MA101"), IDOption(2, "CS201")}),
		},
		Errors: map[string]string{"number": "This field is required."},
	}

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "form.html", map[string]any{"Title": form.Title, "Form": form}))
	out := buf.String()
	assert.Contains(t, out, `<option value="2" selected>CS201</option>`)
	assert.Contains(t, out, "This field is required.")
	assert.Contains(t, out, `value="3"`)
}
