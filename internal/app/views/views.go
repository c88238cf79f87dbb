// Package views holds the embedded HTML templates and the form model they render.
package views

import (
	"embed"
	"html/template"
	"strconv"
	"time"

	"github.com/yigit/gradebook/internal/pkg/helpers"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcs = template.FuncMap{
	"date": helpers.FormatDate,
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
}

// Load parses every page template. Pages are addressed by file name.
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// Option is one entry of a select field
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Field is one input of a Form
type Field struct {
	Name  string
	Label string
	// Type is an input type, or "select".
	Type     string
	Value    string
	Options  []Option
	Required bool
	Help     string
}

// Form is the generic create/update page
type Form struct {
	Title     string
	Action    string
	Submit    string
	Cancel    string
	Multipart bool
	Fields    []Field
	// Errors maps field names to their message.
	Errors map[string]string
	// Error is shown above the fields.
	Error string
}

// Text builds a required text-like input
func Text(name, label, typ, value string) Field {
	return Field{Name: name, Label: label, Type: typ, Value: value, Required: true}
}

// Int formats an integer field value; zero renders empty.
func Int(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

// Select builds a required select input with selected marked
func Select(name, label string, selected int64, opts []Option) Field {
	sel := strconv.FormatInt(selected, 10)
	for i := range opts {
		opts[i].Selected = opts[i].Value == sel
	}
	return Field{Name: name, Label: label, Type: "select", Value: sel, Options: opts, Required: true}
}

// IDOption builds a select option keyed by id
func IDOption(id int64, label string) Option {
	return Option{Value: strconv.FormatInt(id, 10), Label: label}
}

// Confirm is the generic yes/no page used for deletes and enrolment
type Confirm struct {
	Title   string
	Message string
	Action  string
	Submit  string
	Cancel  string
	Danger  bool
}
