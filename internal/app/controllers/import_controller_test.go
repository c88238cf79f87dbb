package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/gradebook/internal/app/models/dto"
)

type stubImportService struct{}

func (stubImportService) Import(_ context.Context, _ string, r io.Reader, _ bool) (*dto.ImportReport, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	return &dto.ImportReport{Created: 2}, nil
}

type stubArchive struct {
	saved []string
}

func (a *stubArchive) Save(filename string, r io.Reader) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	a.saved = append(a.saved, filename)
	return "2025-01-01/stored.csv", nil
}

func (a *stubArchive) Delete(string) error { return nil }

func TestImportController_LogsArchiveOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var logs bytes.Buffer
	archive := &stubArchive{}
	c := NewImportController(stubImportService{}, 1<<20, zerolog.New(&logs)).WithArchive(archive)

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("import.html").Parse(`{{.Report.Created}} created`)))
	router.POST("/students/import", c.Import)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "roster.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("email,first_name,last_name,dob\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2 created", w.Body.String())
	assert.Equal(t, []string{"roster.csv"}, archive.saved)

	// The import summary belongs to the service; the controller only reports the archive.
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Import upload archived", entry["message"])
	assert.Equal(t, "2025-01-01/stored.csv", entry["archived_as"])
	assert.NotContains(t, logs.String(), "Student import finished")
}
