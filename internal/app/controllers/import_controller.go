package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/app/services"
	"github.com/yigit/gradebook/internal/middleware"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
)

// UploadArchive keeps a copy of every imported spreadsheet
type UploadArchive interface {
	Save(filename string, r io.Reader) (string, error)
	Delete(path string) error
}

// ImportController handles the spreadsheet student import page
type ImportController struct {
	importService services.ImportService
	archive       UploadArchive
	maxBytes      int64
	logger        zerolog.Logger
}

// NewImportController creates a new ImportController; maxBytes caps the upload size.
func NewImportController(importService services.ImportService, maxBytes int64, logger zerolog.Logger) *ImportController {
	return &ImportController{importService: importService, maxBytes: maxBytes, logger: logger}
}

// WithArchive stores each upload before it is imported.
func (c *ImportController) WithArchive(archive UploadArchive) *ImportController {
	c.archive = archive
	return c
}

// archiveUpload saves file and rewinds it. Archive failures never block the import.
func (c *ImportController) archiveUpload(filename string, file io.ReadSeeker) string {
	if c.archive == nil {
		return ""
	}
	stored, err := c.archive.Save(filename, file)
	if err != nil {
		c.logger.Warn().Err(err).Str("file", filename).Msg("Failed to archive import upload")
	} else {
		c.logger.Info().Str("file", filename).Str("archived_as", stored).Msg("Import upload archived")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.logger.Warn().Err(err).Str("file", filename).Msg("Failed to rewind import upload")
	}
	return stored
}

func (c *ImportController) discardUpload(stored string) {
	if c.archive == nil || stored == "" {
		return
	}
	if err := c.archive.Delete(stored); err != nil {
		c.logger.Warn().Err(err).Str("path", stored).Msg("Failed to discard archived upload")
	}
}

func (c *ImportController) renderPage(ctx *gin.Context, status int, report *dto.ImportReport, continueOnError bool, errs map[string]string) {
	render(ctx, status, "import.html", gin.H{
		"Title":           "Import students",
		"Report":          report,
		"ContinueOnError": continueOnError,
		"Errors":          errs,
	})
}

// Form renders the upload form
func (c *ImportController) Form(ctx *gin.Context) {
	c.renderPage(ctx, http.StatusOK, nil, false, nil)
}

// Import runs the uploaded file through the import and shows the per-row report
func (c *ImportController) Import(ctx *gin.Context) {
	if c.maxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, c.maxBytes)
	}
	header, err := ctx.FormFile("file")
	continueOnError := ctx.PostForm("continue_on_error") != ""
	if err != nil {
		msg := "Please choose a file to upload."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "The file is too large."
		}
		c.renderPage(ctx, http.StatusBadRequest, nil, continueOnError, map[string]string{"file": msg})
		return
	}

	file, err := header.Open()
	if err != nil {
		middleware.HandleError(ctx, err)
		return
	}
	defer file.Close()

	stored := c.archiveUpload(header.Filename, file)

	report, err := c.importService.Import(ctx.Request.Context(), header.Filename, file, continueOnError)
	if err != nil {
		if ve, ok := apperrors.AsValidation(err); ok {
			// unreadable files are not worth keeping
			c.discardUpload(stored)
			c.renderPage(ctx, http.StatusBadRequest, nil, continueOnError, ve.Map())
			return
		}
		middleware.HandleError(ctx, err)
		return
	}

	c.renderPage(ctx, http.StatusOK, report, continueOnError, nil)
}
