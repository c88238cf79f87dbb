package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/gradebook/internal/app/models/dto"
	"github.com/yigit/gradebook/internal/pkg/apperrors"
	"github.com/yigit/gradebook/internal/pkg/metrics"
	"github.com/yigit/gradebook/internal/pkg/spreadsheet"
)

// ImportService creates students from a roster spreadsheet
type ImportService interface {
	// Import provisions one student per row, each row in its own transaction.
	// Without continueOnError it stops at the first failing row; earlier rows stay.
	Import(ctx context.Context, filename string, r io.Reader, continueOnError bool) (*dto.ImportReport, error)
}

type importServiceImpl struct {
	provisioning    ProvisioningService
	defaultPassword string
	logger          zerolog.Logger
}

// NewImportService creates a new import service. Imported students get
// defaultPassword until they change it.
func NewImportService(provisioning ProvisioningService, defaultPassword string, logger zerolog.Logger) ImportService {
	return &importServiceImpl{provisioning: provisioning, defaultPassword: defaultPassword, logger: logger}
}

func (s *importServiceImpl) Import(ctx context.Context, filename string, r io.Reader, continueOnError bool) (*dto.ImportReport, error) {
	rows, err := spreadsheet.ParseStudents(filename, r)
	if err != nil {
		var mc *spreadsheet.MissingColumnsError
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) || errors.Is(err, spreadsheet.ErrEmptyFile) || errors.As(err, &mc) {
			return nil, apperrors.NewValidationError("file", err.Error())
		}
		return nil, apperrors.NewValidationError("file", "The file could not be read: "+err.Error())
	}

	report := &dto.ImportReport{}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result := dto.ImportRowResult{Line: row.Line, Email: row.Email}
		student, err := s.provisioning.CreateStudent(ctx, dto.StudentInput{PersonInput: dto.PersonInput{
			Email:     row.Email,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Password:  s.defaultPassword,
			DOB:       row.DOB,
		}})
		if err != nil {
			if _, ok := apperrors.AsValidation(err); !ok {
				// Infrastructure failures end the import regardless of mode.
				return report, err
			}
			result.Error = describeRowError(err)
			report.Rows = append(report.Rows, result)
			report.Failed++
			metrics.StudentsImported.WithLabelValues(metrics.OutcomeFailed).Inc()

			if !continueOnError {
				report.Aborted = true
				report.Skipped = len(rows) - i - 1
				break
			}
			continue
		}

		result.StudentID = student.ID
		report.Rows = append(report.Rows, result)
		report.Created++
		metrics.StudentsImported.WithLabelValues(metrics.OutcomeCreated).Inc()
	}

	s.logger.Info().
		Str("file", filename).
		Int("created", report.Created).
		Int("failed", report.Failed).
		Bool("aborted", report.Aborted).
		Msg("Student import finished")
	return report, nil
}

func describeRowError(err error) string {
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
