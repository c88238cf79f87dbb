// Package spreadsheet reads student rosters from CSV and XLSX uploads.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
	"github.com/yigit/gradebook/internal/pkg/helpers"
)

// RequiredColumns are the header names every roster must carry
var RequiredColumns = []string{"email", "first_name", "last_name", "dob"}

var (
	ErrUnsupportedFormat = errors.New("unsupported file type: upload a .csv or .xlsx file")
	ErrEmptyFile         = errors.New("the file has no header row")
)

// MissingColumnsError lists the required headers absent from the file
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// StudentRow is one roster line. Line is the 1-based line in the file.
type StudentRow struct {
	Line      int    `csv:"-"`
	Email     string `csv:"email"`
	FirstName string `csv:"first_name"`
	LastName  string `csv:"last_name"`
	DOB       string `csv:"dob"`
}

// ParseStudents reads every roster row from r. The format is picked from the
// filename extension. Header problems fail the whole file; blank lines are skipped.
func ParseStudents(filename string, r io.Reader) ([]StudentRow, error) {
	var (
		records []record
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return decode(records)
}

// record is a raw row and the file line it came from.
type record struct {
	line   int
	fields []string
}

func readCSV(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, record{line: line, fields: fields})
	}
}

func readXLSX(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	dobCol := -1
	if len(rows) > 0 {
		dobCol = indexOf(normalizeHeader(rows[0]), "dob")
	}
	records := make([]record, 0, len(rows))
	for i, row := range rows {
		if i > 0 && dobCol >= 0 && dobCol < len(row) {
			row[dobCol] = excelDate(row[dobCol])
		}
		records = append(records, record{line: i + 1, fields: row})
	}
	return records, nil
}

// excelDate turns a serial date number into YYYY-MM-DD and leaves text alone.
func excelDate(v string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return helpers.FormatDate(t)
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func decode(records []record) ([]StudentRow, error) {
	if len(records) == 0 || blank(records[0].fields) {
		return nil, ErrEmptyFile
	}
	header := normalizeHeader(records[0].fields)

	var missing []string
	for _, col := range RequiredColumns {
		if indexOf(header, col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	body := [][]string{header}
	var lines []int
	for _, r := range records[1:] {
		rec := r.fields
		if blank(rec) {
			continue
		}
		// gocsv expects every record to be as wide as the header.
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		for j := range rec {
			rec[j] = strings.TrimSpace(rec[j])
		}
		body = append(body, rec[:len(header)])
		lines = append(lines, r.line)
	}

	var rows []StudentRow
	if len(lines) == 0 {
		return rows, nil
	}
	if err := gocsv.UnmarshalCSV(&rowsReader{records: body}, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	for i := range rows {
		rows[i].Line = lines[i]
	}
	return rows, nil
}

// rowsReader feeds already split records to gocsv.
type rowsReader struct {
	records [][]string
	pos     int
}

func (r *rowsReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *rowsReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}
