package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradepulse/pkg/contracts/domain"
)

// UnsupportedFormatError indicates a file whose extension is neither
// .xlsx nor .csv. The file is skipped; the process keeps running.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q for %s", e.Ext, e.Path)
}

// Loader reads spreadsheet-like files into row-oriented grade reports
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new tabular file loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// Load reads the file at path into a GradeReport. The format is chosen
// by extension: .xlsx goes through excelize, .csv through the stdlib
// csv reader. Any other extension returns *UnsupportedFormatError.
func (l *Loader) Load(path string) (*domain.GradeReport, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		rows [][]string
		err  error
	)
	switch ext {
	case ".xlsx":
		rows, err = l.loadWorkbook(path)
	case ".csv":
		rows, err = l.loadDelimited(path)
	default:
		return nil, &UnsupportedFormatError{Path: path, Ext: ext}
	}
	if err != nil {
		return nil, err
	}

	report, err := buildReport(path, rows)
	if err != nil {
		return nil, err
	}

	l.logger.Info("loaded grade file",
		slog.String("path", path),
		slog.String("subject", report.Subject),
		slog.Int("rows", len(report.Rows)))

	return report, nil
}

// loadWorkbook reads all rows of the first non-empty sheet
func (l *Loader) loadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) > 0 {
			l.logger.Debug("using sheet", slog.String("sheet_name", name))
			return rows, nil
		}
	}

	return nil, fmt.Errorf("workbook %s has no usable sheet", path)
}

// loadDelimited reads a CSV file, tolerating variable field counts
func (l *Loader) loadDelimited(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return rows, nil
}

// buildReport converts raw rows into a GradeReport with normalized
// headers. Rows shorter than the header are padded with empty cells;
// fully empty rows are dropped.
func buildReport(path string, rows [][]string) (*domain.GradeReport, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	report := &domain.GradeReport{
		Subject:    domain.SubjectFromPath(path),
		Headers:    headers,
		SourcePath: path,
	}

	for _, row := range rows[1:] {
		hasData := false
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				hasData = true
				break
			}
		}
		if !hasData {
			continue
		}

		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				record[header] = strings.TrimSpace(row[i])
			} else {
				record[header] = ""
			}
		}
		report.Rows = append(report.Rows, record)
	}

	return report, nil
}
