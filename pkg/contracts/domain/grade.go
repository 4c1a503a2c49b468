package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// GradeReport is the raw tabular content of one ingested file.
// Headers are normalized (trimmed, lower-cased); each row maps a
// normalized header to the raw cell value. The report is ephemeral and
// discarded once the pipeline finishes with it.
type GradeReport struct {
	Subject    string              `json:"subject"`
	Headers    []string            `json:"headers"`
	Rows       []map[string]string `json:"rows"`
	SourcePath string              `json:"source_path"`
}

// CleanedRow is one student's validated grade entry after cleaning.
// Grade is always > 0 and Identifier is never empty.
type CleanedRow struct {
	Identifier string  `json:"identifier"`
	Grade      float64 `json:"grade"`
	Rank       int     `json:"rank"`
	Percentile float64 `json:"percentile"`
}

// ClassStatistics aggregates the cleaned grade set for one subject.
// StdDev is the sample standard deviation; a single-row class has
// StdDev 0 by convention.
type ClassStatistics struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Count  int     `json:"count"`
}

// GradeRecord is the persisted fact for one matched student. It is
// written at most once per (student, subject, source) and never
// updated or deleted.
type GradeRecord struct {
	StudentID  string    `json:"student_id" db:"student_id"`
	Subject    string    `json:"subject_name" db:"subject_name"`
	Grade      float64   `json:"grade" db:"grade"`
	Rank       int       `json:"rank" db:"rank"`
	Percentile float64   `json:"percentile" db:"percentile"`
	Source     string    `json:"file_source" db:"file_source"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// SubjectFromPath derives the subject key for a grade file from its
// base name without the extension. Subject is a pipeline-local grouping
// key, not a managed entity.
func SubjectFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
