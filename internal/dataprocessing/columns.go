package dataprocessing

import (
	"fmt"
	"strings"
)

// ColumnResolutionError indicates that the identifier or grade column
// could not be found in a file's headers. The whole file is aborted;
// a human must fix the source file.
type ColumnResolutionError struct {
	Headers []string
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("could not resolve identifier and grade columns from headers %v", e.Headers)
}

// ColumnMapping names the resolved identifier and grade columns
type ColumnMapping struct {
	Identifier string
	Grade      string
}

// ColumnResolver selects the identifier and grade columns from a
// normalized header set. It is a pluggable strategy so the heuristic
// can be swapped for a strict schema validator without touching the
// rest of the pipeline.
type ColumnResolver interface {
	Resolve(headers []string) (ColumnMapping, error)
}

// HeuristicResolver resolves columns by substring matching with a
// fixed priority order. Identifier: first header containing "id", then
// first containing "student". Grade: first header containing "grade",
// then "mark", then "result". Headers are expected pre-normalized
// (trimmed, lower-cased) by the loader.
//
// The heuristic is deliberately loose; ambiguous files such as one with
// a "student_id_result" column resolve to the first match and may pick
// the wrong column silently.
type HeuristicResolver struct{}

// NewHeuristicResolver creates the default column resolution strategy
func NewHeuristicResolver() *HeuristicResolver {
	return &HeuristicResolver{}
}

var (
	identifierKeys = []string{"id", "student"}
	gradeKeys      = []string{"grade", "mark", "result"}
)

// Resolve implements ColumnResolver
func (r *HeuristicResolver) Resolve(headers []string) (ColumnMapping, error) {
	identifier := firstMatch(headers, identifierKeys)
	grade := firstMatch(headers, gradeKeys)

	if identifier == "" || grade == "" {
		return ColumnMapping{}, &ColumnResolutionError{Headers: headers}
	}

	return ColumnMapping{Identifier: identifier, Grade: grade}, nil
}

// firstMatch returns the first header containing any of the keys,
// checking the keys in priority order.
func firstMatch(headers, keys []string) string {
	for _, key := range keys {
		for _, header := range headers {
			if strings.Contains(header, key) {
				return header
			}
		}
	}
	return ""
}
