// Package match joins cleaned grade rows against the registered
// student roster.
package match

import (
	"gradepulse/pkg/contracts/domain"
)

// Pair couples a roster entry with the cleaned row it matched
type Pair struct {
	Student domain.StudentRecord
	Row     domain.CleanedRow
}

// Engine matches roster entries to grade rows by identifier equality
type Engine struct{}

// NewEngine creates a new match engine
func NewEngine() *Engine {
	return &Engine{}
}

// Match returns one pair per roster entry whose student identifier
// exactly equals a cleaned row's identifier. Matching is string-exact:
// "2021" does not match "02021". Unmatched roster entries and unmatched
// rows are silently excluded. Output preserves roster order.
func (e *Engine) Match(roster []domain.StudentRecord, rows []domain.CleanedRow) []Pair {
	byIdentifier := make(map[string]domain.CleanedRow, len(rows))
	for _, row := range rows {
		if _, exists := byIdentifier[row.Identifier]; !exists {
			byIdentifier[row.Identifier] = row
		}
	}

	var pairs []Pair
	for _, student := range roster {
		if row, ok := byIdentifier[student.StudentID]; ok {
			pairs = append(pairs, Pair{Student: student, Row: row})
		}
	}
	return pairs
}
