package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradepulse/pkg/contracts/domain"
)

func TestMatch(t *testing.T) {
	roster := []domain.StudentRecord{
		{StudentID: "2021", ChatID: "100"},
		{StudentID: "S9", ChatID: "200"},
		{StudentID: "A3", ChatID: "300"},
	}
	rows := []domain.CleanedRow{
		{Identifier: "A3", Grade: 70, Rank: 2, Percentile: 50},
		{Identifier: "02021", Grade: 95, Rank: 1, Percentile: 100},
	}

	pairs := NewEngine().Match(roster, rows)

	require.Len(t, pairs, 1, "only exact identifier matches pair up")
	assert.Equal(t, "A3", pairs[0].Student.StudentID)
	assert.Equal(t, 70.0, pairs[0].Row.Grade)
}

func TestMatchExactStringEquality(t *testing.T) {
	roster := []domain.StudentRecord{{StudentID: "2021"}}
	rows := []domain.CleanedRow{{Identifier: "02021", Grade: 90}}

	assert.Empty(t, NewEngine().Match(roster, rows), "leading zeros are significant")
}

func TestMatchUnmatchedRosterEntry(t *testing.T) {
	roster := []domain.StudentRecord{{StudentID: "S9"}}
	rows := []domain.CleanedRow{{Identifier: "A1", Grade: 80}}

	assert.Empty(t, NewEngine().Match(roster, rows))
}

func TestMatchPreservesRosterOrder(t *testing.T) {
	roster := []domain.StudentRecord{
		{StudentID: "C"}, {StudentID: "A"}, {StudentID: "B"},
	}
	rows := []domain.CleanedRow{
		{Identifier: "A"}, {Identifier: "B"}, {Identifier: "C"},
	}

	pairs := NewEngine().Match(roster, rows)
	require.Len(t, pairs, 3)
	assert.Equal(t, "C", pairs[0].Student.StudentID)
	assert.Equal(t, "A", pairs[1].Student.StudentID)
	assert.Equal(t, "B", pairs[2].Student.StudentID)
}

func TestMatchEmptyInputs(t *testing.T) {
	engine := NewEngine()
	assert.Empty(t, engine.Match(nil, []domain.CleanedRow{{Identifier: "A"}}))
	assert.Empty(t, engine.Match([]domain.StudentRecord{{StudentID: "A"}}, nil))
}
