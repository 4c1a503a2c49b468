package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradepulse/pkg/contracts/domain"
)

var testCols = ColumnMapping{Identifier: "student id", Grade: "grade"}

func reportFromRows(rows ...[2]string) *domain.GradeReport {
	report := &domain.GradeReport{
		Subject: "math",
		Headers: []string{"student id", "grade"},
	}
	for _, r := range rows {
		report.Rows = append(report.Rows, map[string]string{
			"student id": r[0],
			"grade":      r[1],
		})
	}
	return report
}

func TestComputeRanksAndPercentilesWithTies(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "90"},
		[2]string{"A2", "90"},
		[2]string{"A3", "70"},
	)

	rows, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 83.3333, stats.Mean, 0.001)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 1, rows[1].Rank)
	assert.Equal(t, 3, rows[2].Rank)

	assert.Equal(t, 100.0, rows[0].Percentile)
	assert.Equal(t, 100.0, rows[1].Percentile)
	assert.Equal(t, 33.33, rows[2].Percentile)
}

func TestComputeDropsWithdrawals(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "80"},
		[2]string{"B1", "0"},
		[2]string{"B2", "-5"},
	)

	rows, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A1", rows[0].Identifier)
	assert.Equal(t, 1, stats.Count)

	for _, row := range rows {
		assert.Greater(t, row.Grade, 0.0)
	}
}

func TestComputeDropsUnparseableRows(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "absent"},
		[2]string{"", "75"},
		[2]string{"A3", ""},
		[2]string{"A4", "88"},
	)

	rows, _, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A4", rows[0].Identifier)
}

// ParseFloat accepts "NaN" and "Inf" spellings; a NaN grade would poison
// the mean and depress every percentile, so such cells must be dropped
// like any other unparseable value.
func TestComputeDropsNonFiniteGrades(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "90"},
		[2]string{"A2", "NaN"},
		[2]string{"A3", "+Inf"},
	)

	rows, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "A1", rows[0].Identifier)
	assert.Equal(t, 100.0, rows[0].Percentile)
	assert.Equal(t, 90.0, stats.Mean)
	assert.False(t, math.IsNaN(stats.Mean))
}

func TestComputeCoercesThousandsSeparators(t *testing.T) {
	report := reportFromRows([2]string{"A1", "1,250"}, [2]string{"A2", "900"})

	rows, _, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1250.0, rows[0].Grade)
}

func TestComputeEmptyDataset(t *testing.T) {
	report := reportFromRows([2]string{"B1", "0"})

	rows, _, err := NewStatsEngine(nil).Compute(report, testCols)
	assert.Nil(t, rows)

	var emptyErr *EmptyDatasetError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "math", emptyErr.Subject)
}

func TestComputeSingleRowClass(t *testing.T) {
	report := reportFromRows([2]string{"A1", "60"})

	rows, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 100.0, rows[0].Percentile)
	assert.Equal(t, 60.0, stats.Mean)
	assert.Equal(t, 0.0, stats.StdDev)
	assert.Equal(t, 1, stats.Count)
}

func TestComputeSampleStdDev(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "80"},
		[2]string{"A2", "90"},
		[2]string{"A3", "100"},
	)

	_, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, stats.Mean, 1e-9)
	assert.InDelta(t, 10.0, stats.StdDev, 1e-9) // sample, n-1 divisor
}

// Invariants: at least one rank-1 row, ranks non-decreasing as grade
// decreases, all percentiles in [0,100] with the maximum grade at 100.
func TestComputeInvariants(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "55"},
		[2]string{"A2", "91"},
		[2]string{"A3", "77"},
		[2]string{"A4", "91"},
		[2]string{"A5", "62"},
		[2]string{"A6", "77"},
	)

	rows, _, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)

	topRanked := 0
	maxGrade := math.Inf(-1)
	for _, row := range rows {
		if row.Rank == 1 {
			topRanked++
		}
		if row.Grade > maxGrade {
			maxGrade = row.Grade
		}
		assert.GreaterOrEqual(t, row.Percentile, 0.0)
		assert.LessOrEqual(t, row.Percentile, 100.0)
	}
	assert.GreaterOrEqual(t, topRanked, 1)

	for _, a := range rows {
		for _, b := range rows {
			if a.Grade > b.Grade {
				assert.Less(t, a.Rank, b.Rank)
				assert.Greater(t, a.Percentile, b.Percentile)
			}
			if a.Grade == b.Grade {
				assert.Equal(t, a.Rank, b.Rank)
				assert.Equal(t, a.Percentile, b.Percentile)
			}
		}
		if a.Grade == maxGrade {
			assert.Equal(t, 100.0, a.Percentile)
		}
	}
}

func TestComputeAllTiedClass(t *testing.T) {
	report := reportFromRows(
		[2]string{"A1", "85"},
		[2]string{"A2", "85"},
		[2]string{"A3", "85"},
	)

	rows, stats, err := NewStatsEngine(nil).Compute(report, testCols)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stats.StdDev)
	for _, row := range rows {
		assert.Equal(t, 1, row.Rank)
		assert.Equal(t, 100.0, row.Percentile)
	}
}
